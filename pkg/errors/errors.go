package errors

import "fmt"

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenNotYetValid     = fmt.Errorf("токен ещё не активен")
	ErrTokenIsNotRefresh    = fmt.Errorf("токен не является refresh-токеном")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")

	// Домен витрины
	ErrAlreadyClaimed  = fmt.Errorf("объект уже закреплён за другим агентом")
	ErrAgentNotFound   = fmt.Errorf("агент с таким номером не найден")
	ErrInvalidPhone    = fmt.Errorf("некорректный номер телефона")
	ErrSessionRequired = fmt.Errorf("требуется авторизация в боте")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")
)

// HttpError несёт HTTP-код и сообщение для клиента, а исходную ошибку
// оставляет для логов.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, context map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: context}
}

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
