package utils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "vitrina-crm/pkg/errors"
)

type HttpResponse struct {
	Status     bool        `json:"status"`
	Body       interface{} `json:"body,omitempty"`
	Message    string      `json:"message"`
	TotalCount *uint64     `json:"total_count,omitempty"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, totalCount ...uint64) error {
	response := &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	}
	if len(totalCount) > 0 {
		response.TotalCount = &totalCount[0]
	}
	return ctx.JSON(code, response)
}

// ErrorResponse переводит ошибку в HTTP-ответ: HttpError отдаёт свой код,
// сентинельные ошибки маппятся на стандартные статусы, остальное — 500.
func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code := http.StatusInternalServerError
	message := "Внутренняя ошибка сервера"

	var httpErr *apperrors.HttpError
	var inputErr *apperrors.InvalidInputError

	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		message = httpErr.Message
	case errors.As(err, &inputErr):
		code = http.StatusBadRequest
		message = inputErr.Message
	case errors.Is(err, apperrors.ErrNotFound):
		code = http.StatusNotFound
		message = apperrors.ErrNotFound.Error()
	case errors.Is(err, apperrors.ErrAlreadyClaimed):
		code = http.StatusConflict
		message = apperrors.ErrAlreadyClaimed.Error()
	case errors.Is(err, apperrors.ErrBadRequest), errors.Is(err, apperrors.ErrInvalidPhone):
		code = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrEmptyAuthHeader),
		errors.Is(err, apperrors.ErrInvalidAuthHeader),
		errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrInvalidToken):
		code = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, apperrors.ErrForbidden):
		code = http.StatusForbidden
		message = err.Error()
	}

	if code >= http.StatusInternalServerError {
		logger.Error("необработанная ошибка в хендлере",
			zap.String("uri", ctx.Request().RequestURI),
			zap.Error(err),
		)
	} else {
		logger.Warn("ошибка запроса",
			zap.String("uri", ctx.Request().RequestURI),
			zap.Int("code", code),
			zap.Error(err),
		)
	}

	return ctx.JSON(code, &HttpResponse{
		Status:  false,
		Message: message,
	})
}
