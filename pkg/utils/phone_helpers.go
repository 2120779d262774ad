package utils

import (
	"regexp"

	apperrors "vitrina-crm/pkg/errors"
)

var nonDigitRegexp = regexp.MustCompile(`\D`)

// NormalizeKazakhPhoneNumber приводит номер к виду 7XXXXXXXXXX.
// Принимаются варианты с 8 вместо 7 в начале, без кода страны (10 цифр)
// и короткие мобильные без семёрки (9 цифр). Всё остальное — ошибка.
func NormalizeKazakhPhoneNumber(phone string) (string, error) {
	digits := nonDigitRegexp.ReplaceAllString(phone, "")

	switch {
	case len(digits) == 11 && digits[0] == '8':
		return "7" + digits[1:], nil
	case len(digits) == 11 && digits[0] == '7':
		return digits, nil
	case len(digits) == 10:
		return "7" + digits, nil
	case len(digits) == 9:
		return "77" + digits, nil
	}
	return "", apperrors.ErrInvalidPhone
}

// IsValidKazakhPhone проверяет, что номер нормализуется в
// одиннадцатизначный с кодом страны 7.
func IsValidKazakhPhone(phone string) bool {
	_, err := NormalizeKazakhPhoneNumber(phone)
	return err == nil
}

// SamePhone сравнивает номера по последним десяти цифрам: агенты вводят
// номер то с восьмёркой, то с плюсом.
func SamePhone(a, b string) bool {
	na, errA := NormalizeKazakhPhoneNumber(a)
	nb, errB := NormalizeKazakhPhoneNumber(b)
	if errA != nil || errB != nil {
		return false
	}
	return na[len(na)-10:] == nb[len(nb)-10:]
}
