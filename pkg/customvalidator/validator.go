// Файл: pkg/customvalidator/validator.go

package customvalidator

import (
	"github.com/go-playground/validator/v10"

	"vitrina-crm/pkg/utils"
)

// RegisterCustomValidations регистрирует доменные правила валидации.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("kz_phone", isKazakhPhoneNumber); err != nil {
		return err
	}
	if err := v.RegisterValidation("modified_by", isValidModifiedBy); err != nil {
		return err
	}
	return nil
}

func isKazakhPhoneNumber(fl validator.FieldLevel) bool {
	return utils.IsValidKazakhPhone(fl.Field().String())
}

// last_modified_by в properties допускает только двух писателей.
func isValidModifiedBy(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "BOT" || s == "SHEET"
}
