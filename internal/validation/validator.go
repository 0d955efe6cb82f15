package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	phoneRegex := regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return phoneRegex.MatchString(value)
	})

	// country dialing code, e.g. "+998"
	countryCodeRegex := regexp.MustCompile(`^\+[0-9]{1,4}$`)
	v.RegisterValidation("countrycode", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return countryCodeRegex.MatchString(value)
	})

	langRegex := regexp.MustCompile(`^[a-z]{2}(-[a-z]{2})?$`)
	v.RegisterValidation("lang", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return langRegex.MatchString(value)
	})

	return &Validator{v: v}
}

func (v *Validator) Struct(s interface{}) error {
	return v.v.Struct(s)
}

func (v *Validator) ValidationErrors(err error) validator.ValidationErrors {
	if err == nil {
		return nil
	}
	if ve, ok := err.(validator.ValidationErrors); ok {
		return ve
	}
	return nil
}
