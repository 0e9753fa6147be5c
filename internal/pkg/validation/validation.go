package validation

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Struct validates a tagged request struct.
func Struct(s interface{}) error {
	return validate.Struct(s)
}
