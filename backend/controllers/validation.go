package controllers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validationMessages flattens validator errors into a field -> message map
// for the standard validation response.
func validationMessages(err error) map[string]string {
	messages := make(map[string]string)

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		messages["body"] = err.Error()
		return messages
	}

	for _, fe := range fieldErrors {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages[field] = "This field is required"
		case "email":
			messages[field] = "Must be a valid email address"
		case "min":
			messages[field] = "Too short (minimum " + fe.Param() + ")"
		case "oneof":
			messages[field] = "Must be one of: " + fe.Param()
		default:
			messages[field] = "Invalid value"
		}
	}

	return messages
}
