package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs validator tags on data and returns field error messages,
// or nil when the struct is valid.
func ValidateStruct(data interface{}) map[string]string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	fieldErrors := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, ve := range validationErrors {
			fieldErrors[ve.Field()] = simpleErrorMessage(ve)
		}
	}
	return fieldErrors
}

func simpleErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "invalid email format"
	case "min":
		return fmt.Sprintf("minimum is %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "oneof":
		options := strings.ReplaceAll(err.Param(), " ", ", ")
		return fmt.Sprintf("must be one of: %s", options)
	default:
		return fmt.Sprintf("invalid %s field", err.Field())
	}
}

// FormatValidationErrors joins field errors into a single readable message.
func FormatValidationErrors(fieldErrors map[string]string) string {
	parts := make([]string, 0, len(fieldErrors))
	for field, msg := range fieldErrors {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}
