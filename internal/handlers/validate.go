package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var fieldNames = map[string]string{
	"Email":                "email",
	"Password":             "password",
	"PasswordConfirmation": "password_confirmation",
	"Name":                 "name",
	"Role":                 "role",
	"State":                "state",
	"Website":              "website",
	"RefreshToken":         "refresh_token",
	"Code":                 "code",
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldErrorMessage(fe))
	}
	return strings.Join(messages, "; ")
}

func fieldErrorMessage(fe validator.FieldError) string {
	field, ok := fieldNames[fe.Field()]
	if !ok {
		field = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "eqfield":
		return "passwords do not match"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
