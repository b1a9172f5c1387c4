package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/go-playground/validator/v10"
)

// Global validator instance (reused across all callers)
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so messages match what clients send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s against its `validate` tags.
// Field failures are returned as a *models.ValidationError listing every field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validation failed: %w", err)
	}

	fields := make([]models.FieldError, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, models.FieldError{
			Field:   fe.Field(),
			Message: formatFieldError(fe),
		})
	}
	return &models.ValidationError{Errors: fields}
}

// Var validates a single value against tag, reporting failures under field.
func Var(field string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validation failed: %w", err)
	}

	fields := make([]models.FieldError, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, models.FieldError{
			Field:   field,
			Message: formatFieldError(fe),
		})
	}
	return &models.ValidationError{Errors: fields}
}

// formatFieldError converts a validator FieldError to a user-friendly message
func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
