package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/placement-service/internal/catalog"
)

// Validator wraps go-playground/validator with placement-specific rules
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom rules registered
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// test_level: a level within the ladder
	_ = v.RegisterValidation("test_level", func(fl validator.FieldLevel) bool {
		level := fl.Field().Int()
		return level >= 1 && level <= int64(catalog.MaxLevel)
	})

	// answer_text: bounded free text, no practical reason to allow more
	_ = v.RegisterValidation("answer_text", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= 10000
	})

	return &Validator{validate: v}
}

// Validate checks the struct's validate tags and returns a readable error
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, formatFieldError(fieldError))
	}

	return fmt.Errorf("%s", strings.Join(messages, "; "))
}

// Var validates a single value against a tag expression
func (v *Validator) Var(value interface{}, tag string) error {
	return v.validate.Var(value, tag)
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "test_level":
		return fmt.Sprintf("%s must be between 1 and %d", fe.Field(), catalog.MaxLevel)
	case "answer_text":
		return fmt.Sprintf("%s exceeds the maximum length", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
