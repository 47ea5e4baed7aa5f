package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks cfg against the struct validation tags and a few rules
// the tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return newValidationError(fieldErrs)
		}
		return err
	}

	if cfg.Rate.Mode == RateModeBucket && cfg.Rate.RPS <= 0 {
		return fmt.Errorf("rate config: bucket mode requires rps > 0")
	}
	return nil
}

// ValidationError aggregates field-level validation failures.
type ValidationError struct {
	Fields []FieldError
}

// FieldError is one failed field with a readable message.
type FieldError struct {
	Field   string
	Message string
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, FieldError{
			Field:   fe.Namespace(),
			Message: fieldMessage(fe),
		})
	}
	return &ValidationError{Fields: fields}
}

func (ve *ValidationError) Error() string {
	if len(ve.Fields) == 1 {
		return fmt.Sprintf("validation failed: %s", ve.Fields[0].Message)
	}
	return fmt.Sprintf("validation failed: %d errors", len(ve.Fields))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "gt", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation", fe.Field())
	}
}
