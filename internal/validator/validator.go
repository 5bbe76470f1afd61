package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator bundles struct validation and business rule validation behind one
// handle that services share
type Validator struct {
	business *BusinessValidator
}

// New creates a validator with all custom rules registered
func New() *Validator {
	return &Validator{
		business: NewBusinessValidator(),
	}
}

// Validate validates a struct, returning ValidationErrors on failure
func (v *Validator) Validate(s interface{}) error {
	if errors := v.business.Validate(s); len(errors) > 0 {
		return errors
	}
	return nil
}

// GetBusinessValidator exposes the business rule validator
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// ToValidationErrors converts validator.ValidationErrors into our error type
func ToValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors

	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			errors = append(errors, ValidationError{
				Field:   fe.Field(),
				Message: getErrorMessage(fe),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
		return errors
	}

	errors = append(errors, ValidationError{
		Field:   "",
		Message: err.Error(),
		Rule:    "struct",
	})
	return errors
}

// getErrorMessage returns user-friendly error messages
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "question_duration":
		return "must allow at least 10 seconds"
	case "user_role":
		return "must be a valid user role"
	case "password_strength":
		return "must be at least 8 characters"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
