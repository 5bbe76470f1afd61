package services

import (
	"errors"
	"fmt"

	"github.com/careersfromhere/testimonial-service/internal/validator"
)

// ValidationErrors is the shared validation error type surfaced to handlers
type ValidationErrors = validator.ValidationErrors

// ===== SENTINEL ERRORS =====

var (
	ErrSchoolNotFound   = errors.New("school not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrVideoNotFound    = errors.New("video not found")
	ErrClipNotFound     = errors.New("video clip not found")
	ErrCategoryNotFound = errors.New("category not found")

	ErrEmailTaken        = errors.New("email address already registered")
	ErrSchoolNameTaken   = errors.New("school name already exists")
	ErrCategoryNameTaken = errors.New("category name already exists")

	ErrUserNotApproved    = errors.New("user account awaits approval")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrQuestionInactive   = errors.New("question is not active")
)

// ===== PERMISSION ERROR =====

// PermissionError reports a denied action on a resource
type PermissionError struct {
	UserID     uint
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

// NewPermissionError creates a permission error
func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ===== BUSINESS RULE ERROR =====

// BusinessRuleError reports a violated domain rule
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

// NewBusinessRuleError creates a business rule error
func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WithContext attaches a context value to the error
func (e *BusinessRuleError) WithContext(key string, value interface{}) *BusinessRuleError {
	e.Context[key] = value
	return e
}

// ===== EXTERNAL STEP ERROR =====

// ExternalStepError reports a best-effort external step (media merge, publish)
// that could not run. Operations carrying it still succeed; the error travels
// in the response so callers know the enrichment is partial.
type ExternalStepError struct {
	Step   string
	ClipID uint
	Cause  error
}

func (e *ExternalStepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("external step %q skipped for clip %d: %v", e.Step, e.ClipID, e.Cause)
	}
	return fmt.Sprintf("external step %q skipped for clip %d", e.Step, e.ClipID)
}

func (e *ExternalStepError) Unwrap() error {
	return e.Cause
}

// NewExternalStepError creates an external step error
func NewExternalStepError(step string, clipID uint, cause error) *ExternalStepError {
	return &ExternalStepError{Step: step, ClipID: clipID, Cause: cause}
}
