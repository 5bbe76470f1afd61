package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/go-playground/validator/v10"
)

var emailLinePattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Answer window must leave room for an actual answer
	bv.validate.RegisterValidation("question_duration", func(fl validator.FieldLevel) bool {
		return fl.Field().Float() >= models.MinQuestionDuration
	})

	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		switch models.UserRole(fl.Field().String()) {
		case models.RoleStudent, models.RoleAlumni, models.RoleAdmin, models.RoleSuperAdmin:
			return true
		}
		return false
	})

	// Self-registration and invitations never mint admins
	bv.validate.RegisterValidation("registration_role", func(fl validator.FieldLevel) bool {
		switch models.UserRole(fl.Field().String()) {
		case models.RoleStudent, models.RoleAlumni:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) >= 8
	})
}

// ValidatePermutation checks that order is a permutation of 1..n. A failure
// describes the first violated rule only.
func (bv *BusinessValidator) ValidatePermutation(order []int, n int) ValidationErrors {
	if len(order) != n {
		return ValidationErrors{{
			Field:   "order",
			Message: fmt.Sprintf("must list all %d active questions, got %d entries", n, len(order)),
			Value:   len(order),
			Rule:    "permutation",
		}}
	}

	seen := make([]bool, n+1)
	for i, pos := range order {
		if pos < 1 || pos > n {
			return ValidationErrors{{
				Field:   fmt.Sprintf("order[%d]", i),
				Message: fmt.Sprintf("must be between 1 and %d", n),
				Value:   pos,
				Rule:    "permutation",
			}}
		}
		if seen[pos] {
			return ValidationErrors{{
				Field:   fmt.Sprintf("order[%d]", i),
				Message: fmt.Sprintf("position %d listed more than once", pos),
				Value:   pos,
				Rule:    "permutation",
			}}
		}
		seen[pos] = true
	}

	return nil
}

// ParseOrderSpec parses the comma-separated order form field ("3,1,2") into a
// position slice. Whitespace around entries is tolerated.
func ParseOrderSpec(spec string) ([]int, error) {
	parts := strings.Split(spec, ",")
	order := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid order entry %q", strings.TrimSpace(part))
		}
		order = append(order, n)
	}
	return order, nil
}

// ParseEmailLines splits a pasted address block into valid addresses, skipping
// blank lines. Invalid lines are returned separately so the caller can report
// them without failing the whole batch.
func ParseEmailLines(block string) (valid []string, invalid []string) {
	seen := make(map[string]bool)
	for _, line := range strings.Split(block, "\n") {
		email := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(line, "\r")))
		if email == "" {
			continue
		}
		if !emailLinePattern.MatchString(email) {
			invalid = append(invalid, email)
			continue
		}
		if seen[email] {
			continue
		}
		seen[email] = true
		valid = append(valid, email)
	}
	return valid, invalid
}

// ValidateUserCreate validates user creation business rules
func (bv *BusinessValidator) ValidateUserCreate(req *UserCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validateRoleProfileRules(req.Role, req.Alumni)...)

	// A fresh account cannot keep a password it does not have
	if req.Password.Mode == PasswordKeep {
		errors = append(errors, ValidationError{
			Field:   "password",
			Message: "must be set or generated for a new user",
			Rule:    "business_logic",
		})
	}
	if req.Password.Mode == PasswordSet && len(req.Password.Value) < 8 {
		errors = append(errors, ValidationError{
			Field:   "password",
			Message: "must be at least 8 characters",
			Rule:    "password_strength",
		})
	}

	return errors
}

// ValidateUserUpdate validates user update business rules
func (bv *BusinessValidator) ValidateUserUpdate(req *UserUpdateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Role != nil {
		errors = append(errors, bv.validateRoleProfileRules(*req.Role, req.Alumni)...)
	}
	if req.Password.Mode == PasswordSet && len(req.Password.Value) < 8 {
		errors = append(errors, ValidationError{
			Field:   "password",
			Message: "must be at least 8 characters",
			Rule:    "password_strength",
		})
	}

	return errors
}

// validateRoleProfileRules ties the alumni profile to the alumni role
func (bv *BusinessValidator) validateRoleProfileRules(role models.UserRole, alumni *AlumniProfileRequest) ValidationErrors {
	var errors ValidationErrors

	if alumni != nil && role != models.RoleAlumni {
		errors = append(errors, ValidationError{
			Field:   "alumni",
			Message: fmt.Sprintf("profile only applies to role %q", models.RoleAlumni),
			Value:   role,
			Rule:    "business_logic",
		})
	}

	return errors
}
