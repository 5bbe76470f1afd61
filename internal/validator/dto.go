package validator

import (
	"encoding/json"
	"fmt"

	"github.com/careersfromhere/testimonial-service/internal/models"
)

// PasswordMode distinguishes the three ways an admin edit can treat a password
type PasswordMode string

const (
	PasswordKeep     PasswordMode = "keep"
	PasswordSet      PasswordMode = "set"
	PasswordGenerate PasswordMode = "generate"
)

// PasswordInput carries the password intent of a user create or update request.
// An absent field means keep the current password.
type PasswordInput struct {
	Mode  PasswordMode `json:"mode"`
	Value string       `json:"value,omitempty"`
}

func (p *PasswordInput) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		p.Mode = PasswordKeep
		p.Value = ""
		return nil
	}

	type alias PasswordInput
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	switch a.Mode {
	case "", PasswordKeep:
		a.Mode = PasswordKeep
		a.Value = ""
	case PasswordSet:
		if a.Value == "" {
			return fmt.Errorf("password mode %q requires a value", PasswordSet)
		}
	case PasswordGenerate:
		a.Value = ""
	default:
		return fmt.Errorf("unknown password mode %q", a.Mode)
	}

	*p = PasswordInput(a)
	return nil
}

// ===== USER REQUESTS =====

// AlumniProfileRequest carries the alumni-only profile fields
type AlumniProfileRequest struct {
	Profile    string `json:"profile" validate:"omitempty,max=2000"`
	University string `json:"university" validate:"omitempty,max=200"`
	Occupation string `json:"occupation" validate:"omitempty,max=200"`
	Industry   string `json:"industry" validate:"omitempty,max=200"`
	Employer   string `json:"employer" validate:"omitempty,max=200"`
}

// UserCreateRequest represents an admin creating a user directly
type UserCreateRequest struct {
	Name     string                `json:"name" validate:"required,max=200"`
	Email    string                `json:"email" validate:"required,email,max=254"`
	Role     models.UserRole       `json:"role" validate:"required,user_role"`
	SchoolID uint                  `json:"school_id" validate:"required"`
	Password PasswordInput         `json:"password"`
	Approved bool                  `json:"approved"`
	Alumni   *AlumniProfileRequest `json:"alumni"`
}

// UserUpdateRequest represents an admin editing a user
type UserUpdateRequest struct {
	Name     *string               `json:"name" validate:"omitempty,max=200"`
	Email    *string               `json:"email" validate:"omitempty,email,max=254"`
	Role     *models.UserRole      `json:"role" validate:"omitempty,user_role"`
	Password PasswordInput         `json:"password"`
	Alumni   *AlumniProfileRequest `json:"alumni"`
}

// RegisterRequest represents self-registration through the public form
type RegisterRequest struct {
	Name     string                `json:"name" validate:"required,max=200"`
	Email    string                `json:"email" validate:"required,email,max=254"`
	Password string                `json:"password" validate:"required,password_strength"`
	Role     models.UserRole       `json:"role" validate:"required,registration_role"`
	SchoolID uint                  `json:"school_id" validate:"required"`
	Alumni   *AlumniProfileRequest `json:"alumni"`
}

// LoginRequest represents a credential login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// BulkRegisterRequest represents inviting many users at once. Emails holds one
// address per line, the way the paste-in form submits them.
type BulkRegisterRequest struct {
	Emails   string          `json:"emails" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,registration_role"`
	SchoolID uint            `json:"school_id" validate:"required"`
}

// ===== QUESTION REQUESTS =====

// QuestionCreateRequest represents adding a question to a school's set
type QuestionCreateRequest struct {
	Text     string  `json:"text" validate:"required,max=2000"`
	Duration float64 `json:"duration" validate:"required,question_duration"`
}

// QuestionUpdateRequest represents editing a question's text or duration
type QuestionUpdateRequest struct {
	Text     *string  `json:"text" validate:"omitempty,max=2000"`
	Duration *float64 `json:"duration" validate:"omitempty,question_duration"`
}

// QuestionReorderRequest carries the new position of every active question as a
// permutation of current orderings
type QuestionReorderRequest struct {
	Order []int `json:"order" validate:"required,min=1"`
}

// ===== VIDEO REQUESTS =====

// VideoCreateRequest represents an alumni starting a new recording session
type VideoCreateRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	CategoryIDs []uint `json:"category_ids"`
}

// VideoUpdateRequest represents editing a video's metadata, visibility or
// category labels
type VideoUpdateRequest struct {
	Title        *string `json:"title" validate:"omitempty,max=255"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	PublicAccess *bool   `json:"public_access"`
	CategoryIDs  *[]uint `json:"category_ids"`
}

// ClipUploadRequest carries the metadata accompanying a clip upload
type ClipUploadRequest struct {
	QuestionID uint    `form:"question_id" validate:"required"`
	Duration   float64 `form:"duration" validate:"omitempty,min=0"`
}

// ===== SCHOOL AND CATEGORY REQUESTS =====

// SchoolCreateRequest represents a super admin creating a school
type SchoolCreateRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// SchoolUpdateRequest represents renaming a school
type SchoolUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,max=200"`
}

// CategoryCreateRequest represents a super admin creating a category
type CategoryCreateRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CategoryUpdateRequest represents renaming a category
type CategoryUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,max=100"`
}
