package services

import (
	"context"
	"io"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateUserRequest = validator.UserCreateRequest
type UpdateUserRequest = validator.UserUpdateRequest
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type BulkRegisterRequest = validator.BulkRegisterRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type CreateVideoRequest = validator.VideoCreateRequest
type UpdateVideoRequest = validator.VideoUpdateRequest
type CreateSchoolRequest = validator.SchoolCreateRequest
type UpdateSchoolRequest = validator.SchoolUpdateRequest
type CreateCategoryRequest = validator.CategoryCreateRequest
type UpdateCategoryRequest = validator.CategoryUpdateRequest

type UserResponse struct {
	*models.User
	// GeneratedPassword is only set right after an invitation created the
	// account with a random password
	GeneratedPassword string `json:"generated_password,omitempty"`
}

type UserListResponse struct {
	Users []*UserResponse `json:"users"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

type BulkRegisterResult struct {
	Created []*UserResponse `json:"created"`
	Skipped []string        `json:"skipped"` // already registered
	Invalid []string        `json:"invalid"` // malformed addresses
}

type QuestionResponse struct {
	*models.Question
	Answered bool `json:"answered"`
}

type QuestionListResponse struct {
	Questions []*QuestionResponse `json:"questions"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	Size      int                 `json:"size"`
}

// AddClipRequest records an uploaded clip against a question. VideoPath and
// AudioPath are where the upload handler stored the raw file pair; AudioPath
// is empty when no separate audio track was uploaded.
type AddClipRequest struct {
	QuestionID uint    `json:"question_id" validate:"required"`
	VideoPath  string  `json:"video_path" validate:"required"`
	AudioPath  string  `json:"audio_path"`
	Duration   float64 `json:"duration" validate:"omitempty,min=0"`
}

type VideoResponse struct {
	*models.Video
	TotalDuration float64 `json:"total_duration"`
	// MatchCount is only set on category ranking results
	MatchCount int `json:"match_count,omitempty"`
	// SkippedSteps names external enrichment steps that could not run during
	// an approval, one entry per clip and step
	SkippedSteps []string `json:"skipped_steps,omitempty"`
}

type VideoListResponse struct {
	Videos []*VideoResponse `json:"videos"`
	Total  int64            `json:"total"`
	Page   int              `json:"page"`
	Size   int              `json:"size"`
}

type ClipResponse struct {
	*models.VideoClip
}

type SchoolResponse struct {
	*models.School
	// SeededQuestions counts questions copied from the default school at
	// creation time
	SeededQuestions int `json:"seeded_questions,omitempty"`
}

type SchoolListResponse struct {
	Schools []*SchoolResponse `json:"schools"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

// ===== SERVICE INTERFACES =====

type SchoolService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateSchoolRequest, actorID uint) (*SchoolResponse, error)
	GetByID(ctx context.Context, id uint, actorID uint) (*SchoolResponse, error)
	Update(ctx context.Context, id uint, req *UpdateSchoolRequest, actorID uint) (*SchoolResponse, error)
	Delete(ctx context.Context, id uint, actorID uint) error

	// List operations
	List(ctx context.Context, filters repositories.SchoolFilters, actorID uint) (*SchoolListResponse, error)

	// ListPublic serves the registration form dropdown, no authentication
	ListPublic(ctx context.Context) ([]*models.School, error)

	// Statistics
	GetStats(ctx context.Context, id uint, actorID uint) (*repositories.SchoolStats, error)
}

type UserService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateUserRequest, actorID uint) (*UserResponse, error)
	GetByID(ctx context.Context, id uint, actorID uint) (*UserResponse, error)
	Update(ctx context.Context, id uint, req *UpdateUserRequest, actorID uint) (*UserResponse, error)
	Delete(ctx context.Context, id uint, actorID uint) error

	// List operations
	List(ctx context.Context, filters repositories.UserFilters, actorID uint) (*UserListResponse, error)
	GetPending(ctx context.Context, actorID uint) ([]*UserResponse, error)

	// Approval workflow
	Approve(ctx context.Context, id uint, actorID uint) (*UserResponse, error)

	// Invitations
	BulkRegister(ctx context.Context, req *BulkRegisterRequest, actorID uint) (*BulkRegisterResult, error)
	BulkRegisterSheet(ctx context.Context, sheet io.Reader, role models.UserRole, schoolID uint, actorID uint) (*BulkRegisterResult, error)

	// Public operations
	Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error)
	Authenticate(ctx context.Context, req *LoginRequest) (*models.User, error)
}

type QuestionService interface {
	// Core CRUD operations
	Create(ctx context.Context, schoolID uint, req *CreateQuestionRequest, actorID uint) (*QuestionResponse, error)
	GetByID(ctx context.Context, id uint, actorID uint) (*QuestionResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, actorID uint) (*QuestionResponse, error)

	// List operations
	List(ctx context.Context, filters repositories.QuestionFilters, actorID uint) (*QuestionListResponse, error)
	ListActive(ctx context.Context, schoolID uint, actorID uint) ([]*QuestionResponse, error)

	// Ordering operations
	Deactivate(ctx context.Context, id uint, actorID uint) error
	Reorder(ctx context.Context, schoolID uint, order []int, actorID uint) ([]*QuestionResponse, error)
}

type VideoService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateVideoRequest, actorID uint) (*VideoResponse, error)
	GetByID(ctx context.Context, id uint, actorID uint) (*VideoResponse, error)
	Update(ctx context.Context, id uint, req *UpdateVideoRequest, actorID uint) (*VideoResponse, error)
	Delete(ctx context.Context, id uint, actorID uint) error

	// Clip operations
	AddClip(ctx context.Context, videoID uint, req *AddClipRequest, actorID uint) (*ClipResponse, error)

	// SetThumbnail records the stored thumbnail path on a video
	SetThumbnail(ctx context.Context, videoID uint, thumbnailPath string, actorID uint) (*VideoResponse, error)

	// List operations
	List(ctx context.Context, filters repositories.VideoFilters, actorID uint) (*VideoListResponse, error)
	GetPending(ctx context.Context, actorID uint) ([]*VideoResponse, error)

	// ListPublic serves approved, publicly shared videos to anonymous visitors
	ListPublic(ctx context.Context, filters repositories.VideoFilters) (*VideoListResponse, error)

	// Approval workflow
	Approve(ctx context.Context, id uint, actorID uint) (*VideoResponse, error)

	// Category ranking
	RankByCategories(ctx context.Context, schoolID uint, categoryIDs []uint, actorID uint) ([]*VideoResponse, error)
}

type CategoryService interface {
	Create(ctx context.Context, req *CreateCategoryRequest, actorID uint) (*models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Update(ctx context.Context, id uint, req *UpdateCategoryRequest, actorID uint) (*models.Category, error)
	Delete(ctx context.Context, id uint, actorID uint) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	School() SchoolService
	User() UserService
	Question() QuestionService
	Video() VideoService
	Category() CategoryService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
