package repositories

import (
	"context"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"gorm.io/gorm"
)

// VideoRepository interface for video and clip operations
type VideoRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, video *models.Video) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Video, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Video, error) // Include clips, categories, owner
	Update(ctx context.Context, tx *gorm.DB, video *models.Video) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters VideoFilters) ([]*models.Video, int64, error)
	GetBySchool(ctx context.Context, tx *gorm.DB, schoolID uint, filters VideoFilters) ([]*models.Video, int64, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Video, error)
	GetUnapproved(ctx context.Context, tx *gorm.DB, schoolID *uint) ([]*models.Video, error)

	// Category relationship
	ReplaceCategories(ctx context.Context, tx *gorm.DB, videoID uint, categoryIDs []uint) error

	// Clip operations
	CreateClip(ctx context.Context, tx *gorm.DB, clip *models.VideoClip) error
	GetClipByID(ctx context.Context, tx *gorm.DB, id uint) (*models.VideoClip, error)
	GetClipsByVideo(ctx context.Context, tx *gorm.DB, videoID uint) ([]*models.VideoClip, error)
	UpdateClip(ctx context.Context, tx *gorm.DB, clip *models.VideoClip) error
}

// CategoryRepository interface for category operations
type CategoryRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, category *models.Category) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error)
	Update(ctx context.Context, tx *gorm.DB, category *models.Category) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB) ([]*models.Category, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Category, error)

	// Validation
	ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error)
}
