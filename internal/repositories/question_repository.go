package repositories

import (
	"context"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository interface for question-specific operations
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	UpdateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
	GetActiveBySchool(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.Question, error)
	GetActiveBySchoolForUpdate(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.Question, error)

	// Ordering
	GetMaxOrdering(ctx context.Context, tx *gorm.DB, schoolID uint) (int, error)

	// Validation
	IsAnswered(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}
