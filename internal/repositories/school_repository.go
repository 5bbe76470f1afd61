package repositories

import (
	"context"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"gorm.io/gorm"
)

// SchoolRepository interface for school operations
type SchoolRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, school *models.School) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.School, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.School, error)
	Update(ctx context.Context, tx *gorm.DB, school *models.School) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters SchoolFilters) ([]*models.School, int64, error)

	// Validation
	ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error)

	// Statistics
	GetSchoolStats(ctx context.Context, tx *gorm.DB, id uint) (*SchoolStats, error)
}
