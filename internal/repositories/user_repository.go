package repositories

import (
	"context"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository interface for user operations
type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, users []*models.User) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	GetBySchool(ctx context.Context, tx *gorm.DB, schoolID uint, filters UserFilters) ([]*models.User, int64, error)
	GetUnapproved(ctx context.Context, tx *gorm.DB, schoolID *uint) ([]*models.User, error)

	// Validation
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *uint) (bool, error)
}
