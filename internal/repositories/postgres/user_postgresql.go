package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/careersfromhere/testimonial-service/internal/cache"
	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (u *UserPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return u.db
}

// ===== BASIC CRUD OPERATIONS =====

// Create creates a new user and invalidates cache
func (u *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := u.getDB(tx)
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, u.cacheManager.User, "list:*")

	return nil
}

// GetByID retrieves a user by ID with caching
func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	db := u.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var user models.User

	err := u.cacheManager.User.CacheOrExecute(ctx, cacheKey, &user, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbUser models.User
		if err := db.WithContext(ctx).Preload("School").First(&dbUser, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("user not found with ID %d: %w", id, gorm.ErrRecordNotFound)
			}
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		return &dbUser, nil
	})

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetByEmail retrieves a user by email, used on the login path so no caching
func (u *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	db := u.getDB(tx)
	var user models.User
	if err := db.WithContext(ctx).Preload("School").Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found with email %q: %w", email, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// Update updates a user
func (u *UserPostgreSQL) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := u.getDB(tx)
	if err := db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	cache.InvalidateUserCache(ctx, u.cacheManager, user.ID)

	return nil
}

// Delete removes a user together with their videos
func (u *UserPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := u.getDB(tx)

	err := db.Transaction(func(tx *gorm.DB) error {
		deleteClips := `DELETE FROM video_clips WHERE video_id IN (SELECT id FROM videos WHERE user_id = ?)`
		if err := tx.WithContext(ctx).Exec(deleteClips, id).Error; err != nil {
			return fmt.Errorf("failed to delete user video clips: %w", err)
		}

		deleteVideoCategories := `DELETE FROM video_categories WHERE video_id IN (SELECT id FROM videos WHERE user_id = ?)`
		if err := tx.WithContext(ctx).Exec(deleteVideoCategories, id).Error; err != nil {
			return fmt.Errorf("failed to delete user video categories: %w", err)
		}

		if err := tx.WithContext(ctx).Where("user_id = ?", id).Delete(&models.Video{}).Error; err != nil {
			return fmt.Errorf("failed to delete user videos: %w", err)
		}

		if err := tx.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	cache.InvalidateUserCache(ctx, u.cacheManager, id)

	return nil
}

// ===== BULK OPERATIONS =====

// CreateBatch creates multiple users in a batch
func (u *UserPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}

	db := u.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(users, 100).Error; err != nil {
		return fmt.Errorf("failed to create users batch: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, u.cacheManager.User, "list:*")

	return nil
}

// ===== QUERY OPERATIONS =====

// List retrieves users matching the filters with total count
func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	db := u.getDB(tx)
	query := db.WithContext(ctx).Model(&models.User{})
	query = u.helpers.ApplyUserFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = u.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var users []*models.User
	if err := query.Preload("School").Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// GetBySchool retrieves users belonging to a school
func (u *UserPostgreSQL) GetBySchool(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filters.SchoolID = &schoolID
	return u.List(ctx, tx, filters)
}

// GetUnapproved retrieves users awaiting approval, optionally scoped to a school
func (u *UserPostgreSQL) GetUnapproved(ctx context.Context, tx *gorm.DB, schoolID *uint) ([]*models.User, error) {
	db := u.getDB(tx)
	query := db.WithContext(ctx).Where("approved = ?", false)
	if schoolID != nil {
		query = query.Where("school_id = ?", *schoolID)
	}

	var users []*models.User
	if err := query.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get unapproved users: %w", err)
	}

	return users, nil
}

// ===== VALIDATION =====

// ExistsByEmail checks if a user with the given email already exists
func (u *UserPostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *uint) (bool, error) {
	db := u.getDB(tx)
	query := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user email: %w", err)
	}

	return count > 0, nil
}
