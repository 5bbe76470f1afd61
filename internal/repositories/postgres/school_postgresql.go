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

type SchoolPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewSchoolPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.SchoolRepository {
	return &SchoolPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *SchoolPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// ===== BASIC CRUD OPERATIONS =====

// Create creates a new school and invalidates cache
func (s *SchoolPostgreSQL) Create(ctx context.Context, tx *gorm.DB, school *models.School) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Create(school).Error; err != nil {
		return fmt.Errorf("failed to create school: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, s.cacheManager.School, "list:*")

	return nil
}

// GetByID retrieves a school by ID with caching
func (s *SchoolPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.School, error) {
	db := s.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var school models.School

	err := s.cacheManager.School.CacheOrExecute(ctx, cacheKey, &school, cache.SchoolCacheConfig.TTL, func() (interface{}, error) {
		var dbSchool models.School
		if err := db.WithContext(ctx).First(&dbSchool, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("school not found with ID %d: %w", id, gorm.ErrRecordNotFound)
			}
			return nil, fmt.Errorf("failed to get school: %w", err)
		}
		return &dbSchool, nil
	})

	if err != nil {
		return nil, err
	}

	return &school, nil
}

// GetByName retrieves a school by its unique name
func (s *SchoolPostgreSQL) GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.School, error) {
	db := s.getDB(tx)
	var school models.School
	if err := db.WithContext(ctx).Where("name = ?", name).First(&school).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("school not found with name %q: %w", name, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get school by name: %w", err)
	}
	return &school, nil
}

// Update updates a school
func (s *SchoolPostgreSQL) Update(ctx context.Context, tx *gorm.DB, school *models.School) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Save(school).Error; err != nil {
		return fmt.Errorf("failed to update school: %w", err)
	}

	cache.InvalidateSchoolCache(ctx, s.cacheManager, school.ID)

	return nil
}

// Delete removes a school and everything scoped to it
func (s *SchoolPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := s.getDB(tx)

	err := db.Transaction(func(tx *gorm.DB) error {
		// Clips and category links hang off videos owned by the school's users
		deleteClips := `DELETE FROM video_clips WHERE video_id IN
			(SELECT v.id FROM videos v JOIN users u ON v.user_id = u.id WHERE u.school_id = ?)`
		if err := tx.WithContext(ctx).Exec(deleteClips, id).Error; err != nil {
			return fmt.Errorf("failed to delete school video clips: %w", err)
		}

		deleteVideoCategories := `DELETE FROM video_categories WHERE video_id IN
			(SELECT v.id FROM videos v JOIN users u ON v.user_id = u.id WHERE u.school_id = ?)`
		if err := tx.WithContext(ctx).Exec(deleteVideoCategories, id).Error; err != nil {
			return fmt.Errorf("failed to delete school video categories: %w", err)
		}

		deleteVideos := `DELETE FROM videos WHERE user_id IN (SELECT id FROM users WHERE school_id = ?)`
		if err := tx.WithContext(ctx).Exec(deleteVideos, id).Error; err != nil {
			return fmt.Errorf("failed to delete school videos: %w", err)
		}

		if err := tx.WithContext(ctx).Where("school_id = ?", id).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("failed to delete school users: %w", err)
		}

		if err := tx.WithContext(ctx).Where("school_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return fmt.Errorf("failed to delete school questions: %w", err)
		}

		if err := tx.WithContext(ctx).Delete(&models.School{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete school: %w", err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	cache.InvalidateSchoolCache(ctx, s.cacheManager, id)

	return nil
}

// ===== QUERY OPERATIONS =====

// List retrieves schools matching the filters with total count
func (s *SchoolPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SchoolFilters) ([]*models.School, int64, error) {
	db := s.getDB(tx)
	query := db.WithContext(ctx).Model(&models.School{})

	if filters.Name != nil {
		query = query.Where("name ILIKE ?", "%"+*filters.Name+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count schools: %w", err)
	}

	query = s.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var schools []*models.School
	if err := query.Find(&schools).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list schools: %w", err)
	}

	return schools, total, nil
}

// ===== VALIDATION =====

// ExistsByName checks if a school with the given name already exists
func (s *SchoolPostgreSQL) ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error) {
	db := s.getDB(tx)
	query := db.WithContext(ctx).Model(&models.School{}).Where("name = ?", name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check school name: %w", err)
	}

	return count > 0, nil
}

// ===== STATISTICS =====

// GetSchoolStats aggregates counts for the admin dashboard
func (s *SchoolPostgreSQL) GetSchoolStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.SchoolStats, error) {
	db := s.getDB(tx)
	stats := &repositories.SchoolStats{}

	type countRow struct {
		Total   int
		Flagged int
	}

	var users countRow
	err := db.WithContext(ctx).Model(&models.User{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE NOT approved) AS flagged").
		Where("school_id = ?", id).
		Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count school users: %w", err)
	}
	stats.UserCount = users.Total
	stats.PendingUsers = users.Flagged

	var questions countRow
	err = db.WithContext(ctx).Model(&models.Question{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE active) AS flagged").
		Where("school_id = ?", id).
		Scan(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count school questions: %w", err)
	}
	stats.QuestionCount = questions.Total
	stats.ActiveQuestions = questions.Flagged

	var videos countRow
	err = db.WithContext(ctx).Model(&models.Video{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE approved) AS flagged").
		Joins("JOIN users ON users.id = videos.user_id").
		Where("users.school_id = ?", id).
		Scan(&videos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count school videos: %w", err)
	}
	stats.VideoCount = videos.Total
	stats.ApprovedVideos = videos.Flagged

	return stats, nil
}
