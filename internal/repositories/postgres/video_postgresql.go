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

type VideoPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewVideoPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.VideoRepository {
	return &VideoPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (v *VideoPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return v.db
}

// ===== BASIC CRUD OPERATIONS =====

// Create creates a new video and invalidates cache
func (v *VideoPostgreSQL) Create(ctx context.Context, tx *gorm.DB, video *models.Video) error {
	db := v.getDB(tx)
	if err := db.WithContext(ctx).Create(video).Error; err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	cache.InvalidateVideoCache(ctx, v.cacheManager, video.ID)

	return nil
}

// GetByID retrieves a video by ID
func (v *VideoPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Video, error) {
	db := v.getDB(tx)
	var video models.Video
	if err := db.WithContext(ctx).First(&video, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("video not found with ID %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return &video, nil
}

// GetByIDWithDetails retrieves a video with clips, categories and owner loaded
func (v *VideoPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Video, error) {
	db := v.getDB(tx)
	var video models.Video
	if err := db.WithContext(ctx).
		Preload("Clips", func(db *gorm.DB) *gorm.DB {
			return db.Order("video_clips.id ASC")
		}).
		Preload("Clips.Question").
		Preload("Categories").
		Preload("User").
		First(&video, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("video not found with ID %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get video with details: %w", err)
	}
	return &video, nil
}

// Update updates a video
func (v *VideoPostgreSQL) Update(ctx context.Context, tx *gorm.DB, video *models.Video) error {
	db := v.getDB(tx)
	if err := db.WithContext(ctx).Omit("Clips", "Categories", "User").Save(video).Error; err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}

	cache.InvalidateVideoCache(ctx, v.cacheManager, video.ID)

	return nil
}

// Delete removes a video with its clips and category links
func (v *VideoPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := v.getDB(tx)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Where("video_id = ?", id).Delete(&models.VideoClip{}).Error; err != nil {
			return fmt.Errorf("failed to delete video clips: %w", err)
		}

		deleteCategories := `DELETE FROM video_categories WHERE video_id = ?`
		if err := tx.WithContext(ctx).Exec(deleteCategories, id).Error; err != nil {
			return fmt.Errorf("failed to delete video categories: %w", err)
		}

		if err := tx.WithContext(ctx).Delete(&models.Video{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete video: %w", err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	cache.InvalidateVideoCache(ctx, v.cacheManager, id)

	return nil
}

// ===== QUERY OPERATIONS =====

// List retrieves videos matching the filters with total count
func (v *VideoPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.VideoFilters) ([]*models.Video, int64, error) {
	db := v.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Video{})
	query = v.helpers.ApplyVideoFilters(query, filters)

	if filters.SchoolID != nil {
		query = query.
			Joins("JOIN users ON users.id = videos.user_id").
			Where("users.school_id = ?", *filters.SchoolID)
	}
	if len(filters.CategoryIDs) > 0 {
		query = query.
			Joins("JOIN video_categories vc ON vc.video_id = videos.id").
			Where("vc.category_id IN ?", filters.CategoryIDs).
			Distinct("videos.*")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count videos: %w", err)
	}

	query = v.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var videos []*models.Video
	if err := query.
		Preload("Clips").
		Preload("Categories").
		Preload("User").
		Find(&videos).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list videos: %w", err)
	}

	return videos, total, nil
}

// GetBySchool retrieves videos belonging to a school's users
func (v *VideoPostgreSQL) GetBySchool(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.VideoFilters) ([]*models.Video, int64, error) {
	filters.SchoolID = &schoolID
	return v.List(ctx, tx, filters)
}

// GetByUser retrieves all videos recorded by a user
func (v *VideoPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Video, error) {
	db := v.getDB(tx)
	var videos []*models.Video
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Clips").
		Preload("Categories").
		Order("created_at DESC").
		Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to get videos by user: %w", err)
	}
	return videos, nil
}

// GetUnapproved retrieves videos awaiting approval, optionally scoped to a school
func (v *VideoPostgreSQL) GetUnapproved(ctx context.Context, tx *gorm.DB, schoolID *uint) ([]*models.Video, error) {
	db := v.getDB(tx)
	query := db.WithContext(ctx).Where("videos.approved = ?", false)
	if schoolID != nil {
		query = query.
			Joins("JOIN users ON users.id = videos.user_id").
			Where("users.school_id = ?", *schoolID)
	}

	var videos []*models.Video
	if err := query.
		Preload("Clips").
		Preload("User").
		Order("videos.created_at ASC").
		Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to get unapproved videos: %w", err)
	}

	return videos, nil
}

// ===== CATEGORY RELATIONSHIP =====

// ReplaceCategories replaces a video's category set
func (v *VideoPostgreSQL) ReplaceCategories(ctx context.Context, tx *gorm.DB, videoID uint, categoryIDs []uint) error {
	db := v.getDB(tx)

	categories := make([]models.Category, len(categoryIDs))
	for i, id := range categoryIDs {
		categories[i] = models.Category{ID: id}
	}

	video := models.Video{ID: videoID}
	if err := db.WithContext(ctx).Model(&video).Association("Categories").Replace(categories); err != nil {
		return fmt.Errorf("failed to replace video categories: %w", err)
	}

	cache.InvalidateVideoCache(ctx, v.cacheManager, videoID)

	return nil
}

// ===== CLIP OPERATIONS =====

// CreateClip creates a new clip under a video
func (v *VideoPostgreSQL) CreateClip(ctx context.Context, tx *gorm.DB, clip *models.VideoClip) error {
	db := v.getDB(tx)
	if err := db.WithContext(ctx).Create(clip).Error; err != nil {
		return fmt.Errorf("failed to create video clip: %w", err)
	}

	cache.InvalidateVideoCache(ctx, v.cacheManager, clip.VideoID)

	return nil
}

// GetClipByID retrieves a clip by ID
func (v *VideoPostgreSQL) GetClipByID(ctx context.Context, tx *gorm.DB, id uint) (*models.VideoClip, error) {
	db := v.getDB(tx)
	var clip models.VideoClip
	if err := db.WithContext(ctx).First(&clip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("video clip not found with ID %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get video clip: %w", err)
	}
	return &clip, nil
}

// GetClipsByVideo retrieves all clips of a video in creation order
func (v *VideoPostgreSQL) GetClipsByVideo(ctx context.Context, tx *gorm.DB, videoID uint) ([]*models.VideoClip, error) {
	db := v.getDB(tx)
	var clips []*models.VideoClip
	if err := db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("id ASC").
		Find(&clips).Error; err != nil {
		return nil, fmt.Errorf("failed to get video clips: %w", err)
	}
	return clips, nil
}

// UpdateClip updates a clip
func (v *VideoPostgreSQL) UpdateClip(ctx context.Context, tx *gorm.DB, clip *models.VideoClip) error {
	db := v.getDB(tx)
	if err := db.WithContext(ctx).Save(clip).Error; err != nil {
		return fmt.Errorf("failed to update video clip: %w", err)
	}

	cache.InvalidateVideoCache(ctx, v.cacheManager, clip.VideoID)

	return nil
}
