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

type CategoryPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCategoryPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CategoryRepository {
	return &CategoryPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *CategoryPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// Create creates a new category
func (c *CategoryPostgreSQL) Create(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	cache.SafeDelete(ctx, c.cacheManager.Fast, "categories:all")

	return nil
}

// GetByID retrieves a category by ID
func (c *CategoryPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error) {
	db := c.getDB(tx)
	var category models.Category
	if err := db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category not found with ID %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

// Update updates a category
func (c *CategoryPostgreSQL) Update(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Save(category).Error; err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	cache.SafeDelete(ctx, c.cacheManager.Fast, "categories:all")

	return nil
}

// Delete removes a category and its video links
func (c *CategoryPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := c.getDB(tx)

	err := db.Transaction(func(tx *gorm.DB) error {
		deleteLinks := `DELETE FROM video_categories WHERE category_id = ?`
		if err := tx.WithContext(ctx).Exec(deleteLinks, id).Error; err != nil {
			return fmt.Errorf("failed to delete category links: %w", err)
		}

		if err := tx.WithContext(ctx).Delete(&models.Category{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	cache.SafeDelete(ctx, c.cacheManager.Fast, "categories:all")
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Video, "list:*")

	return nil
}

// List retrieves all categories with caching, sorted by name
func (c *CategoryPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Category, error) {
	db := c.getDB(tx)
	var categories []*models.Category

	err := c.cacheManager.Fast.CacheOrExecute(ctx, "categories:all", &categories, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbCategories []*models.Category
		if err := db.WithContext(ctx).Order("name ASC").Find(&dbCategories).Error; err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}
		return dbCategories, nil
	})

	if err != nil {
		return nil, err
	}

	return categories, nil
}

// GetByIDs retrieves multiple categories by their IDs
func (c *CategoryPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Category, error) {
	if len(ids) == 0 {
		return []*models.Category{}, nil
	}

	db := c.getDB(tx)
	var categories []*models.Category
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get categories by IDs: %w", err)
	}

	return categories, nil
}

// ExistsByName checks if a category with the given name already exists
func (c *CategoryPostgreSQL) ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error) {
	db := c.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}

	return count > 0, nil
}
