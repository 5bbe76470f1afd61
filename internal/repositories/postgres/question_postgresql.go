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
	"gorm.io/gorm/clause"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

// ===== BASIC CRUD OPERATIONS =====

// Create creates a new question and invalidates cache
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, fmt.Sprintf("school:%d:*", question.SchoolID))
	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, "list:*")

	return nil
}

// GetByID retrieves a question by ID with caching
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).First(&dbQuestion, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("question not found with ID %d: %w", id, gorm.ErrRecordNotFound)
			}
			return nil, fmt.Errorf("failed to get question: %w", err)
		}
		return &dbQuestion, nil
	})

	if err != nil {
		return nil, err
	}

	return &question, nil
}

// Update updates a question
func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.ID, question.SchoolID)

	return nil
}

// ===== BULK OPERATIONS =====

// CreateBatch creates multiple questions in a batch
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := q.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions batch: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, fmt.Sprintf("school:%d:*", questions[0].SchoolID))

	return nil
}

// UpdateBatch updates multiple questions in a batch
func (q *QuestionPostgreSQL) UpdateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(questions).Error; err != nil {
		return fmt.Errorf("failed to update questions: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, fmt.Sprintf("school:%d:*", questions[0].SchoolID))
	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, "list:*")

	return nil
}

// ===== QUERY OPERATIONS =====

// List retrieves questions matching the filters with total count
func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Question{})

	if filters.SchoolID != nil {
		query = query.Where("school_id = ?", *filters.SchoolID)
	}
	if filters.Active != nil {
		query = query.Where("active = ?", *filters.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var questions []*models.Question
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

// GetActiveBySchool retrieves a school's active questions in display order
func (q *QuestionPostgreSQL) GetActiveBySchool(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("school:%d:active", schoolID)
	var questions []*models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &questions, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestions []*models.Question
		if err := db.WithContext(ctx).
			Where("school_id = ? AND active = ?", schoolID, true).
			Order("ordering ASC").
			Find(&dbQuestions).Error; err != nil {
			return nil, fmt.Errorf("failed to get active questions: %w", err)
		}
		return dbQuestions, nil
	})

	if err != nil {
		return nil, err
	}

	return questions, nil
}

// GetActiveBySchoolForUpdate locks the school's active question rows for the
// duration of the surrounding transaction
func (q *QuestionPostgreSQL) GetActiveBySchoolForUpdate(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.Question, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("school_id = ? AND active = ?", schoolID, true).
		Order("ordering ASC").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to lock active questions: %w", err)
	}
	return questions, nil
}

// ===== ORDERING =====

// GetMaxOrdering returns the highest ordering among a school's active questions,
// zero when the school has none
func (q *QuestionPostgreSQL) GetMaxOrdering(ctx context.Context, tx *gorm.DB, schoolID uint) (int, error) {
	db := q.getDB(tx)
	var max int
	err := db.WithContext(ctx).
		Model(&models.Question{}).
		Select("COALESCE(MAX(ordering), 0)").
		Where("school_id = ? AND active = ?", schoolID, true).
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get max ordering: %w", err)
	}
	return max, nil
}

// ===== VALIDATION =====

// IsAnswered checks if any clip was recorded against this question
func (q *QuestionPostgreSQL) IsAnswered(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := q.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.VideoClip{}).
		Where("question_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check question usage: %w", err)
	}
	return count > 0, nil
}
