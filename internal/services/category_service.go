package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/validator"
	"gorm.io/gorm"
)

// Categories are a global vocabulary shared by every school, so mutations are
// super admin operations while reads are open to any authenticated user.
type categoryService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCategoryService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) CategoryService {
	return &categoryService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *categoryService) Create(ctx context.Context, req *CreateCategoryRequest, actorID uint) (*models.Category, error) {
	s.logger.Info("Creating category", "name", req.Name, "actor_id", actorID)

	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	if err := s.guardSuperAdmin(ctx, actorID, 0, "create"); err != nil {
		return nil, err
	}

	exists, err := s.repo.Category().ExistsByName(ctx, nil, req.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}
	if exists {
		return nil, ErrCategoryNameTaken
	}

	category := &models.Category{Name: req.Name}
	if err := s.repo.Category().Create(ctx, nil, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info("Category created successfully", "category_id", category.ID)

	return category, nil
}

func (s *categoryService) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.repo.Category().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.repo.Category().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) Update(ctx context.Context, id uint, req *UpdateCategoryRequest, actorID uint) (*models.Category, error) {
	s.logger.Info("Updating category", "category_id", id, "actor_id", actorID)

	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	if err := s.guardSuperAdmin(ctx, actorID, id, "update"); err != nil {
		return nil, err
	}

	category, err := s.repo.Category().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	if req.Name != nil && *req.Name != category.Name {
		exists, err := s.repo.Category().ExistsByName(ctx, nil, *req.Name, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to check category name: %w", err)
		}
		if exists {
			return nil, ErrCategoryNameTaken
		}
		category.Name = *req.Name
	}

	if err := s.repo.Category().Update(ctx, nil, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.logger.Info("Category updated successfully", "category_id", category.ID)

	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id uint, actorID uint) error {
	s.logger.Info("Deleting category", "category_id", id, "actor_id", actorID)

	if err := s.guardSuperAdmin(ctx, actorID, id, "delete"); err != nil {
		return err
	}

	if _, err := s.repo.Category().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to get category: %w", err)
	}

	if err := s.repo.Category().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.logger.Info("Category deleted successfully", "category_id", id)

	return nil
}

func (s *categoryService) guardSuperAdmin(ctx context.Context, actorID uint, resourceID uint, action string) error {
	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleSuperAdmin {
		return NewPermissionError(actorID, resourceID, "category", action, "requires super admin rights")
	}
	return nil
}
