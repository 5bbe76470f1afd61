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

type schoolService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewSchoolService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) SchoolService {
	return &schoolService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

// Create adds a school and seeds its question set from the default school's
// active questions
func (s *schoolService) Create(ctx context.Context, req *CreateSchoolRequest, actorID uint) (*SchoolResponse, error) {
	s.logger.Info("Creating school", "name", req.Name, "actor_id", actorID)

	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	if err := s.guardSuperAdmin(ctx, actorID, "school", 0, "create"); err != nil {
		return nil, err
	}

	exists, err := s.repo.School().ExistsByName(ctx, nil, req.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check school name: %w", err)
	}
	if exists {
		return nil, ErrSchoolNameTaken
	}

	school := &models.School{Name: req.Name}
	seeded := 0

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.School().Create(ctx, nil, school); err != nil {
			return fmt.Errorf("failed to create school: %w", err)
		}

		if school.Name == models.DefaultSchoolName {
			return nil
		}

		template, err := txRepo.School().GetByName(ctx, nil, models.DefaultSchoolName)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				s.logger.Warn("Default school missing, created school without seeded questions", "school_id", school.ID)
				return nil
			}
			return fmt.Errorf("failed to get default school: %w", err)
		}

		questions, err := txRepo.Question().GetActiveBySchool(ctx, nil, template.ID)
		if err != nil {
			return fmt.Errorf("failed to get template questions: %w", err)
		}
		if len(questions) == 0 {
			return nil
		}

		copies := make([]*models.Question, len(questions))
		for i, q := range questions {
			copies[i] = &models.Question{
				Text:     q.Text,
				Duration: q.Duration,
				Active:   true,
				Ordering: q.Ordering,
				SchoolID: school.ID,
			}
		}
		if err := txRepo.Question().CreateBatch(ctx, nil, copies); err != nil {
			return fmt.Errorf("failed to seed questions: %w", err)
		}
		seeded = len(copies)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("School created successfully", "school_id", school.ID, "seeded_questions", seeded)

	return &SchoolResponse{School: school, SeededQuestions: seeded}, nil
}

func (s *schoolService) GetByID(ctx context.Context, id uint, actorID uint) (*SchoolResponse, error) {
	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := guardSchoolScope(actor, id, "school", id, "read"); err != nil {
		return nil, err
	}

	school, err := s.repo.School().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to get school: %w", err)
	}

	return &SchoolResponse{School: school}, nil
}

func (s *schoolService) Update(ctx context.Context, id uint, req *UpdateSchoolRequest, actorID uint) (*SchoolResponse, error) {
	s.logger.Info("Updating school", "school_id", id, "actor_id", actorID)

	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	if err := s.guardSuperAdmin(ctx, actorID, "school", id, "update"); err != nil {
		return nil, err
	}

	school, err := s.repo.School().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to get school: %w", err)
	}

	if req.Name != nil && *req.Name != school.Name {
		// The default school keeps its name so seeding can find it
		if school.Name == models.DefaultSchoolName {
			return nil, NewBusinessRuleError("default_school", "the default school cannot be renamed")
		}
		exists, err := s.repo.School().ExistsByName(ctx, nil, *req.Name, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to check school name: %w", err)
		}
		if exists {
			return nil, ErrSchoolNameTaken
		}
		school.Name = *req.Name
	}

	if err := s.repo.School().Update(ctx, nil, school); err != nil {
		return nil, fmt.Errorf("failed to update school: %w", err)
	}

	s.logger.Info("School updated successfully", "school_id", school.ID)

	return &SchoolResponse{School: school}, nil
}

// Delete removes a school and everything scoped to it
func (s *schoolService) Delete(ctx context.Context, id uint, actorID uint) error {
	s.logger.Info("Deleting school", "school_id", id, "actor_id", actorID)

	if err := s.guardSuperAdmin(ctx, actorID, "school", id, "delete"); err != nil {
		return err
	}

	school, err := s.repo.School().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSchoolNotFound
		}
		return fmt.Errorf("failed to get school: %w", err)
	}
	if school.Name == models.DefaultSchoolName {
		return NewBusinessRuleError("default_school", "the default school cannot be deleted")
	}

	if err := s.repo.School().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete school: %w", err)
	}

	s.logger.Info("School deleted successfully", "school_id", id)

	return nil
}

// ===== LIST OPERATIONS =====

func (s *schoolService) List(ctx context.Context, filters repositories.SchoolFilters, actorID uint) (*SchoolListResponse, error) {
	if err := s.guardSuperAdmin(ctx, actorID, "school", 0, "list"); err != nil {
		return nil, err
	}

	schools, total, err := s.repo.School().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}

	response := &SchoolListResponse{
		Schools: make([]*SchoolResponse, len(schools)),
		Total:   total,
		Page:    (filters.Offset / max(filters.Limit, 1)) + 1,
		Size:    filters.Limit,
	}
	for i, school := range schools {
		response.Schools[i] = &SchoolResponse{School: school}
	}

	return response, nil
}

func (s *schoolService) ListPublic(ctx context.Context) ([]*models.School, error) {
	schools, _, err := s.repo.School().List(ctx, nil, repositories.SchoolFilters{
		SortBy:    "name",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	return schools, nil
}

// ===== STATISTICS =====

func (s *schoolService) GetStats(ctx context.Context, id uint, actorID uint) (*repositories.SchoolStats, error) {
	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := guardSchoolScope(actor, id, "school", id, "read_stats"); err != nil {
		return nil, err
	}

	stats, err := s.repo.School().GetSchoolStats(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to get school stats: %w", err)
	}

	return stats, nil
}

// guardSuperAdmin restricts school management to the super admin role
func (s *schoolService) guardSuperAdmin(ctx context.Context, actorID uint, resource string, resourceID uint, action string) error {
	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleSuperAdmin {
		return NewPermissionError(actorID, resourceID, resource, action, "requires super admin rights")
	}
	return nil
}
