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

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionService) Create(ctx context.Context, schoolID uint, req *CreateQuestionRequest, actorID uint) (*QuestionResponse, error) {
	s.logger.Info("Creating question", "school_id", schoolID, "actor_id", actorID)

	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := guardSchoolScope(actor, schoolID, "question", 0, "create"); err != nil {
		return nil, err
	}

	if _, err := s.repo.School().GetByID(ctx, nil, schoolID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to get school: %w", err)
	}

	// New questions go to the end of the active set
	question := &models.Question{
		Text:     req.Text,
		Duration: req.Duration,
		Active:   true,
		SchoolID: schoolID,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		max, err := txRepo.Question().GetMaxOrdering(ctx, nil, schoolID)
		if err != nil {
			return err
		}
		question.Ordering = max + 1
		return txRepo.Question().Create(ctx, nil, question)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created successfully", "question_id", question.ID, "ordering", question.Ordering)

	return s.buildQuestionResponse(ctx, question), nil
}

func (s *questionService) GetByID(ctx context.Context, id uint, actorID uint) (*QuestionResponse, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleSuperAdmin && actor.SchoolID != question.SchoolID {
		return nil, NewPermissionError(actorID, id, "question", "read", "question belongs to another school")
	}

	return s.buildQuestionResponse(ctx, question), nil
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, actorID uint) (*QuestionResponse, error) {
	s.logger.Info("Updating question", "question_id", id, "actor_id", actorID)

	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := guardSchoolScope(actor, question.SchoolID, "question", id, "update"); err != nil {
		return nil, err
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Duration != nil {
		question.Duration = *req.Duration
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.logger.Info("Question updated successfully", "question_id", id)

	return s.buildQuestionResponse(ctx, question), nil
}

// ===== LIST OPERATIONS =====

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters, actorID uint) (*QuestionListResponse, error) {
	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.HasAdminRights() {
		return nil, NewPermissionError(actorID, 0, "question", "list", "requires admin rights")
	}

	// Admins only see their own school
	if actor.Role != models.RoleSuperAdmin {
		filters.SchoolID = &actor.SchoolID
	}

	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	response := &QuestionListResponse{
		Questions: make([]*QuestionResponse, len(questions)),
		Total:     total,
		Page:      (filters.Offset / max(filters.Limit, 1)) + 1,
		Size:      filters.Limit,
	}
	for i, question := range questions {
		response.Questions[i] = s.buildQuestionResponse(ctx, question)
	}

	return response, nil
}

func (s *questionService) ListActive(ctx context.Context, schoolID uint, actorID uint) ([]*QuestionResponse, error) {
	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleSuperAdmin && actor.SchoolID != schoolID {
		return nil, NewPermissionError(actorID, 0, "question", "list", "questions belong to another school")
	}

	questions, err := s.repo.Question().GetActiveBySchool(ctx, nil, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active questions: %w", err)
	}

	responses := make([]*QuestionResponse, len(questions))
	for i, question := range questions {
		responses[i] = &QuestionResponse{Question: question}
	}

	return responses, nil
}

// ===== ORDERING OPERATIONS =====

// Deactivate takes a question out of the active set and closes the ordering
// gap it leaves behind
func (s *questionService) Deactivate(ctx context.Context, id uint, actorID uint) error {
	s.logger.Info("Deactivating question", "question_id", id, "actor_id", actorID)

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return err
	}
	if err := guardSchoolScope(actor, question.SchoolID, "question", id, "deactivate"); err != nil {
		return err
	}

	if !question.Active {
		return ErrQuestionInactive
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		active, err := txRepo.Question().GetActiveBySchoolForUpdate(ctx, nil, question.SchoolID)
		if err != nil {
			return err
		}

		remaining := make([]*models.Question, 0, len(active))
		var target *models.Question
		for _, q := range active {
			if q.ID == id {
				target = q
				continue
			}
			remaining = append(remaining, q)
		}
		if target == nil {
			return ErrQuestionNotFound
		}

		target.Active = false
		target.Ordering = 0
		if err := txRepo.Question().Update(ctx, nil, target); err != nil {
			return err
		}

		changed := reindexQuestions(remaining)
		return txRepo.Question().UpdateBatch(ctx, nil, changed)
	})
	if err != nil {
		return fmt.Errorf("failed to deactivate question: %w", err)
	}

	s.logger.Info("Question deactivated successfully", "question_id", id)
	return nil
}

// Reorder rearranges a school's active questions. The order slice lists, for
// each target position, the current 1-based position of the question that
// should move there. On any validation failure the ordering stays untouched.
func (s *questionService) Reorder(ctx context.Context, schoolID uint, order []int, actorID uint) ([]*QuestionResponse, error) {
	s.logger.Info("Reordering questions", "school_id", schoolID, "actor_id", actorID)

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := guardSchoolScope(actor, schoolID, "question", 0, "reorder"); err != nil {
		return nil, err
	}

	var reordered []*models.Question
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		active, err := txRepo.Question().GetActiveBySchoolForUpdate(ctx, nil, schoolID)
		if err != nil {
			return err
		}

		if errors := s.validator.GetBusinessValidator().ValidatePermutation(order, len(active)); len(errors) > 0 {
			return errors
		}

		reordered = make([]*models.Question, len(active))
		for i, pos := range order {
			reordered[i] = active[pos-1]
		}

		changed := reindexQuestions(reordered)
		return txRepo.Question().UpdateBatch(ctx, nil, changed)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Questions reordered successfully", "school_id", schoolID, "count", len(reordered))

	responses := make([]*QuestionResponse, len(reordered))
	for i, question := range reordered {
		responses[i] = &QuestionResponse{Question: question}
	}
	return responses, nil
}

// ===== HELPER METHODS =====

func (s *questionService) buildQuestionResponse(ctx context.Context, question *models.Question) *QuestionResponse {
	answered, err := s.repo.Question().IsAnswered(ctx, nil, question.ID)
	if err != nil {
		s.logger.Warn("Failed to check question usage", "question_id", question.ID, "error", err)
	}

	return &QuestionResponse{
		Question: question,
		Answered: answered,
	}
}
