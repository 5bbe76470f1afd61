package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/careersfromhere/testimonial-service/internal/events"
	"github.com/careersfromhere/testimonial-service/internal/mail"
	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/validator"
	"gorm.io/gorm"
)

type videoService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	emailService   mail.EmailService
}

func NewVideoService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher, emailService mail.EmailService) VideoService {
	return &videoService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		emailService:   emailService,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *videoService) Create(ctx context.Context, req *CreateVideoRequest, actorID uint) (*VideoResponse, error) {
	s.logger.Info("Creating video", "actor_id", actorID)

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAlumni {
		return nil, NewPermissionError(actorID, 0, "video", "create", "only alumni record testimonials")
	}
	if !actor.Approved {
		return nil, ErrUserNotApproved
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.validateCategoryIDs(ctx, req.CategoryIDs); err != nil {
		return nil, err
	}

	video := &models.Video{
		Title:       req.Title,
		Description: req.Description,
		UserID:      actorID,
		Approved:    false,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Video().Create(ctx, nil, video); err != nil {
			return err
		}
		if len(req.CategoryIDs) > 0 {
			return txRepo.Video().ReplaceCategories(ctx, nil, video.ID, req.CategoryIDs)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}

	s.notifyUpload(ctx, actor, video)

	s.logger.Info("Video created successfully", "video_id", video.ID)

	return s.buildVideoResponse(video), nil
}

// notifyUpload tells the school's admins a new testimonial awaits review
func (s *videoService) notifyUpload(ctx context.Context, owner *models.User, video *models.Video) {
	var messages []*mail.Message
	if owner.Email != "" {
		messages = append(messages, mail.VideoReceivedMessage(owner.Email, owner.Name, video.Title))
	}
	role := models.RoleAdmin
	admins, _, err := s.repo.User().List(ctx, nil, repositories.UserFilters{SchoolID: &owner.SchoolID, Role: &role})
	if err != nil {
		s.logger.Warn("Failed to load school admins for notification", "school_id", owner.SchoolID, "error", err)
		admins = nil
	}
	for _, admin := range admins {
		messages = append(messages, mail.VideoUploadedMessage(admin.Email, admin.Name, owner.Name, video.Title))
	}
	if len(messages) > 0 {
		s.emailService.SendMessages(ctx, messages...)
	}
}

func (s *videoService) GetByID(ctx context.Context, id uint, actorID uint) (*VideoResponse, error) {
	video, err := s.repo.Video().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.guardVideoVisibility(actor, video); err != nil {
		return nil, err
	}

	return s.buildVideoResponse(video), nil
}

func (s *videoService) Update(ctx context.Context, id uint, req *UpdateVideoRequest, actorID uint) (*VideoResponse, error) {
	s.logger.Info("Updating video", "video_id", id, "actor_id", actorID)

	video, err := s.repo.Video().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.guardVideoWrite(actor, video, "update"); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	changed := false
	if req.Title != nil {
		video.Title = *req.Title
		changed = true
	}
	if req.Description != nil {
		video.Description = *req.Description
		changed = true
	}
	if req.PublicAccess != nil {
		video.PublicAccess = *req.PublicAccess
		changed = true
	}
	if changed {
		if err := s.repo.Video().Update(ctx, nil, video); err != nil {
			return nil, fmt.Errorf("failed to update video: %w", err)
		}
	}

	if req.CategoryIDs != nil {
		if err := s.validateCategoryIDs(ctx, *req.CategoryIDs); err != nil {
			return nil, err
		}
		if err := s.repo.Video().ReplaceCategories(ctx, nil, id, *req.CategoryIDs); err != nil {
			return nil, fmt.Errorf("failed to update video categories: %w", err)
		}
	}

	updated, err := s.repo.Video().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload video: %w", err)
	}

	s.logger.Info("Video updated successfully", "video_id", id)

	return s.buildVideoResponse(updated), nil
}

func (s *videoService) Delete(ctx context.Context, id uint, actorID uint) error {
	s.logger.Info("Deleting video", "video_id", id, "actor_id", actorID)

	video, err := s.repo.Video().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("failed to get video: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return err
	}
	if err := s.guardVideoWrite(actor, video, "delete"); err != nil {
		return err
	}

	if err := s.repo.Video().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	s.logger.Info("Video deleted successfully", "video_id", id)
	return nil
}

// ===== CLIP OPERATIONS =====

func (s *videoService) AddClip(ctx context.Context, videoID uint, req *AddClipRequest, actorID uint) (*ClipResponse, error) {
	s.logger.Info("Adding clip", "video_id", videoID, "question_id", req.QuestionID, "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	video, err := s.repo.Video().GetByIDWithDetails(ctx, nil, videoID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if video.UserID != actorID {
		return nil, NewPermissionError(actorID, videoID, "video", "record", "not the video owner")
	}

	question, err := s.repo.Question().GetByID(ctx, nil, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.SchoolID != actor.SchoolID {
		return nil, NewPermissionError(actorID, req.QuestionID, "question", "answer", "question belongs to another school")
	}
	if !question.Active {
		return nil, ErrQuestionInactive
	}

	clip := &models.VideoClip{
		VideoID:    videoID,
		QuestionID: req.QuestionID,
		VideoPath:  req.VideoPath,
		AudioPath:  req.AudioPath,
		Duration:   req.Duration,
	}
	if err := s.repo.Video().CreateClip(ctx, nil, clip); err != nil {
		return nil, fmt.Errorf("failed to create clip: %w", err)
	}

	s.logger.Info("Clip added successfully", "clip_id", clip.ID, "video_id", videoID)

	return &ClipResponse{VideoClip: clip}, nil
}

func (s *videoService) SetThumbnail(ctx context.Context, videoID uint, thumbnailPath string, actorID uint) (*VideoResponse, error) {
	s.logger.Info("Setting video thumbnail", "video_id", videoID, "actor_id", actorID)

	video, err := s.repo.Video().GetByIDWithDetails(ctx, nil, videoID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.guardVideoWrite(actor, video, "update"); err != nil {
		return nil, err
	}

	video.ThumbnailPath = thumbnailPath
	if err := s.repo.Video().Update(ctx, nil, video); err != nil {
		return nil, fmt.Errorf("failed to update video: %w", err)
	}

	return s.buildVideoResponse(video), nil
}

// ===== LIST OPERATIONS =====

func (s *videoService) List(ctx context.Context, filters repositories.VideoFilters, actorID uint) (*VideoListResponse, error) {
	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}

	// Everyone below super admin stays inside their own school; students and
	// alumni additionally only see approved work of others
	if actor.Role != models.RoleSuperAdmin {
		filters.SchoolID = &actor.SchoolID
	}
	if !actor.Role.HasAdminRights() {
		approved := true
		filters.Approved = &approved
	}

	videos, total, err := s.repo.Video().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}

	response := &VideoListResponse{
		Videos: make([]*VideoResponse, len(videos)),
		Total:  total,
		Page:   (filters.Offset / max(filters.Limit, 1)) + 1,
		Size:   filters.Limit,
	}
	for i, video := range videos {
		response.Videos[i] = s.buildVideoResponse(video)
	}

	return response, nil
}

// ListPublic returns approved videos their owners chose to share outside the
// school, for anonymous visitors.
func (s *videoService) ListPublic(ctx context.Context, filters repositories.VideoFilters) (*VideoListResponse, error) {
	approved := true
	public := true
	filters.Approved = &approved
	filters.Public = &public

	videos, total, err := s.repo.Video().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list public videos: %w", err)
	}

	response := &VideoListResponse{
		Videos: make([]*VideoResponse, len(videos)),
		Total:  total,
		Page:   (filters.Offset / max(filters.Limit, 1)) + 1,
		Size:   filters.Limit,
	}
	for i, video := range videos {
		response.Videos[i] = s.buildVideoResponse(video)
	}
	return response, nil
}

func (s *videoService) GetPending(ctx context.Context, actorID uint) ([]*VideoResponse, error) {
	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.HasAdminRights() {
		return nil, NewPermissionError(actorID, 0, "video", "list", "requires admin rights")
	}

	var schoolID *uint
	if actor.Role != models.RoleSuperAdmin {
		schoolID = &actor.SchoolID
	}

	videos, err := s.repo.Video().GetUnapproved(ctx, nil, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending videos: %w", err)
	}

	responses := make([]*VideoResponse, len(videos))
	for i, video := range videos {
		responses[i] = s.buildVideoResponse(video)
	}
	return responses, nil
}

// ===== APPROVAL WORKFLOW =====

// Approve marks a video as visible to students and queues the per-clip media
// enrichment. The approval itself never fails on enrichment problems; a queue
// failure only shows up in the response's skipped steps.
func (s *videoService) Approve(ctx context.Context, id uint, actorID uint) (*VideoResponse, error) {
	s.logger.Info("Approving video", "video_id", id, "actor_id", actorID)

	video, err := s.repo.Video().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := guardSchoolScope(actor, video.User.SchoolID, "video", id, "approve"); err != nil {
		return nil, err
	}

	if !video.Approved {
		video.Approved = true
		if err := s.repo.Video().Update(ctx, nil, video); err != nil {
			return nil, fmt.Errorf("failed to approve video: %w", err)
		}
	}

	response := s.buildVideoResponse(video)

	// Clips already carrying a published id are skipped by the worker, so
	// re-approving is harmless
	clipIDs := make([]uint, 0, len(video.Clips))
	for _, clip := range video.Clips {
		clipIDs = append(clipIDs, clip.ID)
	}

	event := events.NewEvent(events.EventTypeVideoApproved, &events.VideoApprovedEvent{
		VideoID:    video.ID,
		ClipIDs:    clipIDs,
		SchoolID:   video.User.SchoolID,
		OwnerID:    video.UserID,
		ApprovedBy: actorID,
	})
	if err := s.eventPublisher.Publish(ctx, events.TopicVideos, event); err != nil {
		s.logger.Error("Failed to queue video enrichment", "video_id", id, "error", err)
		response.SkippedSteps = append(response.SkippedSteps, "enrichment_queue")
	}

	s.logger.Info("Video approved successfully", "video_id", id, "clips", len(clipIDs))

	return response, nil
}

// ===== CATEGORY RANKING =====

// RankByCategories returns a school's approved videos ordered by how many of
// the requested categories each one carries. Videos with no matching category
// are cut from the tail; asking with no categories returns the list unranked.
func (s *videoService) RankByCategories(ctx context.Context, schoolID uint, categoryIDs []uint, actorID uint) ([]*VideoResponse, error) {
	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleSuperAdmin && actor.SchoolID != schoolID {
		return nil, NewPermissionError(actorID, 0, "video", "list", "videos belong to another school")
	}

	approved := true
	videos, _, err := s.repo.Video().GetBySchool(ctx, nil, schoolID, repositories.VideoFilters{Approved: &approved})
	if err != nil {
		return nil, fmt.Errorf("failed to get school videos: %w", err)
	}

	ranked := rankVideos(videos, categoryIDs)

	responses := make([]*VideoResponse, len(ranked))
	for i, rv := range ranked {
		response := s.buildVideoResponse(rv.video)
		response.MatchCount = rv.matches
		responses[i] = response
	}
	return responses, nil
}

type rankedVideo struct {
	video   *models.Video
	matches int
}

// rankVideos sorts descending by match count, keeping the stored order among
// equals, then drops the zero-match tail. An empty category selection leaves
// the list as is.
func rankVideos(videos []*models.Video, categoryIDs []uint) []rankedVideo {
	ranked := make([]rankedVideo, len(videos))
	for i, video := range videos {
		ranked[i] = rankedVideo{video: video, matches: video.MatchCount(categoryIDs)}
	}

	if len(categoryIDs) == 0 {
		return ranked
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].matches > ranked[j].matches
	})

	for len(ranked) > 0 && ranked[len(ranked)-1].matches == 0 {
		ranked = ranked[:len(ranked)-1]
	}

	return ranked
}

// ===== HELPER METHODS =====

func (s *videoService) buildVideoResponse(video *models.Video) *VideoResponse {
	return &VideoResponse{
		Video:         video,
		TotalDuration: video.Duration(),
	}
}

// guardVideoVisibility decides who may look at a video
func (s *videoService) guardVideoVisibility(actor *models.User, video *models.Video) error {
	if actor.Role == models.RoleSuperAdmin || video.UserID == actor.ID {
		return nil
	}
	if video.Approved && video.PublicAccess {
		return nil
	}
	if actor.SchoolID != video.User.SchoolID {
		return NewPermissionError(actor.ID, video.ID, "video", "read", "video belongs to another school")
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if !video.Approved {
		return NewPermissionError(actor.ID, video.ID, "video", "read", "video awaits approval")
	}
	return nil
}

// guardVideoWrite decides who may change or delete a video
func (s *videoService) guardVideoWrite(actor *models.User, video *models.Video, action string) error {
	if video.UserID == actor.ID {
		return nil
	}
	return guardSchoolScope(actor, video.User.SchoolID, "video", video.ID, action)
}

func (s *videoService) validateCategoryIDs(ctx context.Context, categoryIDs []uint) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	categories, err := s.repo.Category().GetByIDs(ctx, nil, categoryIDs)
	if err != nil {
		return fmt.Errorf("failed to get categories: %w", err)
	}
	if len(categories) != len(categoryIDs) {
		return ErrCategoryNotFound
	}
	return nil
}
