package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/careersfromhere/testimonial-service/internal/events"
	"github.com/careersfromhere/testimonial-service/internal/mail"
	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/validator"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type userService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	emailService   mail.EmailService
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher, emailService mail.EmailService) UserService {
	return &userService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		emailService:   emailService,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *userService) Create(ctx context.Context, req *CreateUserRequest, actorID uint) (*UserResponse, error) {
	s.logger.Info("Creating user", "email", req.Email, "role", req.Role, "actor_id", actorID)

	if errors := s.validator.GetBusinessValidator().ValidateUserCreate(req); len(errors) > 0 {
		return nil, errors
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := guardSchoolScope(actor, req.SchoolID, "user", 0, "create"); err != nil {
		return nil, err
	}
	// Admin and super admin accounts are minted by super admins only
	if req.Role.HasAdminRights() && actor.Role != models.RoleSuperAdmin {
		return nil, NewPermissionError(actorID, 0, "user", "create", "only super admins create admin accounts")
	}

	school, err := s.repo.School().GetByID(ctx, nil, req.SchoolID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to get school: %w", err)
	}

	exists, err := s.repo.User().ExistsByEmail(ctx, nil, req.Email, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	user := &models.User{
		Name:     req.Name,
		Email:    strings.ToLower(req.Email),
		Role:     req.Role,
		SchoolID: req.SchoolID,
		Approved: req.Approved,
	}
	if req.Role == models.RoleAlumni {
		user.Alumni = datatypes.NewJSONType(alumniFromRequest(req.Alumni))
	}

	response := &UserResponse{User: user}
	switch req.Password.Mode {
	case validator.PasswordSet:
		if err := user.SetPassword(req.Password.Value); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	case validator.PasswordGenerate:
		password, err := generatePassword()
		if err != nil {
			return nil, err
		}
		if err := user.SetPassword(password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		response.GeneratedPassword = password
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if response.GeneratedPassword != "" {
		s.emailService.SendMessages(ctx, mail.InvitationMessage(user.Email, school.Name, response.GeneratedPassword))
		s.publishUserEvent(ctx, events.NewEvent(events.EventTypeUserInvited, &events.UserInvitedEvent{
			UserID:   user.ID,
			Email:    user.Email,
			SchoolID: user.SchoolID,
		}))
	}

	s.logger.Info("User created successfully", "user_id", user.ID, "role", user.Role)

	return response, nil
}

func (s *userService) GetByID(ctx context.Context, id uint, actorID uint) (*UserResponse, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	// Users see themselves, admins see their school, super admins see everyone
	if actor.ID != user.ID {
		if err := guardSchoolScope(actor, user.SchoolID, "user", id, "read"); err != nil {
			return nil, err
		}
	}

	return &UserResponse{User: user}, nil
}

func (s *userService) Update(ctx context.Context, id uint, req *UpdateUserRequest, actorID uint) (*UserResponse, error) {
	s.logger.Info("Updating user", "user_id", id, "actor_id", actorID)

	if errors := s.validator.GetBusinessValidator().ValidateUserUpdate(req); len(errors) > 0 {
		return nil, errors
	}

	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := guardSchoolScope(actor, user.SchoolID, "user", id, "update"); err != nil {
		return nil, err
	}
	if req.Role != nil && req.Role.HasAdminRights() && actor.Role != models.RoleSuperAdmin {
		return nil, NewPermissionError(actorID, id, "user", "update", "only super admins grant admin rights")
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil && !strings.EqualFold(*req.Email, user.Email) {
		exists, err := s.repo.User().ExistsByEmail(ctx, nil, *req.Email, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return nil, ErrEmailTaken
		}
		user.Email = strings.ToLower(*req.Email)
	}
	if req.Role != nil {
		user.Role = *req.Role
		if user.Role != models.RoleAlumni {
			user.Alumni = datatypes.NewJSONType[*models.AlumniProfile](nil)
		}
	}
	if req.Alumni != nil && user.Role == models.RoleAlumni {
		user.Alumni = datatypes.NewJSONType(alumniFromRequest(req.Alumni))
	}

	response := &UserResponse{User: user}
	switch req.Password.Mode {
	case validator.PasswordSet:
		if err := user.SetPassword(req.Password.Value); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	case validator.PasswordGenerate:
		password, err := generatePassword()
		if err != nil {
			return nil, err
		}
		if err := user.SetPassword(password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		response.GeneratedPassword = password
	}

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if response.GeneratedPassword != "" {
		school, err := s.repo.School().GetByID(ctx, nil, user.SchoolID)
		if err != nil {
			s.logger.Warn("Failed to load school for invitation", "school_id", user.SchoolID, "error", err)
		} else {
			s.emailService.SendMessages(ctx, mail.InvitationMessage(user.Email, school.Name, response.GeneratedPassword))
		}
	}

	s.logger.Info("User updated successfully", "user_id", user.ID)

	return response, nil
}

func (s *userService) Delete(ctx context.Context, id uint, actorID uint) error {
	s.logger.Info("Deleting user", "user_id", id, "actor_id", actorID)

	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return err
	}
	if err := guardSchoolScope(actor, user.SchoolID, "user", id, "delete"); err != nil {
		return err
	}
	if user.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin {
		return NewPermissionError(actorID, id, "user", "delete", "only super admins delete super admins")
	}

	if err := s.repo.User().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("User deleted successfully", "user_id", id)

	return nil
}

// ===== LIST OPERATIONS =====

func (s *userService) List(ctx context.Context, filters repositories.UserFilters, actorID uint) (*UserListResponse, error) {
	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.HasAdminRights() {
		return nil, NewPermissionError(actorID, 0, "user", "list", "requires admin rights")
	}
	if actor.Role != models.RoleSuperAdmin {
		filters.SchoolID = &actor.SchoolID
		filters.ExcludeSuperAdm = true
	}

	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	responses := make([]*UserResponse, len(users))
	for i, user := range users {
		responses[i] = &UserResponse{User: user}
	}

	return &UserListResponse{
		Users: responses,
		Total: total,
		Page:  (filters.Offset / max(filters.Limit, 1)) + 1,
		Size:  filters.Limit,
	}, nil
}

func (s *userService) GetPending(ctx context.Context, actorID uint) ([]*UserResponse, error) {
	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.HasAdminRights() {
		return nil, NewPermissionError(actorID, 0, "user", "list_pending", "requires admin rights")
	}

	var schoolID *uint
	if actor.Role != models.RoleSuperAdmin {
		schoolID = &actor.SchoolID
	}

	users, err := s.repo.User().GetUnapproved(ctx, nil, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending users: %w", err)
	}

	responses := make([]*UserResponse, len(users))
	for i, user := range users {
		responses[i] = &UserResponse{User: user}
	}
	return responses, nil
}

// ===== APPROVAL WORKFLOW =====

func (s *userService) Approve(ctx context.Context, id uint, actorID uint) (*UserResponse, error) {
	s.logger.Info("Approving user", "user_id", id, "actor_id", actorID)

	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := guardSchoolScope(actor, user.SchoolID, "user", id, "approve"); err != nil {
		return nil, err
	}

	// Approving an already approved account is a no-op
	if user.Approved {
		return &UserResponse{User: user}, nil
	}

	user.Approved = true
	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to approve user: %w", err)
	}

	s.publishUserEvent(ctx, events.NewEvent(events.EventTypeUserApproved, &events.UserApprovedEvent{
		UserID:     user.ID,
		Email:      user.Email,
		SchoolID:   user.SchoolID,
		ApprovedBy: actorID,
	}))
	s.emailService.SendMessages(ctx, mail.AccountApprovedMessage(user.Email, user.Name))

	s.logger.Info("User approved successfully", "user_id", user.ID, "approved_by", actorID)

	return &UserResponse{User: user}, nil
}

// ===== INVITATIONS =====

func (s *userService) BulkRegister(ctx context.Context, req *BulkRegisterRequest, actorID uint) (*BulkRegisterResult, error) {
	s.logger.Info("Bulk registering users", "school_id", req.SchoolID, "role", req.Role, "actor_id", actorID)

	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	actor, err := resolveActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if err := guardSchoolScope(actor, req.SchoolID, "user", 0, "bulk_register"); err != nil {
		return nil, err
	}

	school, err := s.repo.School().GetByID(ctx, nil, req.SchoolID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to get school: %w", err)
	}

	emails, invalid := validator.ParseEmailLines(req.Emails)
	result := &BulkRegisterResult{Invalid: invalid}

	type invitation struct {
		user     *models.User
		password string
	}
	var invitations []invitation

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for _, email := range emails {
			exists, err := txRepo.User().ExistsByEmail(ctx, nil, email, nil)
			if err != nil {
				return fmt.Errorf("failed to check email %s: %w", email, err)
			}
			if exists {
				result.Skipped = append(result.Skipped, email)
				continue
			}

			password, err := generatePassword()
			if err != nil {
				return err
			}

			// Invited accounts skip the approval queue
			user := &models.User{
				Name:     nameFromEmail(email),
				Email:    email,
				Role:     req.Role,
				SchoolID: req.SchoolID,
				Approved: true,
			}
			if err := user.SetPassword(password); err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			if err := txRepo.User().Create(ctx, nil, user); err != nil {
				return fmt.Errorf("failed to create user %s: %w", email, err)
			}

			invitations = append(invitations, invitation{user: user, password: password})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to bulk register: %w", err)
	}

	messages := make([]*mail.Message, 0, len(invitations))
	for _, inv := range invitations {
		result.Created = append(result.Created, &UserResponse{User: inv.user, GeneratedPassword: inv.password})
		messages = append(messages, mail.InvitationMessage(inv.user.Email, school.Name, inv.password))
		s.publishUserEvent(ctx, events.NewEvent(events.EventTypeUserInvited, &events.UserInvitedEvent{
			UserID:   inv.user.ID,
			Email:    inv.user.Email,
			SchoolID: inv.user.SchoolID,
		}))
	}
	if len(messages) > 0 {
		s.emailService.SendMessages(ctx, messages...)
	}

	s.logger.Info("Bulk registration completed",
		"created", len(result.Created),
		"skipped", len(result.Skipped),
		"invalid", len(result.Invalid))

	return result, nil
}

func (s *userService) BulkRegisterSheet(ctx context.Context, sheet io.Reader, role models.UserRole, schoolID uint, actorID uint) (*BulkRegisterResult, error) {
	f, err := excelize.OpenReader(sheet)
	if err != nil {
		return nil, NewBusinessRuleError("sheet_format", "could not read spreadsheet").WithContext("cause", err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewBusinessRuleError("sheet_format", "spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, NewBusinessRuleError("sheet_format", "could not read spreadsheet rows").WithContext("cause", err.Error())
	}

	// Addresses come from the first column, one per row
	var lines []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		lines = append(lines, row[0])
	}

	req := &BulkRegisterRequest{
		Emails:   strings.Join(lines, "\n"),
		Role:     role,
		SchoolID: schoolID,
	}
	return s.BulkRegister(ctx, req, actorID)
}

// ===== PUBLIC OPERATIONS =====

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error) {
	s.logger.Info("Registering user", "email", req.Email, "role", req.Role)

	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	if _, err := s.repo.School().GetByID(ctx, nil, req.SchoolID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to get school: %w", err)
	}

	exists, err := s.repo.User().ExistsByEmail(ctx, nil, req.Email, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	// Self-registered accounts wait for an admin to approve them
	user := &models.User{
		Name:     req.Name,
		Email:    strings.ToLower(req.Email),
		Role:     req.Role,
		SchoolID: req.SchoolID,
		Approved: false,
	}
	if req.Role == models.RoleAlumni {
		user.Alumni = datatypes.NewJSONType(alumniFromRequest(req.Alumni))
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	messages := []*mail.Message{mail.WelcomeMessage(user.Email, user.Name)}
	messages = append(messages, s.adminNotices(ctx, user.SchoolID, func(admin *models.User) *mail.Message {
		return mail.RegistrationNoticeMessage(admin.Email, admin.Name, user.Name, user.Email)
	})...)
	s.emailService.SendMessages(ctx, messages...)

	s.logger.Info("User registered successfully", "user_id", user.ID, "role", user.Role)

	return &UserResponse{User: user}, nil
}

// adminNotices builds one message per admin of the school. Lookup failures
// only cost the notification, never the enclosing operation.
func (s *userService) adminNotices(ctx context.Context, schoolID uint, build func(*models.User) *mail.Message) []*mail.Message {
	role := models.RoleAdmin
	admins, _, err := s.repo.User().List(ctx, nil, repositories.UserFilters{SchoolID: &schoolID, Role: &role})
	if err != nil {
		s.logger.Warn("Failed to load school admins for notification", "school_id", schoolID, "error", err)
		return nil
	}
	messages := make([]*mail.Message, 0, len(admins))
	for _, admin := range admins {
		messages = append(messages, build(admin))
	}
	return messages
}

func (s *userService) Authenticate(ctx context.Context, req *LoginRequest) (*models.User, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, strings.ToLower(req.Email))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Approved {
		return nil, ErrUserNotApproved
	}

	return user, nil
}

// ===== HELPERS =====

func (s *userService) publishUserEvent(ctx context.Context, event *events.Event) {
	if err := s.eventPublisher.Publish(ctx, events.TopicUsers, event); err != nil {
		s.logger.Warn("Failed to publish user event", "event_type", event.Type, "error", err)
	}
}

func alumniFromRequest(req *validator.AlumniProfileRequest) *models.AlumniProfile {
	if req == nil {
		return &models.AlumniProfile{}
	}
	return &models.AlumniProfile{
		Profile:    req.Profile,
		University: req.University,
		Occupation: req.Occupation,
		Industry:   req.Industry,
		Employer:   req.Employer,
	}
}

// nameFromEmail derives a placeholder display name from the address local part
func nameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	return strings.TrimSpace(local)
}
