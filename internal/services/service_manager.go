package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/careersfromhere/testimonial-service/internal/events"
	"github.com/careersfromhere/testimonial-service/internal/mail"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/validator"
	"gorm.io/gorm"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	EnableDebugLogging bool
	LogLevel           slog.Level

	// Service-specific configurations
	School   ServiceConfig
	User     ServiceConfig
	Question ServiceConfig
	Video    ServiceConfig
	Category ServiceConfig

	// Global settings
	DefaultTimeout time.Duration
}

type ServiceConfig struct {
	Enabled      bool
	CacheEnabled bool
	CacheTTL     time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db             *gorm.DB
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	emailService   mail.EmailService
	config         ServiceManagerConfig

	// Service instances
	schoolService   SchoolService
	userService     UserService
	questionService QuestionService
	videoService    VideoService
	categoryService CategoryService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher, emailService mail.EmailService, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:             db,
		repo:           repo,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		emailService:   emailService,
		config:         config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher, emailService mail.EmailService) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,

		School: ServiceConfig{
			Enabled:      true,
			CacheEnabled: true,
			CacheTTL:     15 * time.Minute,
		},
		User: ServiceConfig{
			Enabled:      true,
			CacheEnabled: true,
			CacheTTL:     5 * time.Minute,
		},
		Question: ServiceConfig{
			Enabled:      true,
			CacheEnabled: true,
			CacheTTL:     10 * time.Minute,
		},
		Video: ServiceConfig{
			Enabled:      true,
			CacheEnabled: false, // approval state changes must be visible immediately
			CacheTTL:     0,
		},
		Category: ServiceConfig{
			Enabled:      true,
			CacheEnabled: true,
			CacheTTL:     5 * time.Minute,
		},

		DefaultTimeout: 30 * time.Second,
	}

	return NewServiceManager(db, repo, logger, validator, eventPublisher, emailService, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if sm.config.School.Enabled {
		sm.schoolService = NewSchoolService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("School service initialized")
	}

	if sm.config.User.Enabled {
		sm.userService = NewUserService(sm.repo, sm.db, sm.logger, sm.validator, sm.eventPublisher, sm.emailService)
		sm.logger.Info("User service initialized")
	}

	if sm.config.Question.Enabled {
		sm.questionService = NewQuestionService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("Question service initialized")
	}

	if sm.config.Video.Enabled {
		sm.videoService = NewVideoService(sm.repo, sm.db, sm.logger, sm.validator, sm.eventPublisher, sm.emailService)
		sm.logger.Info("Video service initialized")
	}

	if sm.config.Category.Enabled {
		sm.categoryService = NewCategoryService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("Category service initialized")
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters
func (sm *serviceManager) School() SchoolService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.School.Enabled && sm.schoolService != nil {
		return sm.schoolService
	}

	panic("school service not enabled or not initialized")
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.User.Enabled && sm.userService != nil {
		return sm.userService
	}

	panic("user service not enabled or not initialized")
}

func (sm *serviceManager) Question() QuestionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Question.Enabled && sm.questionService != nil {
		return sm.questionService
	}

	panic("question service not enabled or not initialized")
}

func (sm *serviceManager) Video() VideoService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Video.Enabled && sm.videoService != nil {
		return sm.videoService
	}

	panic("video service not enabled or not initialized")
}

func (sm *serviceManager) Category() CategoryService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Category.Enabled && sm.categoryService != nil {
		return sm.categoryService
	}

	panic("category service not enabled or not initialized")
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if err := sm.eventPublisher.Close(); err != nil {
		sm.logger.Error("Failed to close event publisher", "error", err)
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// ===== UTILITY METHODS =====

// GetConfig returns the service manager configuration
func (sm *serviceManager) GetConfig() ServiceManagerConfig {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.config
}

// IsInitialized returns whether the service manager has been initialized
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.initialized
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sm.config.DefaultTimeout)
}
