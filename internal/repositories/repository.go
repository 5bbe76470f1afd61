package repositories

import "context"

// Repository aggregates all entity repositories behind a single handle
type Repository interface {
	// School domain
	School() SchoolRepository

	// User domain
	User() UserRepository

	// Question domain
	Question() QuestionRepository

	// Video domain
	Video() VideoRepository
	Category() CategoryRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
