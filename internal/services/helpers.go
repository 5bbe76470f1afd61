package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GeneratedPasswordLength is the length of invitation passwords
const GeneratedPasswordLength = 8

// generatePassword creates a random alphanumeric password for invitations
func generatePassword() (string, error) {
	buf := make([]byte, GeneratedPasswordLength)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// resolveActor loads the authenticated caller
func resolveActor(ctx context.Context, repo repositories.Repository, actorID uint) (*models.User, error) {
	actor, err := repo.User().GetByID(ctx, nil, actorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve actor: %w", err)
	}
	return actor, nil
}

// guardSchoolScope enforces the admin boundary: super admins act everywhere,
// admins only within their own school
func guardSchoolScope(actor *models.User, schoolID uint, resource string, resourceID uint, action string) error {
	if actor.Role == models.RoleSuperAdmin {
		return nil
	}
	if actor.Role != models.RoleAdmin {
		return NewPermissionError(actor.ID, resourceID, resource, action, "requires admin rights")
	}
	if actor.SchoolID != schoolID {
		return NewPermissionError(actor.ID, resourceID, resource, action, "resource belongs to another school")
	}
	return nil
}

// reindexQuestions assigns the dense 1-based ordering following the slice
// order. Returns only the questions whose ordering actually changed.
func reindexQuestions(active []*models.Question) []*models.Question {
	var changed []*models.Question
	for i, q := range active {
		if q.Ordering != i+1 {
			q.Ordering = i + 1
			changed = append(changed, q)
		}
	}
	return changed
}
