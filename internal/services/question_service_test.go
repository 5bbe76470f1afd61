package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"gorm.io/gorm"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newQuestionFixture() (*fakeRepo, QuestionService) {
	repo := newFakeRepo()
	svc := NewQuestionService(repo, nil, testLogger(), validator.New())
	return repo, svc
}

func TestQuestionCreateAppendsToEnd(t *testing.T) {
	repo, svc := newQuestionFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)
	repo.addQuestion(school.ID, "A", 1)
	repo.addQuestion(school.ID, "B", 2)

	resp, err := svc.Create(context.Background(), school.ID, &CreateQuestionRequest{Text: "C", Duration: 30}, admin.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if resp.Ordering != 3 {
		t.Errorf("Ordering = %d, want 3", resp.Ordering)
	}
	if !resp.Active {
		t.Error("new question should be active")
	}
}

func TestQuestionCreateRejectsShortDuration(t *testing.T) {
	repo, svc := newQuestionFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)

	_, err := svc.Create(context.Background(), school.ID, &CreateQuestionRequest{Text: "C", Duration: 5}, admin.ID)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Create() error = %v, want validation errors", err)
	}
}

func TestQuestionCreateCrossSchoolForbidden(t *testing.T) {
	repo, svc := newQuestionFixture()
	school := repo.addSchool("Hilltop")
	other := repo.addSchool("Lakeside")
	admin := repo.addUser(models.RoleAdmin, other.ID, true)

	_, err := svc.Create(context.Background(), school.ID, &CreateQuestionRequest{Text: "C", Duration: 30}, admin.ID)
	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("Create() error = %v, want permission error", err)
	}
}

func TestQuestionCreateSuperAdminBypassesScope(t *testing.T) {
	repo, svc := newQuestionFixture()
	school := repo.addSchool("Hilltop")
	other := repo.addSchool("Lakeside")
	super := repo.addUser(models.RoleSuperAdmin, other.ID, true)

	if _, err := svc.Create(context.Background(), school.ID, &CreateQuestionRequest{Text: "C", Duration: 30}, super.ID); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestQuestionReorder(t *testing.T) {
	repo, svc := newQuestionFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)
	qa := repo.addQuestion(school.ID, "A", 1)
	qb := repo.addQuestion(school.ID, "B", 2)
	qc := repo.addQuestion(school.ID, "C", 3)

	// Position list: the question currently third comes first, then the
	// first, then the second
	resp, err := svc.Reorder(context.Background(), school.ID, []int{3, 1, 2}, admin.ID)
	if err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}

	want := []uint{qc.ID, qa.ID, qb.ID}
	if len(resp) != len(want) {
		t.Fatalf("Reorder() returned %d questions, want %d", len(resp), len(want))
	}
	for i, r := range resp {
		if r.ID != want[i] {
			t.Errorf("position %d: question %d, want %d", i+1, r.ID, want[i])
		}
		if r.Ordering != i+1 {
			t.Errorf("position %d: ordering %d, want %d", i+1, r.Ordering, i+1)
		}
	}
}

func TestQuestionReorderInvalidPermutation(t *testing.T) {
	repo, svc := newQuestionFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)
	repo.addQuestion(school.ID, "A", 1)
	repo.addQuestion(school.ID, "B", 2)
	repo.addQuestion(school.ID, "C", 3)

	tests := []struct {
		name  string
		order []int
	}{
		{name: "wrong length", order: []int{1, 2}},
		{name: "out of range", order: []int{1, 2, 4}},
		{name: "duplicate", order: []int{1, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reorder(context.Background(), school.ID, tt.order, admin.ID)
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Reorder() error = %v, want validation errors", err)
			}
		})
	}

	// A failed reorder leaves the stored ordering untouched
	active, _ := repo.Question().GetActiveBySchool(context.Background(), nil, school.ID)
	for i, q := range active {
		if q.Ordering != i+1 {
			t.Errorf("ordering disturbed after failed reorder: got %d at position %d", q.Ordering, i+1)
		}
	}
}

func TestQuestionDeactivateClosesGap(t *testing.T) {
	repo, svc := newQuestionFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)
	repo.addQuestion(school.ID, "A", 1)
	qb := repo.addQuestion(school.ID, "B", 2)
	qc := repo.addQuestion(school.ID, "C", 3)

	if err := svc.Deactivate(context.Background(), qb.ID, admin.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	if qb.Active {
		t.Error("question should be inactive")
	}
	if qc.Ordering != 2 {
		t.Errorf("following question ordering = %d, want 2", qc.Ordering)
	}

	active, _ := repo.Question().GetActiveBySchool(context.Background(), nil, school.ID)
	if len(active) != 2 {
		t.Fatalf("active count = %d, want 2", len(active))
	}
	for i, q := range active {
		if q.Ordering != i+1 {
			t.Errorf("ordering not dense: got %d at position %d", q.Ordering, i+1)
		}
	}
}

func TestQuestionDeactivateTwice(t *testing.T) {
	repo, svc := newQuestionFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)
	q := repo.addQuestion(school.ID, "A", 1)

	if err := svc.Deactivate(context.Background(), q.ID, admin.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if err := svc.Deactivate(context.Background(), q.ID, admin.ID); !errors.Is(err, ErrQuestionInactive) {
		t.Errorf("second Deactivate() error = %v, want ErrQuestionInactive", err)
	}
}

func TestQuestionGetByIDNotFound(t *testing.T) {
	repo, svc := newQuestionFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)

	if _, err := svc.GetByID(context.Background(), 999, admin.ID); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("GetByID() error = %v, want ErrQuestionNotFound", err)
	}
}

func TestQuestionListActiveSortedByOrdering(t *testing.T) {
	repo, svc := newQuestionFixture()
	school := repo.addSchool("Hilltop")
	student := repo.addUser(models.RoleStudent, school.ID, true)
	repo.addQuestion(school.ID, "B", 2)
	repo.addQuestion(school.ID, "A", 1)

	resp, err := svc.ListActive(context.Background(), school.ID, student.ID)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(resp) != 2 || resp[0].Text != "A" || resp[1].Text != "B" {
		t.Errorf("ListActive() not sorted by ordering: %v", resp)
	}
}

// staleActiveRepo simulates a deactivate racing another deactivate: the initial
// read still sees the question as active, but the locked set inside the
// transaction comes back empty.
type staleActiveRepo struct {
	*fakeRepo
}

func (r *staleActiveRepo) Question() repositories.QuestionRepository {
	return &staleActiveQuestionRepo{fakeQuestionRepo{r.fakeRepo}}
}

func (r *staleActiveRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

type staleActiveQuestionRepo struct {
	fakeQuestionRepo
}

func (r *staleActiveQuestionRepo) GetActiveBySchoolForUpdate(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.Question, error) {
	return nil, nil
}

func TestQuestionDeactivateEmptyLockedSet(t *testing.T) {
	base, _ := newQuestionFixture()
	school := base.addSchool("Hilltop")
	admin := base.addUser(models.RoleAdmin, school.ID, true)
	question := base.addQuestion(school.ID, "Why here?", 1)

	repo := &staleActiveRepo{base}
	svc := NewQuestionService(repo, nil, testLogger(), validator.New())

	err := svc.Deactivate(context.Background(), question.ID, admin.ID)
	if !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("Deactivate() with empty locked set error = %v, want ErrQuestionNotFound", err)
	}
}
