package services

import (
	"context"
	"errors"
	"testing"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/validator"
)

func newCategoryFixture() (*fakeRepo, CategoryService) {
	repo := newFakeRepo()
	svc := NewCategoryService(repo, nil, testLogger(), validator.New())
	return repo, svc
}

func TestCategoryCreateRequiresSuperAdmin(t *testing.T) {
	repo, svc := newCategoryFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)
	super := repo.addUser(models.RoleSuperAdmin, school.ID, true)

	if _, err := svc.Create(context.Background(), &CreateCategoryRequest{Name: "Technology"}, admin.ID); err == nil {
		t.Error("school admin should not create categories")
	} else {
		var perm *PermissionError
		if !errors.As(err, &perm) {
			t.Errorf("error = %v, want PermissionError", err)
		}
	}

	category, err := svc.Create(context.Background(), &CreateCategoryRequest{Name: "Technology"}, super.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if category.ID == 0 || category.Name != "Technology" {
		t.Errorf("Create() = %+v, want persisted category", category)
	}
}

func TestCategoryCreateDuplicateName(t *testing.T) {
	repo, svc := newCategoryFixture()
	school := repo.addSchool("Hilltop")
	super := repo.addUser(models.RoleSuperAdmin, school.ID, true)
	repo.addCategory("Technology")

	if _, err := svc.Create(context.Background(), &CreateCategoryRequest{Name: "Technology"}, super.ID); !errors.Is(err, ErrCategoryNameTaken) {
		t.Errorf("Create() error = %v, want ErrCategoryNameTaken", err)
	}
}

func TestCategoryUpdateRename(t *testing.T) {
	repo, svc := newCategoryFixture()
	school := repo.addSchool("Hilltop")
	super := repo.addUser(models.RoleSuperAdmin, school.ID, true)
	tech := repo.addCategory("Technology")
	repo.addCategory("Arts")

	name := "Engineering"
	updated, err := svc.Update(context.Background(), tech.ID, &UpdateCategoryRequest{Name: &name}, super.ID)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Engineering" {
		t.Errorf("Name = %q, want Engineering", updated.Name)
	}

	taken := "Arts"
	if _, err := svc.Update(context.Background(), tech.ID, &UpdateCategoryRequest{Name: &taken}, super.ID); !errors.Is(err, ErrCategoryNameTaken) {
		t.Errorf("Update() error = %v, want ErrCategoryNameTaken", err)
	}
}

func TestCategoryDelete(t *testing.T) {
	repo, svc := newCategoryFixture()
	school := repo.addSchool("Hilltop")
	super := repo.addUser(models.RoleSuperAdmin, school.ID, true)
	tech := repo.addCategory("Technology")

	if err := svc.Delete(context.Background(), tech.ID, super.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), tech.ID); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrCategoryNotFound", err)
	}

	if err := svc.Delete(context.Background(), 404, super.ID); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("Delete() missing category error = %v, want ErrCategoryNotFound", err)
	}
}

func TestCategoryList(t *testing.T) {
	repo, svc := newCategoryFixture()
	repo.addCategory("Technology")
	repo.addCategory("Arts")

	categories, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("List() returned %d categories, want 2", len(categories))
	}
}
