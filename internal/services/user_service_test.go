package services

import (
	"context"
	"errors"
	"testing"

	"github.com/careersfromhere/testimonial-service/internal/events"
	"github.com/careersfromhere/testimonial-service/internal/mail"
	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/validator"
)

func newUserFixture() (*fakeRepo, *events.MockEventPublisher, *mail.MockService, UserService) {
	repo := newFakeRepo()
	publisher := events.NewMockEventPublisher(testLogger())
	mailer := mail.NewMockService()
	svc := NewUserService(repo, nil, testLogger(), validator.New(), publisher, mailer)
	return repo, publisher, mailer, svc
}

func TestUserCreateWithSetPassword(t *testing.T) {
	repo, _, mailer, svc := newUserFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)

	resp, err := svc.Create(context.Background(), &CreateUserRequest{
		Name:     "Jamie Doe",
		Email:    "Jamie@Example.com",
		Role:     models.RoleStudent,
		SchoolID: school.ID,
		Password: validator.PasswordInput{Mode: validator.PasswordSet, Value: "hunter2hunter2"},
		Approved: true,
	}, admin.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if resp.Email != "jamie@example.com" {
		t.Errorf("email = %q, want lowercased", resp.Email)
	}
	if resp.GeneratedPassword != "" {
		t.Errorf("GeneratedPassword = %q, want empty for set mode", resp.GeneratedPassword)
	}
	if err := resp.CheckPassword("hunter2hunter2"); err != nil {
		t.Error("stored hash does not match the provided password")
	}
	if len(mailer.SentMessages()) != 0 {
		t.Error("set-mode creation should not send an invitation")
	}
}

func TestUserCreateWithGeneratedPassword(t *testing.T) {
	repo, publisher, mailer, svc := newUserFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)

	resp, err := svc.Create(context.Background(), &CreateUserRequest{
		Name:     "Jamie Doe",
		Email:    "jamie@example.com",
		Role:     models.RoleAlumni,
		SchoolID: school.ID,
		Password: validator.PasswordInput{Mode: validator.PasswordGenerate},
	}, admin.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if len(resp.GeneratedPassword) != GeneratedPasswordLength {
		t.Errorf("GeneratedPassword length = %d, want %d", len(resp.GeneratedPassword), GeneratedPasswordLength)
	}
	if err := resp.CheckPassword(resp.GeneratedPassword); err != nil {
		t.Error("stored hash does not match the generated password")
	}

	sent := mailer.SentMessages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if sent[0].To != "jamie@example.com" {
		t.Errorf("invitation sent to %q", sent[0].To)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventTypeUserInvited {
		t.Errorf("published events = %v, want one user.invited", published)
	}
}

func TestUserCreateKeepPasswordRejected(t *testing.T) {
	repo, _, _, svc := newUserFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)

	_, err := svc.Create(context.Background(), &CreateUserRequest{
		Name:     "Jamie Doe",
		Email:    "jamie@example.com",
		Role:     models.RoleStudent,
		SchoolID: school.ID,
	}, admin.ID)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Create() error = %v, want validation errors", err)
	}
}

func TestUserCreateAdminRequiresSuperAdmin(t *testing.T) {
	repo, _, _, svc := newUserFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)
	super := repo.addUser(models.RoleSuperAdmin, school.ID, true)

	req := func(email string) *CreateUserRequest {
		return &CreateUserRequest{
			Name:     "New Admin",
			Email:    email,
			Role:     models.RoleAdmin,
			SchoolID: school.ID,
			Password: validator.PasswordInput{Mode: validator.PasswordGenerate},
		}
	}

	var perr *PermissionError
	if _, err := svc.Create(context.Background(), req("one@example.com"), admin.ID); !errors.As(err, &perr) {
		t.Errorf("Create() admin by admin error = %v, want permission error", err)
	}
	if _, err := svc.Create(context.Background(), req("two@example.com"), super.ID); err != nil {
		t.Errorf("Create() admin by super admin error = %v", err)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	repo, _, _, svc := newUserFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)
	existing := repo.addUser(models.RoleStudent, school.ID, true)
	existing.Email = "taken@example.com"

	_, err := svc.Create(context.Background(), &CreateUserRequest{
		Name:     "Jamie Doe",
		Email:    "taken@example.com",
		Role:     models.RoleStudent,
		SchoolID: school.ID,
		Password: validator.PasswordInput{Mode: validator.PasswordGenerate},
	}, admin.ID)
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Create() error = %v, want ErrEmailTaken", err)
	}
}

func TestUserUpdateRoleChangeClearsAlumniProfile(t *testing.T) {
	repo, _, _, svc := newUserFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)
	alumni := repo.addUser(models.RoleAlumni, school.ID, true)

	role := models.RoleStudent
	resp, err := svc.Update(context.Background(), alumni.ID, &UpdateUserRequest{Role: &role}, admin.ID)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if resp.Role != models.RoleStudent {
		t.Errorf("role = %q, want student", resp.Role)
	}
	if resp.AlumniPayload() != nil {
		t.Error("alumni payload should be cleared on role change")
	}
}

func TestUserApprove(t *testing.T) {
	repo, publisher, mailer, svc := newUserFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)
	pending := repo.addUser(models.RoleAlumni, school.ID, false)
	pending.Email = "pending@example.com"

	resp, err := svc.Approve(context.Background(), pending.ID, admin.ID)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if !resp.Approved {
		t.Error("user should be approved")
	}
	if len(mailer.SentMessages()) != 1 {
		t.Errorf("sent %d messages, want 1 approval notice", len(mailer.SentMessages()))
	}
	if published := publisher.GetPublishedEvents(); len(published) != 1 || published[0].Type != events.EventTypeUserApproved {
		t.Errorf("published events = %v, want one user.approved", published)
	}

	// Second approval is a no-op
	mailer.Clear()
	publisher.ClearEvents()
	if _, err := svc.Approve(context.Background(), pending.ID, admin.ID); err != nil {
		t.Fatalf("second Approve() error = %v", err)
	}
	if len(mailer.SentMessages()) != 0 || len(publisher.GetPublishedEvents()) != 0 {
		t.Error("re-approving should not notify again")
	}
}

func TestUserApproveCrossSchool(t *testing.T) {
	repo, _, _, svc := newUserFixture()
	school := repo.addSchool("Hilltop")
	other := repo.addSchool("Lakeside")
	admin := repo.addUser(models.RoleAdmin, other.ID, true)
	pending := repo.addUser(models.RoleAlumni, school.ID, false)

	_, err := svc.Approve(context.Background(), pending.ID, admin.ID)
	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Errorf("Approve() cross school error = %v, want permission error", err)
	}
}

func TestUserBulkRegister(t *testing.T) {
	repo, _, mailer, svc := newUserFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)
	existing := repo.addUser(models.RoleStudent, school.ID, true)
	existing.Email = "known@example.com"

	result, err := svc.BulkRegister(context.Background(), &BulkRegisterRequest{
		Emails:   "new.one@example.com\nknown@example.com\nnot-an-address\n\nnew.two@example.com",
		Role:     models.RoleStudent,
		SchoolID: school.ID,
	}, admin.ID)
	if err != nil {
		t.Fatalf("BulkRegister() error = %v", err)
	}

	if len(result.Created) != 2 {
		t.Errorf("created %d users, want 2", len(result.Created))
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "known@example.com" {
		t.Errorf("Skipped = %v, want [known@example.com]", result.Skipped)
	}
	if len(result.Invalid) != 1 || result.Invalid[0] != "not-an-address" {
		t.Errorf("Invalid = %v, want [not-an-address]", result.Invalid)
	}

	for _, created := range result.Created {
		if !created.Approved {
			t.Errorf("invited user %s should be pre-approved", created.Email)
		}
		if created.GeneratedPassword == "" {
			t.Errorf("invited user %s has no generated password", created.Email)
		}
	}
	if result.Created[0].Name != "new one" {
		t.Errorf("derived name = %q, want %q", result.Created[0].Name, "new one")
	}
	if len(mailer.SentMessages()) != 2 {
		t.Errorf("sent %d invitations, want 2", len(mailer.SentMessages()))
	}
}

func TestUserBulkRegisterAdminRoleRejected(t *testing.T) {
	repo, _, _, svc := newUserFixture()
	school := repo.addSchool("Hilltop")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)

	_, err := svc.BulkRegister(context.Background(), &BulkRegisterRequest{
		Emails:   "new@example.com",
		Role:     models.RoleAdmin,
		SchoolID: school.ID,
	}, admin.ID)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("BulkRegister() with admin role error = %v, want validation errors", err)
	}
}

func TestUserRegisterAndAuthenticate(t *testing.T) {
	repo, _, mailer, svc := newUserFixture()
	school := repo.addSchool("Hilltop")

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Name:     "Jamie Doe",
		Email:    "jamie@example.com",
		Password: "hunter2hunter2",
		Role:     models.RoleAlumni,
		SchoolID: school.ID,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if resp.Approved {
		t.Error("self-registered accounts must wait for approval")
	}
	if len(mailer.SentMessages()) != 1 {
		t.Errorf("sent %d messages, want 1 welcome", len(mailer.SentMessages()))
	}

	// Unapproved accounts cannot log in yet
	_, err = svc.Authenticate(context.Background(), &LoginRequest{Email: "jamie@example.com", Password: "hunter2hunter2"})
	if !errors.Is(err, ErrUserNotApproved) {
		t.Errorf("Authenticate() before approval error = %v, want ErrUserNotApproved", err)
	}

	user, _ := repo.User().GetByEmail(context.Background(), nil, "jamie@example.com")
	user.Approved = true

	if _, err := svc.Authenticate(context.Background(), &LoginRequest{Email: "Jamie@Example.com", Password: "hunter2hunter2"}); err != nil {
		t.Errorf("Authenticate() error = %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), &LoginRequest{Email: "jamie@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Authenticate(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestUserListScoping(t *testing.T) {
	repo, _, _, svc := newUserFixture()
	school := repo.addSchool("Hilltop")
	other := repo.addSchool("Lakeside")
	admin := repo.addUser(models.RoleAdmin, school.ID, true)
	super := repo.addUser(models.RoleSuperAdmin, other.ID, true)
	repo.addUser(models.RoleStudent, school.ID, true)
	repo.addUser(models.RoleStudent, other.ID, true)

	resp, err := svc.List(context.Background(), repositories.UserFilters{Limit: 50}, admin.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for _, u := range resp.Users {
		if u.SchoolID != school.ID {
			t.Errorf("admin list leaked user from school %d", u.SchoolID)
		}
		if u.Role == models.RoleSuperAdmin {
			t.Error("admin list leaked a super admin")
		}
	}

	all, err := svc.List(context.Background(), repositories.UserFilters{Limit: 50}, super.ID)
	if err != nil {
		t.Fatalf("List() as super admin error = %v", err)
	}
	if len(all.Users) != 4 {
		t.Errorf("super admin sees %d users, want 4", len(all.Users))
	}
}

func TestUserUpdateGeneratedPasswordMissingSchool(t *testing.T) {
	repo, _, mailer, svc := newUserFixture()
	super := repo.addUser(models.RoleSuperAdmin, 0, true)
	orphan := repo.addUser(models.RoleStudent, 999, true)
	orphan.Email = "orphan@school.test"

	resp, err := svc.Update(context.Background(), orphan.ID, &UpdateUserRequest{
		Password: validator.PasswordInput{Mode: validator.PasswordGenerate},
	}, super.ID)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if resp.GeneratedPassword == "" {
		t.Error("GeneratedPassword is empty, want a regenerated password")
	}
	if len(mailer.SentMessages()) != 0 {
		t.Errorf("sent %d messages, want none when the school lookup fails", len(mailer.SentMessages()))
	}
}
