package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"github.com/photoshare/photoshare-api/internal/domain"
	repogomock "github.com/photoshare/photoshare-api/internal/repository/gomock"
	"github.com/photoshare/photoshare-api/internal/security"
	storagegomock "github.com/photoshare/photoshare-api/internal/storage/gomock"
)

func registrationTestService(repo *repogomock.MockUserRepository) *RegistrationService {
	cfg := uploadTestConfig()
	cfg.AvatarPlaceholderBaseURL = "https://api.dicebear.com/7.x/avataaars/svg"
	return NewRegistrationService(cfg, repo, NewUploadService(cfg))
}

// expectNoUser reports the email as unregistered.
func expectNoUser(repo *repogomock.MockUserRepository, email string) {
	repo.EXPECT().FindByEmail(email).Return(nil, gorm.ErrRecordNotFound)
}

// expectCreate assigns an ID the way the database would and mirrors the
// BeforeSave hook computing FullName.
func expectCreate(repo *repogomock.MockUserRepository) {
	repo.EXPECT().Create(gomock.Any()).DoAndReturn(func(u *domain.User) error {
		u.ID = 1
		u.FullName = strings.TrimSpace(u.FirstName + " " + u.LastName)
		return nil
	})
}

// nameOnlyBackend is a backend on which any Store or Remove fails the test.
func nameOnlyBackend(ctrl *gomock.Controller) *storagegomock.MockBackend {
	backend := storagegomock.NewMockBackend(ctrl)
	backend.EXPECT().Name().Return("mock").AnyTimes()
	return backend
}

func validInput() RegisterInput {
	return RegisterInput{
		FirstName: "Ana",
		LastName:  "Lee",
		Email:     "ana@example.com",
		Password:  "secret1",
		Photos:    photoFiles(4),
	}
}

func TestRegisterCreatesUserWithPhotos(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	svc := registrationTestService(repo)
	fx := newBackendFixture(ctrl, 0)

	expectNoUser(repo, "ana@example.com")
	expectCreate(repo)

	user, err := svc.Register(context.Background(), validInput(), fx.mock)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected persisted user id")
	}
	if user.FullName != "Ana Lee" {
		t.Fatalf("expected full name Ana Lee, got %s", user.FullName)
	}
	if len(user.Photos) != 4 {
		t.Fatalf("expected 4 photos, got %d", len(user.Photos))
	}
	if len(user.Roles) != 1 || user.Roles[0] != domain.RoleUser {
		t.Fatalf("expected default role, got %v", user.Roles)
	}
	if !user.Active {
		t.Fatal("expected active user")
	}
	ok, err := security.VerifyPassword(user.PasswordHash, "secret1")
	if err != nil || !ok {
		t.Fatalf("expected password hash to verify, ok=%v err=%v", ok, err)
	}
}

func TestRegisterUsesPlaceholderAvatarWhenNoneUploaded(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	svc := registrationTestService(repo)

	expectNoUser(repo, "ana@example.com")
	expectCreate(repo)

	user, err := svc.Register(context.Background(), validInput(), newBackendFixture(ctrl, 0).mock)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !strings.Contains(user.Avatar, "seed=ana@example.com") {
		t.Fatalf("expected placeholder avatar seeded with email, got %s", user.Avatar)
	}
}

func TestRegisterUsesUploadedAvatar(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	svc := registrationTestService(repo)

	expectNoUser(repo, "ana@example.com")
	expectCreate(repo)

	in := validInput()
	in.Avatar = &UploadFile{Name: "me.png", Size: 64, Content: bytes.NewReader(bytes.Repeat([]byte{0x02}, 64))}
	user, err := svc.Register(context.Background(), in, newBackendFixture(ctrl, 0).mock)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !strings.HasPrefix(user.Avatar, "/uploads/avatars/") {
		t.Fatalf("expected uploaded avatar URL, got %s", user.Avatar)
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	svc := registrationTestService(repo)

	// The duplicate pre-check must already see the normalized form.
	expectNoUser(repo, "ana@example.com")
	expectCreate(repo)

	in := validInput()
	in.Email = "  Ana@Example.COM "
	user, err := svc.Register(context.Background(), in, newBackendFixture(ctrl, 0).mock)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
}

func TestRegisterAccumulatesAllFieldErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	svc := registrationTestService(repo)

	in := validInput()
	in.FirstName = "A"
	in.LastName = strings.Repeat("x", 26)
	in.Email = "not-an-email"
	in.Password = "short"

	_, err := svc.Register(context.Background(), in, nameOnlyBackend(ctrl))
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(verrs) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %v", len(verrs), verrs)
	}
	fields := map[string]bool{}
	for _, fe := range verrs {
		fields[fe.Field] = true
	}
	for _, f := range []string{"firstName", "lastName", "email", "password"} {
		if !fields[f] {
			t.Fatalf("missing field error for %s", f)
		}
	}
}

func TestRegisterPasswordRules(t *testing.T) {
	cases := []struct {
		password string
		valid    bool
	}{
		{"abcdef1", true},
		{"123456", true},
		{"abcdef", false},
		{"a1", false},
		{strings.Repeat("a", 50) + "1", false},
		{strings.Repeat("a", 49) + "1", true},
	}
	for _, c := range cases {
		err := validatePassword(c.password)
		if c.valid && err != nil {
			t.Fatalf("expected %q to be valid: %v", c.password, err)
		}
		if !c.valid && err == nil {
			t.Fatalf("expected %q to be rejected", c.password)
		}
	}
}

func TestRegisterRejectsInsufficientPhotos(t *testing.T) {
	ctrl := gomock.NewController(t)
	// No repo expectations: the count check runs before the email lookup.
	repo := repogomock.NewMockUserRepository(ctrl)
	svc := registrationTestService(repo)

	in := validInput()
	in.Photos = photoFiles(3)
	_, err := svc.Register(context.Background(), in, nameOnlyBackend(ctrl))
	if !errors.Is(err, ErrInsufficientPhotos) {
		t.Fatalf("expected ErrInsufficientPhotos, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	svc := registrationTestService(repo)

	existing := &domain.User{ID: 1, Email: "ana@example.com"}
	repo.EXPECT().FindByEmail("ana@example.com").Return(existing, nil)

	// A backend without Store expectations proves no upload I/O happens
	// for a duplicate email.
	_, err := svc.Register(context.Background(), validInput(), nameOnlyBackend(ctrl))
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestRegisterWrapsUploadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	// Create is never expected: a failed upload must not persist a user.
	repo := repogomock.NewMockUserRepository(ctrl)
	svc := registrationTestService(repo)

	expectNoUser(repo, "ana@example.com")
	_, err := svc.Register(context.Background(), validInput(), newBackendFixture(ctrl, 1).mock)
	var uerr *UploadError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UploadError, got %v", err)
	}
}

func TestRegisterCleansUpUploadsWhenPersistFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	svc := registrationTestService(repo)
	fx := newBackendFixture(ctrl, 0)

	expectNoUser(repo, "ana@example.com")
	repo.EXPECT().Create(gomock.Any()).Return(errors.New("connection reset"))

	in := validInput()
	in.Avatar = &UploadFile{Name: "me.png", Size: 64, Content: bytes.NewReader(bytes.Repeat([]byte{0x02}, 64))}
	_, err := svc.Register(context.Background(), in, fx.mock)
	if err == nil || !strings.Contains(err.Error(), "persist user") {
		t.Fatalf("expected wrapped persistence error, got %v", err)
	}
	// All five stored objects, avatar included, must have been removed.
	if got := len(fx.removedKeys()); got != 5 {
		t.Fatalf("expected 5 compensating removes, got %d", got)
	}
}

func TestRegisterCleansUpUploadsWhenLosingDuplicateRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	svc := registrationTestService(repo)
	fx := newBackendFixture(ctrl, 0)

	// The pre-check passes but a concurrent registration wins the unique
	// email constraint.
	expectNoUser(repo, "ana@example.com")
	repo.EXPECT().Create(gomock.Any()).Return(gorm.ErrDuplicatedKey)

	_, err := svc.Register(context.Background(), validInput(), fx.mock)
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if got := len(fx.removedKeys()); got != 4 {
		t.Fatalf("expected 4 compensating removes, got %d", got)
	}
}
