package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/photoshare/photoshare-api/internal/config"
	"github.com/photoshare/photoshare-api/internal/domain"
	"github.com/photoshare/photoshare-api/internal/observability"
	"github.com/photoshare/photoshare-api/internal/repository"
	"github.com/photoshare/photoshare-api/internal/security"
	"github.com/photoshare/photoshare-api/internal/storage"
)

const (
	nameMinLen     = 2
	nameMaxLen     = 25
	passwordMinLen = 6
	passwordMaxLen = 50
)

var digitRe = regexp.MustCompile(`[0-9]`)

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Photos    []UploadFile
	Avatar    *UploadFile
}

// RegistrationService runs the full registration pipeline: field
// validation, file uploads, password hashing, and atomic persistence of
// the user with its photos.
type RegistrationService struct {
	cfg       *config.Config
	userRepo  repository.UserRepository
	uploadSvc *UploadService
}

func NewRegistrationService(cfg *config.Config, userRepo repository.UserRepository, uploadSvc *UploadService) *RegistrationService {
	return &RegistrationService{cfg: cfg, userRepo: userRepo, uploadSvc: uploadSvc}
}

func (s *RegistrationService) Register(ctx context.Context, in RegisterInput, backend storage.Backend) (*domain.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if errs := validateFields(in); len(errs) > 0 {
		observability.RecordRegistration(ctx, backend.Name(), "invalid_fields")
		return nil, errs
	}

	// Photo count is checked before any upload I/O so a short submission
	// never leaves partial uploads behind.
	if len(in.Photos) < s.cfg.MinPhotoCount {
		observability.RecordRegistration(ctx, backend.Name(), "insufficient_photos")
		return nil, ErrInsufficientPhotos
	}

	if _, err := s.userRepo.FindByEmail(in.Email); err == nil {
		observability.RecordRegistration(ctx, backend.Name(), "duplicate_email")
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Hashing happens before any storage I/O so a hashing failure cannot
	// leave stored objects behind.
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	in.Password = ""

	uploads, err := s.uploadSvc.ProcessRegistrationUploads(ctx, in.Photos, in.Avatar, backend)
	if err != nil {
		observability.RecordRegistration(ctx, backend.Name(), "upload_failed")
		return nil, err
	}

	avatarURL := uploads.AvatarURL
	if avatarURL == "" {
		avatarURL = s.placeholderAvatar(in.Email)
	}

	photos := make([]domain.Photo, len(uploads.Photos))
	for i, p := range uploads.Photos {
		photos[i] = domain.Photo{Name: p.Name, URL: p.URL}
	}

	user := &domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Active:       true,
		Avatar:       avatarURL,
		Roles:        []string{domain.RoleUser},
		Photos:       photos,
	}

	if err := s.userRepo.Create(user); err != nil {
		// The uploads must not outlive a registration that never persisted.
		s.uploadSvc.AbortRegistrationUploads(ctx, backend, uploads)
		// Concurrent registrations race safely to a single winner on the
		// unique email constraint.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRegistration(ctx, backend.Name(), "duplicate_email")
			return nil, ErrDuplicateEmail
		}
		observability.RecordRegistration(ctx, backend.Name(), "persistence_failed")
		return nil, fmt.Errorf("persist user: %w", err)
	}

	observability.RecordRegistration(ctx, backend.Name(), "success")
	return user, nil
}

// placeholderAvatar derives a deterministic default avatar from the email.
func (s *RegistrationService) placeholderAvatar(email string) string {
	return s.cfg.AvatarPlaceholderBaseURL + "?seed=" + email
}

func validateFields(in RegisterInput) ValidationErrors {
	var errs ValidationErrors
	if l := len(in.FirstName); l < nameMinLen || l > nameMaxLen {
		errs = append(errs, FieldError{Field: "firstName", Message: fmt.Sprintf("must be between %d and %d characters", nameMinLen, nameMaxLen)})
	}
	if l := len(in.LastName); l < nameMinLen || l > nameMaxLen {
		errs = append(errs, FieldError{Field: "lastName", Message: fmt.Sprintf("must be between %d and %d characters", nameMinLen, nameMaxLen)})
	}
	if in.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "is required"})
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		errs = append(errs, FieldError{Field: "email", Message: "is not a valid email"})
	}
	if err := validatePassword(in.Password); err != nil {
		errs = append(errs, FieldError{Field: "password", Message: err.Error()})
	}
	return errs
}

// validatePassword enforces 6-50 characters including at least one digit.
func validatePassword(password string) error {
	if len(password) < passwordMinLen || len(password) > passwordMaxLen || !digitRe.MatchString(password) {
		return fmt.Errorf("must contain a number and be between %d and %d characters", passwordMinLen, passwordMaxLen)
	}
	return nil
}
