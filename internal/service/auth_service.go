package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/photoshare/photoshare-api/internal/config"
	"github.com/photoshare/photoshare-api/internal/domain"
	"github.com/photoshare/photoshare-api/internal/observability"
	"github.com/photoshare/photoshare-api/internal/repository"
	"github.com/photoshare/photoshare-api/internal/security"
)

type LoginResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// AuthService verifies credentials and issues stateless bearer tokens.
type AuthService struct {
	cfg      *config.Config
	jwtMgr   *security.JWTManager
	userRepo repository.UserRepository
}

func NewAuthService(cfg *config.Config, jwtMgr *security.JWTManager, userRepo repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, jwtMgr: jwtMgr, userRepo: userRepo}
}

// Login maps every credential failure to the same ErrInvalidCredentials
// so callers cannot distinguish an unknown email from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		observability.RecordLogin(ctx, "failure")
		return nil, ErrInvalidCredentials
	}
	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		observability.RecordLogin(ctx, "failure")
		return nil, ErrInvalidCredentials
	}

	if user.AddRole(domain.RoleFullyAuthenticated) {
		if err := s.userRepo.Update(user); err != nil {
			// Role promotion is best-effort; a login must not fail because
			// the role write raced another request.
			slog.WarnContext(ctx, "failed to persist fully-authenticated role",
				"user_id", user.ID, "error", err)
		}
	}

	token, err := s.jwtMgr.SignAccessToken(user.ID, user.Email, user.Roles, s.cfg.JWTAccessTTL)
	if err != nil {
		return nil, err
	}

	observability.RecordLogin(ctx, "success")
	return &LoginResult{User: user, Token: token, ExpiresAt: time.Now().Add(s.cfg.JWTAccessTTL)}, nil
}

// CurrentUser resolves the authenticated user from parsed token claims.
func (s *AuthService) CurrentUser(_ context.Context, claims *security.Claims) (*domain.User, error) {
	id, err := security.UserIDFromClaims(claims)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.userRepo.FindByID(id)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
