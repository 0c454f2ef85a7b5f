package service

import (
	"context"

	"github.com/photoshare/photoshare-api/internal/domain"
	"github.com/photoshare/photoshare-api/internal/security"
	"github.com/photoshare/photoshare-api/internal/storage"
)

type RegistrationServiceInterface interface {
	Register(ctx context.Context, in RegisterInput, backend storage.Backend) (*domain.User, error)
}

type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	CurrentUser(ctx context.Context, claims *security.Claims) (*domain.User, error)
}
