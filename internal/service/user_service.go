package service

import (
	"time"

	"github.com/photoshare/photoshare-api/internal/domain"
	"github.com/photoshare/photoshare-api/internal/repository"
)

// UserService is the read-side directory over registered users.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ActiveUsersCreatedSince feeds the newsletter batch job. The result
// carries no guaranteed order.
func (s *UserService) ActiveUsersCreatedSince(since time.Time) ([]domain.User, error) {
	return s.userRepo.FindActiveCreatedSince(since)
}
