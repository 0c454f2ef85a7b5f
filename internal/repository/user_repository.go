package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/photoshare/photoshare-api/internal/domain"
)

type UserRepository interface {
	FindByID(id uint) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	// Create persists the user together with its photos in one transaction.
	Create(user *domain.User) error
	Update(user *domain.User) error
	// FindActiveCreatedSince returns active users created at or after the
	// given time. Result order is not guaranteed.
	FindActiveCreatedSince(since time.Time) ([]domain.User, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.Preload("Photos").First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Preload("Photos").Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) Create(user *domain.User) error { return r.db.Create(user).Error }
func (r *GormUserRepository) Update(user *domain.User) error { return r.db.Save(user).Error }

func (r *GormUserRepository) FindActiveCreatedSince(since time.Time) ([]domain.User, error) {
	var users []domain.User
	err := r.db.Where("active = ? AND created_at >= ?", true, since).Find(&users).Error
	return users, err
}
