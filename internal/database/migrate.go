package database

import (
	"github.com/photoshare/photoshare-api/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Photo{},
	)
}
