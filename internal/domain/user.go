package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser               = "ROLE_USER"
	RoleFullyAuthenticated = "IS_AUTHENTICATED_FULLY"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FirstName    string    `gorm:"size:25;not null" json:"firstName"`
	LastName     string    `gorm:"size:25;not null" json:"lastName"`
	FullName     string    `gorm:"size:255;not null" json:"fullName"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:1024;not null" json:"-"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	Avatar       string    `gorm:"size:1024" json:"avatar"`
	Roles        []string  `gorm:"serializer:json" json:"roles"`
	Photos       []Photo   `gorm:"constraint:OnDelete:CASCADE" json:"photos"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeSave keeps FullName a pure function of FirstName and LastName
// on every create and update.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.FullName = strings.TrimSpace(u.FirstName + " " + u.LastName)
	return nil
}

// AddRole appends a role if not already present; role entries stay unique.
func (u *User) AddRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return false
		}
	}
	u.Roles = append(u.Roles, role)
	return true
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
