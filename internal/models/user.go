// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents a registered BazaarHub account (vendor or buyer).
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"unique;not null" json:"email"`
	Mobile       *string        `gorm:"unique" json:"mobile,omitempty"`
	PasswordHash string         `gorm:"not null" json:"-"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	IsVendor     bool           `gorm:"default:false" json:"is_vendor"`
	Gender       string         `json:"gender,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Profile      *Profile      `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	ProfileImage *ProfileImage `gorm:"foreignKey:UserID" json:"profile_image,omitempty"`
}

// DisplayName resolves the name shown in feeds and engagement lists:
// profile name first, then the local part of the email address.
func (u *User) DisplayName() string {
	if u.Profile != nil && u.Profile.Name != "" {
		return u.Profile.Name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// DisplayPicture returns the profile picture path if one has been uploaded.
func (u *User) DisplayPicture() string {
	if u.ProfileImage != nil {
		return u.ProfileImage.ProfilePic
	}
	return ""
}
