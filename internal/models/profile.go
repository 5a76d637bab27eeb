// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile holds business/personal metadata for a user. One-to-one with User,
// created at registration.
type Profile struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`

	Name        string `json:"name"`
	CompanyName string `json:"company_name,omitempty"`
	// NTN is the National Tax Number for vendor accounts.
	NTN     string `json:"ntn,omitempty"`
	Address string `gorm:"type:text" json:"address,omitempty"`
	Country string `json:"country,omitempty"`
	State   string `json:"state,omitempty"`
	City    string `json:"city,omitempty"`
	Tagline string `json:"tagline,omitempty"`

	LinkedIn  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`

	ConnectionsCount int `gorm:"default:0" json:"connections_count"`
	FollowersCount   int `gorm:"default:0" json:"followers_count"`
	FollowingCount   int `gorm:"default:0" json:"following_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ProfileImage stores uploaded picture paths for a user. One-to-one with User,
// lazily created on first upload.
type ProfileImage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	ProfilePic string    `json:"profile_pic,omitempty"`
	BannerPic  string    `json:"banner_pic,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
