// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post visibility levels.
const (
	VisibilityPublic      = "public"
	VisibilityConnections = "connections"
	VisibilityPrivate     = "private"
)

// Post is authored content with denormalized engagement counters.
// LikesCount and SharesCount are mutated only by the engagement engine
// (and the reconcile command); CommentsCount is recomputed from the
// comments table on every comment write.
type Post struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	Content    string `gorm:"type:text;not null" json:"content"`
	ImageURL   string `json:"image_url,omitempty"`
	Visibility string `gorm:"default:public;index" json:"visibility"`

	LikesCount    int64 `gorm:"default:0" json:"likes_count"`
	CommentsCount int64 `gorm:"default:0" json:"comments_count"`
	SharesCount   int64 `gorm:"default:0" json:"shares_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
