// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"time"
)

// Share types. ShareTypeInternal is recorded within the platform's own data
// model and deduplicated per (user, post); external types track re-shares to
// other channels and are unconstrained.
const (
	ShareTypeInternal     = "internal"
	ShareTypeExternalLink = "external_link"
	ShareTypeFacebook     = "facebook"
	ShareTypeTwitter      = "twitter"
)

// Share records a user sharing a post.
//
// DedupKey is populated only for internal shares ("internal:{user}:{post}")
// and carries a unique index; NULL values never collide, so external share
// types remain unconstrained while the database enforces at most one internal
// share per (user, post) under races.
type Share struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	ShareType string    `gorm:"not null;default:internal" json:"share_type"`
	DedupKey  *string   `gorm:"uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Post Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
}

// InternalShareDedupKey builds the dedup key enforcing one internal share
// per (user, post).
func InternalShareDedupKey(userID, postID uint) *string {
	k := fmt.Sprintf("internal:%d:%d", userID, postID)
	return &k
}
