// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"bazaarhub/internal/models"

	"gorm.io/gorm"
)

// engagementListCap bounds the likes/shares/comments enumeration endpoints.
const engagementListCap = 50

// PostRepository defines the interface for post, feed and engagement
// enumeration data operations. Counter mutations live in the engagement
// engine, not here.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListPublic(ctx context.Context) ([]*models.Post, error)
	ListInternalSharesOfPublic(ctx context.Context) ([]*models.Share, error)
	ListLikers(ctx context.Context, postID uint) ([]*models.Like, error)
	ListSharers(ctx context.Context, postID uint) ([]*models.Share, error)
	ListCommenters(ctx context.Context, postID uint) ([]*models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPublic returns all public posts with author identity preloaded for
// display resolution. The feed assembler merges and paginates in memory so
// ordering across posts and shares stays chronological.
func (r *postRepository) ListPublic(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Profile").
		Preload("User.ProfileImage").
		Where("visibility = ?", models.VisibilityPublic).
		Find(&posts).Error
	return posts, err
}

// ListInternalSharesOfPublic returns internal shares whose underlying post is
// public, with both the sharer and the original author preloaded.
func (r *postRepository) ListInternalSharesOfPublic(ctx context.Context) ([]*models.Share, error) {
	var shares []*models.Share
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Profile").
		Preload("User.ProfileImage").
		Preload("Post").
		Preload("Post.User").
		Preload("Post.User.Profile").
		Preload("Post.User.ProfileImage").
		Joins("JOIN posts ON posts.id = shares.post_id AND posts.visibility = ? AND posts.deleted_at IS NULL", models.VisibilityPublic).
		Where("shares.share_type = ?", models.ShareTypeInternal).
		Find(&shares).Error
	return shares, err
}

func (r *postRepository) ListLikers(ctx context.Context, postID uint) ([]*models.Like, error) {
	var likes []*models.Like
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Profile").
		Preload("User.ProfileImage").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Limit(engagementListCap).
		Find(&likes).Error
	return likes, err
}

func (r *postRepository) ListSharers(ctx context.Context, postID uint) ([]*models.Share, error) {
	var shares []*models.Share
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Profile").
		Preload("User.ProfileImage").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Limit(engagementListCap).
		Find(&shares).Error
	return shares, err
}

func (r *postRepository) ListCommenters(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Profile").
		Preload("User.ProfileImage").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Limit(engagementListCap).
		Find(&comments).Error
	return comments, err
}

// CreateComment inserts the comment and recomputes the post's materialized
// comments_count from the comments table in the same transaction. Unlike
// likes/shares the comment counter is not incrementally maintained.
func (r *postRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr(
				"(SELECT COUNT(*) FROM comments WHERE comments.post_id = ? AND comments.deleted_at IS NULL)",
				comment.PostID,
			)).Error
	})
}
