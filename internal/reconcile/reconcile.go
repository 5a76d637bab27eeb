// Package reconcile recomputes the denormalized post counters from the
// source-of-truth join tables. It is an out-of-band repair tool: the request
// path trusts the per-row counters, and this package restores the invariant
// likes_count == count(likes) when something has drifted.
package reconcile

import (
	"context"

	"bazaarhub/internal/cache"
	"bazaarhub/internal/models"

	"gorm.io/gorm"
)

// Correction records one repaired counter.
type Correction struct {
	PostID  uint
	Column  string
	OldVal  int64
	TrueVal int64
}

// Report summarizes a reconciliation run.
type Report struct {
	PostsScanned int
	Corrections  []Correction
}

// Run recomputes likes_count and shares_count for every post. When counters
// is non-nil the cache entry for each corrected post is overwritten with the
// authoritative value so readers converge immediately.
func Run(ctx context.Context, db *gorm.DB, counters *cache.Counters) (*Report, error) {
	var posts []models.Post
	if err := db.WithContext(ctx).Select("id", "likes_count", "shares_count").Find(&posts).Error; err != nil {
		return nil, err
	}

	report := &Report{PostsScanned: len(posts)}
	for _, post := range posts {
		var likeCount, shareCount int64
		if err := db.WithContext(ctx).Model(&models.Like{}).
			Where("post_id = ?", post.ID).Count(&likeCount).Error; err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).Model(&models.Share{}).
			Where("post_id = ?", post.ID).Count(&shareCount).Error; err != nil {
			return nil, err
		}

		if likeCount != post.LikesCount {
			if err := db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("likes_count", likeCount).Error; err != nil {
				return nil, err
			}
			report.Corrections = append(report.Corrections, Correction{
				PostID: post.ID, Column: "likes_count", OldVal: post.LikesCount, TrueVal: likeCount,
			})
			if counters != nil {
				counters.Set(ctx, cache.LikesKey(post.ID), likeCount)
			}
		}

		if shareCount != post.SharesCount {
			if err := db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("shares_count", shareCount).Error; err != nil {
				return nil, err
			}
			report.Corrections = append(report.Corrections, Correction{
				PostID: post.ID, Column: "shares_count", OldVal: post.SharesCount, TrueVal: shareCount,
			})
			if counters != nil {
				counters.Set(ctx, cache.SharesKey(post.ID), shareCount)
			}
		}
	}
	return report, nil
}
