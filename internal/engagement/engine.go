// Package engagement implements the transactional like/unlike/share engine:
// idempotency checks, atomic counter mutation in the relational store, and
// post-commit cache synchronization.
package engagement

import (
	"context"
	"errors"
	"fmt"

	"bazaarhub/internal/cache"
	"bazaarhub/internal/models"
	"bazaarhub/internal/observability"
	"bazaarhub/internal/ratelimit"

	"gorm.io/gorm"
)

// Sentinels returned from transaction bodies to force a rollback before the
// duplicate outcome is translated into an AlreadyDone result.
var (
	errAlreadyLiked  = errors.New("already liked")
	errAlreadyShared = errors.New("already shared")
	errNoLikeRow     = errors.New("no like to remove")
)

// Result is the outcome of an engagement action. Count is the authoritative
// post-commit counter value; AlreadyDone marks duplicate likes/internal
// shares and no-op unlikes, which are successes, not errors.
type Result struct {
	Count       int64
	AlreadyDone bool
}

// Engine mutates engagement state. The relational store is the source of
// truth; the counter cache is overwritten with the authoritative value after
// each commit, strictly outside the transaction.
type Engine struct {
	db       *gorm.DB
	counters *cache.Counters
	limiter  *ratelimit.Limiter
}

// NewEngine returns an engagement engine over the given dependencies.
func NewEngine(db *gorm.DB, counters *cache.Counters, limiter *ratelimit.Limiter) *Engine {
	return &Engine{db: db, counters: counters, limiter: limiter}
}

// resolveActors checks user and post existence in one combined round trip.
func (e *Engine) resolveActors(ctx context.Context, userID, postID uint) error {
	var found struct {
		UserFound int64
		PostFound int64
	}
	err := e.db.WithContext(ctx).Raw(
		"SELECT "+
			"(SELECT COUNT(*) FROM users WHERE id = ? AND deleted_at IS NULL) AS user_found, "+
			"(SELECT COUNT(*) FROM posts WHERE id = ? AND deleted_at IS NULL) AS post_found",
		userID, postID,
	).Scan(&found).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	if found.UserFound == 0 {
		return models.NewNotFoundError("User", userID)
	}
	if found.PostFound == 0 {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

// refresh reloads the post row to obtain the authoritative post-commit counts.
func (e *Engine) refresh(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	if err := e.db.WithContext(ctx).First(&post, postID).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// Like transitions (user, post) from not-liked to liked. Liking an already
// liked post is a no-op reported through Result.AlreadyDone with the count
// unchanged. The Like row insert and the likes_count increment commit in one
// transaction; the unique constraint on (user_id, post_id) is the final
// backstop against duplicate rows under races.
func (e *Engine) Like(ctx context.Context, userID, postID uint) (*Result, error) {
	if err := e.resolveActors(ctx, userID, postID); err != nil {
		return nil, err
	}

	if !e.limiter.Check(ctx, userID, "like") {
		observability.EngagementActions.WithLabelValues("like", "rate_limited").Inc()
		return nil, models.NewRateLimitedError("like")
	}
	e.limiter.Record(ctx, userID, "like")

	txErr := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		if err == nil {
			return errAlreadyLiked
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&models.Like{UserID: userID, PostID: postID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAlreadyLiked
			}
			return err
		}

		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error
	})

	switch {
	case txErr == nil:
		post, err := e.refresh(ctx, postID)
		if err != nil {
			return nil, err
		}
		e.counters.Set(ctx, cache.LikesKey(postID), post.LikesCount)
		observability.EngagementActions.WithLabelValues("like", "applied").Inc()
		return &Result{Count: post.LikesCount}, nil

	case errors.Is(txErr, errAlreadyLiked):
		post, err := e.refresh(ctx, postID)
		if err != nil {
			return nil, err
		}
		observability.EngagementActions.WithLabelValues("like", "already_done").Inc()
		return &Result{Count: post.LikesCount, AlreadyDone: true}, nil

	default:
		observability.EngagementActions.WithLabelValues("like", "failed").Inc()
		return nil, models.NewInternalError(fmt.Errorf("like transaction: %w", txErr))
	}
}

// Unlike removes the (user, post) like if present and decrements likes_count,
// clamped at zero, in the same transaction. With no like row it is a no-op
// that still returns the current count.
func (e *Engine) Unlike(ctx context.Context, userID, postID uint) (*Result, error) {
	if err := e.resolveActors(ctx, userID, postID); err != nil {
		return nil, err
	}

	txErr := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNoLikeRow
		}

		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("likes_count",
				gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END")).Error
	})

	switch {
	case txErr == nil:
		post, err := e.refresh(ctx, postID)
		if err != nil {
			return nil, err
		}
		e.counters.Set(ctx, cache.LikesKey(postID), post.LikesCount)
		observability.EngagementActions.WithLabelValues("unlike", "applied").Inc()
		return &Result{Count: post.LikesCount}, nil

	case errors.Is(txErr, errNoLikeRow):
		post, err := e.refresh(ctx, postID)
		if err != nil {
			return nil, err
		}
		observability.EngagementActions.WithLabelValues("unlike", "already_done").Inc()
		return &Result{Count: post.LikesCount, AlreadyDone: true}, nil

	default:
		observability.EngagementActions.WithLabelValues("unlike", "failed").Inc()
		return nil, models.NewInternalError(fmt.Errorf("unlike transaction: %w", txErr))
	}
}

// Share records a share of a post. Internal shares are deduplicated per
// (user, post) via the share dedup key; external share types are
// unconstrained to support multi-channel re-share tracking.
func (e *Engine) Share(ctx context.Context, userID, postID uint, shareType string) (*Result, error) {
	if shareType == "" {
		shareType = models.ShareTypeInternal
	}

	if err := e.resolveActors(ctx, userID, postID); err != nil {
		return nil, err
	}

	txErr := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		share := models.Share{UserID: userID, PostID: postID, ShareType: shareType}

		if shareType == models.ShareTypeInternal {
			var count int64
			if err := tx.Model(&models.Share{}).
				Where("user_id = ? AND post_id = ? AND share_type = ?", userID, postID, models.ShareTypeInternal).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errAlreadyShared
			}
			share.DedupKey = models.InternalShareDedupKey(userID, postID)
		}

		if err := tx.Create(&share).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAlreadyShared
			}
			return err
		}

		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("shares_count", gorm.Expr("shares_count + ?", 1)).Error
	})

	switch {
	case txErr == nil:
		post, err := e.refresh(ctx, postID)
		if err != nil {
			return nil, err
		}
		e.counters.Set(ctx, cache.SharesKey(postID), post.SharesCount)
		observability.EngagementActions.WithLabelValues("share", "applied").Inc()
		return &Result{Count: post.SharesCount}, nil

	case errors.Is(txErr, errAlreadyShared):
		post, err := e.refresh(ctx, postID)
		if err != nil {
			return nil, err
		}
		observability.EngagementActions.WithLabelValues("share", "already_done").Inc()
		return &Result{Count: post.SharesCount, AlreadyDone: true}, nil

	default:
		observability.EngagementActions.WithLabelValues("share", "failed").Inc()
		return nil, models.NewInternalError(fmt.Errorf("share transaction: %w", txErr))
	}
}
