package engagement

import (
	"context"
	"log/slog"
	"testing"

	"bazaarhub/internal/cache"
	"bazaarhub/internal/models"
	"bazaarhub/internal/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupEngineTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.ProfileImage{},
		&models.Post{},
		&models.Like{},
		&models.Share{},
		&models.Comment{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func setupEngine(t *testing.T) (*Engine, *gorm.DB, *cache.Counters) {
	t.Helper()
	db := setupEngineTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counters := cache.NewCountersWithClient(client, slog.Default())
	t.Cleanup(func() { _ = counters.Close() })
	limiter := ratelimit.NewLimiter(counters, 60, 300)
	return NewEngine(db, counters, limiter), db, counters
}

func createUserAndPost(t *testing.T, db *gorm.DB) (*models.User, *models.Post) {
	t.Helper()
	user := &models.User{Email: "alice@example.com", PasswordHash: "pw", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	post := &models.Post{UserID: user.ID, Content: "hello bazaar", Visibility: models.VisibilityPublic}
	require.NoError(t, db.Create(post).Error)
	return user, post
}

func likesCountInDB(t *testing.T, db *gorm.DB, postID uint) int64 {
	t.Helper()
	var post models.Post
	require.NoError(t, db.First(&post, postID).Error)
	return post.LikesCount
}

func TestLike_IncrementsAndSyncsCache(t *testing.T) {
	engine, db, counters := setupEngine(t)
	ctx := context.Background()
	user, post := createUserAndPost(t, db)

	result, err := engine.Like(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Count)
	assert.False(t, result.AlreadyDone)
	assert.Equal(t, int64(1), likesCountInDB(t, db, post.ID))

	cached, ok := counters.Get(ctx, cache.LikesKey(post.ID))
	assert.True(t, ok)
	assert.Equal(t, int64(1), cached)
}

func TestLike_DuplicateIsIdempotent(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()
	user, post := createUserAndPost(t, db)

	_, err := engine.Like(ctx, user.ID, post.ID)
	require.NoError(t, err)

	result, err := engine.Like(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyDone)
	assert.Equal(t, int64(1), result.Count)
	assert.Equal(t, int64(1), likesCountInDB(t, db, post.ID))

	var rows int64
	require.NoError(t, db.Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", user.ID, post.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestLikeUnlike_Symmetry(t *testing.T) {
	engine, db, counters := setupEngine(t)
	ctx := context.Background()
	user, post := createUserAndPost(t, db)

	_, err := engine.Like(ctx, user.ID, post.ID)
	require.NoError(t, err)

	result, err := engine.Unlike(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Count)
	assert.False(t, result.AlreadyDone)
	assert.Equal(t, int64(0), likesCountInDB(t, db, post.ID))

	cached, ok := counters.Get(ctx, cache.LikesKey(post.ID))
	assert.True(t, ok)
	assert.Equal(t, int64(0), cached)
}

func TestUnlike_WithoutLikeIsNoOp(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()
	user, post := createUserAndPost(t, db)

	for i := 0; i < 3; i++ {
		result, err := engine.Unlike(ctx, user.ID, post.ID)
		require.NoError(t, err)
		assert.True(t, result.AlreadyDone)
		assert.Equal(t, int64(0), result.Count)
	}
	assert.Equal(t, int64(0), likesCountInDB(t, db, post.ID))
}

func TestLike_Scenario(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()
	alice, post := createUserAndPost(t, db)
	bob := &models.User{Email: "bob@example.com", PasswordHash: "pw", IsActive: true}
	require.NoError(t, db.Create(bob).Error)

	result, err := engine.Like(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Count)

	result, err = engine.Like(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyDone)
	assert.Equal(t, int64(1), result.Count)

	result, err = engine.Like(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Count)

	result, err = engine.Unlike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Count)
}

func TestLike_UnknownUserOrPost(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()
	user, post := createUserAndPost(t, db)

	_, err := engine.Like(ctx, user.ID+100, post.ID)
	assert.True(t, models.IsCode(err, "NOT_FOUND"))

	_, err = engine.Like(ctx, user.ID, post.ID+100)
	assert.True(t, models.IsCode(err, "NOT_FOUND"))

	assert.Equal(t, int64(0), likesCountInDB(t, db, post.ID))
}

func TestLike_RateLimited(t *testing.T) {
	db := setupEngineTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counters := cache.NewCountersWithClient(client, slog.Default())
	t.Cleanup(func() { _ = counters.Close() })
	limiter := ratelimit.NewLimiter(counters, 1, 300)
	engine := NewEngine(db, counters, limiter)

	ctx := context.Background()
	user, post := createUserAndPost(t, db)
	other := &models.Post{UserID: user.ID, Content: "second", Visibility: models.VisibilityPublic}
	require.NoError(t, db.Create(other).Error)

	_, err := engine.Like(ctx, user.ID, post.ID)
	require.NoError(t, err)

	_, err = engine.Like(ctx, user.ID, other.ID)
	assert.True(t, models.IsCode(err, "RATE_LIMITED"))
	assert.Equal(t, int64(0), likesCountInDB(t, db, other.ID))
}

func TestLike_DegradedCacheStillMutatesStore(t *testing.T) {
	db := setupEngineTestDB(t)
	counters := cache.NewCountersWithClient(nil, slog.Default())
	limiter := ratelimit.NewLimiter(counters, 1, 1)
	engine := NewEngine(db, counters, limiter)

	ctx := context.Background()
	user, post := createUserAndPost(t, db)

	// With the backend down the limiter fails open even past its ceilings,
	// and the relational counters still mutate correctly.
	result, err := engine.Like(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Count)

	result, err = engine.Unlike(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Count)
}

func TestShare_InternalDeduplicated(t *testing.T) {
	engine, db, counters := setupEngine(t)
	ctx := context.Background()
	user, post := createUserAndPost(t, db)

	result, err := engine.Share(ctx, user.ID, post.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Count)
	assert.False(t, result.AlreadyDone)

	result, err = engine.Share(ctx, user.ID, post.ID, models.ShareTypeInternal)
	require.NoError(t, err)
	assert.True(t, result.AlreadyDone)
	assert.Equal(t, int64(1), result.Count)

	cached, ok := counters.Get(ctx, cache.SharesKey(post.ID))
	assert.True(t, ok)
	assert.Equal(t, int64(1), cached)

	var post2 models.Post
	require.NoError(t, db.First(&post2, post.ID).Error)
	assert.Equal(t, int64(1), post2.SharesCount)
}

func TestShare_ExternalTypesUnconstrained(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()
	user, post := createUserAndPost(t, db)

	for i := 0; i < 3; i++ {
		result, err := engine.Share(ctx, user.ID, post.ID, models.ShareTypeTwitter)
		require.NoError(t, err)
		assert.False(t, result.AlreadyDone)
	}

	var post2 models.Post
	require.NoError(t, db.First(&post2, post.ID).Error)
	assert.Equal(t, int64(3), post2.SharesCount)
}

func TestLike_ExistingRowOutsideEngineReportsAlreadyDone(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()
	user, post := createUserAndPost(t, db)

	// A like row inserted outside the engine (e.g. by a concurrent writer)
	// must surface as AlreadyDone, not as an error or a double count.
	require.NoError(t, db.Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error)

	result, err := engine.Like(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyDone)
}

func TestLike_UniqueConstraintIsEnforced(t *testing.T) {
	_, db, _ := setupEngine(t)
	user, post := createUserAndPost(t, db)

	require.NoError(t, db.Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error)
	err := db.Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey,
		"the storage-level unique constraint is the backstop the engine relies on")
}
