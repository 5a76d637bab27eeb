package feed

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"bazaarhub/internal/cache"
	"bazaarhub/internal/models"
	"bazaarhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupFeedTestDB(t *testing.T) *gorm.DB {
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

func newTestAssembler(t *testing.T, db *gorm.DB, pageSize int) (*Assembler, *cache.Counters) {
	t.Helper()
	counters := cache.NewCountersWithClient(nil, slog.Default())
	return NewAssembler(repository.NewPostRepository(db), counters, pageSize), counters
}

func createFeedUser(t *testing.T, db *gorm.DB, email, name string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "pw", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	if name != "" {
		require.NoError(t, db.Create(&models.Profile{UserID: user.ID, Name: name}).Error)
	}
	return user
}

func TestBuildPage_MergeOrdering(t *testing.T) {
	db := setupFeedTestDB(t)
	asm, _ := newTestAssembler(t, db, 5)
	ctx := context.Background()

	author := createFeedUser(t, db, "author@example.com", "Author")
	sharer := createFeedUser(t, db, "sharer@example.com", "Sharer")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	t1 := base
	t2 := base.Add(1 * time.Hour)
	t3 := base.Add(2 * time.Hour)

	mkPost := func(content string, at time.Time) *models.Post {
		p := &models.Post{UserID: author.ID, Content: content, Visibility: models.VisibilityPublic, CreatedAt: at}
		require.NoError(t, db.Create(p).Error)
		return p
	}
	p1 := mkPost("post T1", t1)
	p2 := mkPost("post T2", t2)
	mkPost("post T3", t3)

	mkShare := func(post *models.Post, at time.Time) {
		require.NoError(t, db.Create(&models.Share{
			UserID:    sharer.ID,
			PostID:    post.ID,
			ShareType: models.ShareTypeInternal,
			DedupKey:  models.InternalShareDedupKey(sharer.ID, post.ID),
			CreatedAt: at,
		}).Error)
	}
	mkShare(p1, base.Add(30*time.Minute)) // T1.5
	mkShare(p2, base.Add(90*time.Minute)) // T2.5

	page, err := asm.BuildPage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 5)

	assert.Equal(t, "post T3", page.Items[0].Content)
	assert.Equal(t, ItemTypePost, page.Items[0].Type)
	assert.Equal(t, "post T2", page.Items[1].Content)
	assert.Equal(t, ItemTypeShare, page.Items[1].Type)
	assert.Equal(t, "post T2", page.Items[2].Content)
	assert.Equal(t, ItemTypePost, page.Items[2].Type)
	assert.Equal(t, "post T1", page.Items[3].Content)
	assert.Equal(t, ItemTypeShare, page.Items[3].Type)
	assert.Equal(t, "post T1", page.Items[4].Content)
	assert.Equal(t, ItemTypePost, page.Items[4].Type)

	assert.Equal(t, "Sharer", page.Items[1].SharedByName)
	assert.Equal(t, "Author", page.Items[1].AuthorName)
	assert.Equal(t, int64(5), page.TotalItems)
	assert.Equal(t, int64(1), page.TotalPages)
}

func TestBuildPage_DisplayNameFallbacks(t *testing.T) {
	db := setupFeedTestDB(t)
	asm, _ := newTestAssembler(t, db, 10)
	ctx := context.Background()

	// No profile name: fall back to the email local part.
	plain := createFeedUser(t, db, "carol.jones@example.com", "")
	require.NoError(t, db.Create(&models.Post{
		UserID: plain.ID, Content: "no profile", Visibility: models.VisibilityPublic,
	}).Error)

	page, err := asm.BuildPage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "carol.jones", page.Items[0].AuthorName)
}

func TestBuildPage_DeletedAuthorPlaceholder(t *testing.T) {
	db := setupFeedTestDB(t)
	asm, _ := newTestAssembler(t, db, 10)
	ctx := context.Background()

	ghost := createFeedUser(t, db, "ghost@example.com", "Ghost")
	require.NoError(t, db.Create(&models.Post{
		UserID: ghost.ID, Content: "orphaned", Visibility: models.VisibilityPublic,
	}).Error)
	require.NoError(t, db.Delete(&models.User{}, ghost.ID).Error)

	page, err := asm.BuildPage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "[user deleted]", page.Items[0].AuthorName)
}

func TestBuildPage_Pagination(t *testing.T) {
	db := setupFeedTestDB(t)
	asm, _ := newTestAssembler(t, db, 10)
	ctx := context.Background()

	author := createFeedUser(t, db, "author@example.com", "Author")
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		require.NoError(t, db.Create(&models.Post{
			UserID:     author.ID,
			Content:    "post",
			Visibility: models.VisibilityPublic,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	page1, err := asm.BuildPage(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 10)
	assert.Equal(t, int64(25), page1.TotalItems)
	assert.Equal(t, int64(3), page1.TotalPages)

	page3, err := asm.BuildPage(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, page3.Items, 5)

	page4, err := asm.BuildPage(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, page4.Items)
}

func TestBuildPage_ExcludesNonPublic(t *testing.T) {
	db := setupFeedTestDB(t)
	asm, _ := newTestAssembler(t, db, 10)
	ctx := context.Background()

	author := createFeedUser(t, db, "author@example.com", "Author")
	require.NoError(t, db.Create(&models.Post{
		UserID: author.ID, Content: "public", Visibility: models.VisibilityPublic,
	}).Error)
	require.NoError(t, db.Create(&models.Post{
		UserID: author.ID, Content: "private", Visibility: models.VisibilityPrivate,
	}).Error)
	require.NoError(t, db.Create(&models.Post{
		UserID: author.ID, Content: "connections", Visibility: models.VisibilityConnections,
	}).Error)

	page, err := asm.BuildPage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "public", page.Items[0].Content)
}

func TestBuildPage_LikesCountPrefersCache(t *testing.T) {
	db := setupFeedTestDB(t)
	asm, counters := newTestAssembler(t, db, 10)
	ctx := context.Background()

	author := createFeedUser(t, db, "author@example.com", "Author")
	post := &models.Post{
		UserID: author.ID, Content: "cached", Visibility: models.VisibilityPublic, LikesCount: 3,
	}
	require.NoError(t, db.Create(post).Error)

	// Cache disagrees with the relational value; the read path trusts the
	// cache and must not repopulate or correct it.
	counters.Set(ctx, cache.LikesKey(post.ID), 7)

	page, err := asm.BuildPage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(7), page.Items[0].LikesCount)
}

func TestBuildPage_LikesCountFallsBackToStore(t *testing.T) {
	db := setupFeedTestDB(t)
	asm, _ := newTestAssembler(t, db, 10)
	ctx := context.Background()

	author := createFeedUser(t, db, "author@example.com", "Author")
	require.NoError(t, db.Create(&models.Post{
		UserID: author.ID, Content: "uncached", Visibility: models.VisibilityPublic, LikesCount: 4,
	}).Error)

	page, err := asm.BuildPage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(4), page.Items[0].LikesCount)
}
