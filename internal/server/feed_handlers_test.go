package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bazaarhub/internal/feed"
	"bazaarhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFeed_MergedPage(t *testing.T) {
	_, app, db := setupTestServer(t)
	author := createTestUser(t, db, "author@example.com")
	sharer := createTestUser(t, db, "sharer@example.com")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	post := &models.Post{
		UserID: author.ID, Content: "original", Visibility: models.VisibilityPublic, CreatedAt: base,
	}
	require.NoError(t, db.Create(post).Error)
	require.NoError(t, db.Create(&models.Share{
		UserID:    sharer.ID,
		PostID:    post.ID,
		ShareType: models.ShareTypeInternal,
		DedupKey:  models.InternalShareDedupKey(sharer.ID, post.ID),
		CreatedAt: base.Add(time.Hour),
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/feed?page=1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page feed.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, feed.ItemTypeShare, page.Items[0].Type)
	assert.Equal(t, feed.ItemTypePost, page.Items[1].Type)
	assert.Equal(t, int64(2), page.TotalItems)
	assert.Equal(t, int64(1), page.TotalPages)
	assert.Equal(t, 10, page.PageSize)
}

func TestGetFeed_InvalidPageDefaultsToFirst(t *testing.T) {
	_, app, db := setupTestServer(t)
	author := createTestUser(t, db, "author@example.com")
	createTestPost(t, db, author.ID)

	req := httptest.NewRequest(http.MethodGet, "/feed?page=-3", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page feed.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Items, 1)
}

func TestGetFeed_EmptyDatabase(t *testing.T) {
	_, app, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page feed.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.TotalItems)
}
