// Package feed merges original public posts and internal shares into one
// reverse-chronological, paginated timeline.
package feed

import (
	"context"
	"sort"
	"time"

	"bazaarhub/internal/cache"
	"bazaarhub/internal/models"
	"bazaarhub/internal/observability"
	"bazaarhub/internal/repository"
)

// Item types in the merged timeline.
const (
	ItemTypePost  = "post"
	ItemTypeShare = "share"
)

// DefaultPageSize matches the original timeline pagination.
const DefaultPageSize = 10

// Item is one entry in the merged timeline: either an original post or an
// internal share of one. Timestamp is post.created_at for originals and
// share.created_at for shares, and drives the merged ordering.
type Item struct {
	Type            string    `json:"type"`
	PostID          uint      `json:"post_id"`
	Content         string    `json:"content"`
	ImageURL        string    `json:"image_url,omitempty"`
	AuthorName      string    `json:"author_name"`
	AuthorPicture   string    `json:"author_picture,omitempty"`
	SharedByName    string    `json:"shared_by_name,omitempty"`
	SharedByPicture string    `json:"shared_by_picture,omitempty"`
	LikesCount      int64     `json:"likes_count"`
	CommentsCount   int64     `json:"comments_count"`
	SharesCount     int64     `json:"shares_count"`
	Timestamp       time.Time `json:"timestamp"`
}

// Page is one page of the merged timeline.
type Page struct {
	Items      []Item `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalItems int64  `json:"total_items"`
	TotalPages int64  `json:"total_pages"`
}

// Assembler builds timeline pages. Likes counts are read from the counter
// cache first with a relational fallback; the read path never repopulates
// the cache.
type Assembler struct {
	posts    repository.PostRepository
	counters *cache.Counters
	pageSize int
}

// NewAssembler returns a feed assembler with the given page size
// (DefaultPageSize when non-positive).
func NewAssembler(posts repository.PostRepository, counters *cache.Counters, pageSize int) *Assembler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Assembler{posts: posts, counters: counters, pageSize: pageSize}
}

// displayName resolves the identity shown for a (possibly deleted) author.
func displayName(u *models.User) string {
	if u == nil || u.ID == 0 {
		return "[user deleted]"
	}
	return u.DisplayName()
}

func displayPicture(u *models.User) string {
	if u == nil || u.ID == 0 {
		return ""
	}
	return u.DisplayPicture()
}

// likesCount prefers the cached counter and falls back to the relational
// value when absent.
func (a *Assembler) likesCount(ctx context.Context, post *models.Post) int64 {
	if v, ok := a.counters.Get(ctx, cache.LikesKey(post.ID)); ok {
		return v
	}
	return post.LikesCount
}

func (a *Assembler) sharesCount(ctx context.Context, post *models.Post) int64 {
	if v, ok := a.counters.Get(ctx, cache.SharesKey(post.ID)); ok {
		return v
	}
	return post.SharesCount
}

// BuildPage assembles the requested timeline page. Both content types are
// merged and sorted before pagination is applied so ordering stays
// chronological across them.
func (a *Assembler) BuildPage(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	posts, err := a.posts.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	shares, err := a.posts.ListInternalSharesOfPublic(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(posts)+len(shares))
	for _, p := range posts {
		items = append(items, Item{
			Type:          ItemTypePost,
			PostID:        p.ID,
			Content:       p.Content,
			ImageURL:      p.ImageURL,
			AuthorName:    displayName(&p.User),
			AuthorPicture: displayPicture(&p.User),
			LikesCount:    a.likesCount(ctx, p),
			CommentsCount: p.CommentsCount,
			SharesCount:   a.sharesCount(ctx, p),
			Timestamp:     p.CreatedAt,
		})
	}
	for _, s := range shares {
		items = append(items, Item{
			Type:            ItemTypeShare,
			PostID:          s.PostID,
			Content:         s.Post.Content,
			ImageURL:        s.Post.ImageURL,
			AuthorName:      displayName(&s.Post.User),
			AuthorPicture:   displayPicture(&s.Post.User),
			SharedByName:    displayName(&s.User),
			SharedByPicture: displayPicture(&s.User),
			LikesCount:      a.likesCount(ctx, &s.Post),
			CommentsCount:   s.Post.CommentsCount,
			SharesCount:     a.sharesCount(ctx, &s.Post),
			Timestamp:       s.CreatedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	total := int64(len(items))
	totalPages := (total + int64(a.pageSize) - 1) / int64(a.pageSize)

	offset := (page - 1) * a.pageSize
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + a.pageSize
	if end > len(items) {
		end = len(items)
	}

	observability.FeedPagesServed.Inc()

	return &Page{
		Items:      items[offset:end],
		Page:       page,
		PageSize:   a.pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}
