package server

import (
	"errors"
	"strings"
	"time"

	"bazaarhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// engagementEntry is one actor in a likes/shares/comments enumeration.
type engagementEntry struct {
	UserID    uint      `json:"user_id"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture,omitempty"`
	ShareType string    `json:"share_type,omitempty"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func entryIdentity(u *models.User) (string, string) {
	if u == nil || u.ID == 0 {
		return "[user deleted]", ""
	}
	return u.DisplayName(), u.DisplayPicture()
}

// CreatePost handles POST /posts. Form fields: content (required), image_url,
// visibility (default public).
func (s *Server) CreatePost(c *fiber.Ctx) error {
	user, err := s.resolveActor(c)
	if err != nil {
		return nil
	}

	content := strings.TrimSpace(c.FormValue("content"))
	if content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Post content is required"))
	}

	visibility := c.FormValue("visibility")
	switch visibility {
	case "":
		visibility = models.VisibilityPublic
	case models.VisibilityPublic, models.VisibilityConnections, models.VisibilityPrivate:
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid visibility: "+visibility))
	}

	post := models.Post{
		UserID:     user.ID,
		Content:    content,
		ImageURL:   c.FormValue("image_url"),
		Visibility: visibility,
	}
	if err := s.postRepo.Create(c.UserContext(), &post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// requirePost writes a 404 and returns errResponseWritten when the post does
// not exist.
func (s *Server) requirePost(c *fiber.Ctx, postID uint) error {
	_, err := s.postRepo.GetByID(c.UserContext(), postID)
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", postID))
	} else {
		_ = models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return errResponseWritten
}

// GetPostLikes handles GET /api/posts/:id/likes — the most recent users who
// liked the post, capped at 50.
func (s *Server) GetPostLikes(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.requirePost(c, postID); err != nil {
		return nil
	}

	likes, err := s.postRepo.ListLikers(c.UserContext(), postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	entries := make([]engagementEntry, 0, len(likes))
	for _, l := range likes {
		name, picture := entryIdentity(&l.User)
		entries = append(entries, engagementEntry{
			UserID:    l.UserID,
			Name:      name,
			Picture:   picture,
			CreatedAt: l.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"post_id": postID, "likes": entries})
}

// GetPostShares handles GET /api/posts/:id/shares.
func (s *Server) GetPostShares(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.requirePost(c, postID); err != nil {
		return nil
	}

	shares, err := s.postRepo.ListSharers(c.UserContext(), postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	entries := make([]engagementEntry, 0, len(shares))
	for _, sh := range shares {
		name, picture := entryIdentity(&sh.User)
		entries = append(entries, engagementEntry{
			UserID:    sh.UserID,
			Name:      name,
			Picture:   picture,
			ShareType: sh.ShareType,
			CreatedAt: sh.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"post_id": postID, "shares": entries})
}

// GetPostComments handles GET /api/posts/:id/comments.
func (s *Server) GetPostComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.requirePost(c, postID); err != nil {
		return nil
	}

	comments, err := s.postRepo.ListCommenters(c.UserContext(), postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	entries := make([]engagementEntry, 0, len(comments))
	for _, cm := range comments {
		name, picture := entryIdentity(&cm.User)
		entries = append(entries, engagementEntry{
			UserID:    cm.UserID,
			Name:      name,
			Picture:   picture,
			Content:   cm.Content,
			CreatedAt: cm.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"post_id": postID, "comments": entries})
}

// CreateComment handles POST /api/posts/:id/comments. The post's
// comments_count is recomputed from the comments table in the same
// transaction as the insert.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	user, err := s.resolveActor(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.requirePost(c, postID); err != nil {
		return nil
	}

	content := strings.TrimSpace(c.FormValue("content"))
	if content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Comment content is required"))
	}

	comment := models.Comment{UserID: user.ID, PostID: postID, Content: content}
	if err := s.postRepo.CreateComment(c.UserContext(), &comment); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}
