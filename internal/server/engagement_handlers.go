package server

import (
	"strconv"

	"bazaarhub/internal/engagement"
	"bazaarhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /like-post. Form fields: post_id (required), action
// ("like" or "unlike", default "like"), and optionally email when no session
// cookie is present.
//
// The success body is the literal authoritative likes count as plain text so
// client UI can render it without parsing. A duplicate like responds
// "already liked" with the count unchanged; unliking without a prior like is
// a silent no-op that still returns the current count.
func (s *Server) LikePost(c *fiber.Ctx) error {
	user, err := s.resolveActor(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseFormID(c, "post_id")
	if err != nil {
		return nil
	}

	action := c.FormValue("action")
	if action == "" {
		action = "like"
	}

	var result *engagement.Result
	switch action {
	case "like":
		result, err = s.engine.Like(c.UserContext(), user.ID, postID)
	case "unlike":
		result, err = s.engine.Unlike(c.UserContext(), user.ID, postID)
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid action: "+action))
	}
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	if result.AlreadyDone && action == "like" {
		return c.SendString("already liked")
	}
	return c.SendString(strconv.FormatInt(result.Count, 10))
}

// SharePost handles POST /share-post. Form fields: post_id (required),
// share_type (default "internal"), optionally email. Shares are not rate
// limited. Duplicate internal shares respond "already shared".
func (s *Server) SharePost(c *fiber.Ctx) error {
	user, err := s.resolveActor(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseFormID(c, "post_id")
	if err != nil {
		return nil
	}

	result, err := s.engine.Share(c.UserContext(), user.ID, postID, c.FormValue("share_type"))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	if result.AlreadyDone {
		return c.SendString("already shared")
	}
	return c.SendString(strconv.FormatInt(result.Count, 10))
}
