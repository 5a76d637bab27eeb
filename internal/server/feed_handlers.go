package server

import (
	"bazaarhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /feed?page=N and returns one page of the merged
// reverse-chronological timeline of public posts and internal shares.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	result, err := s.feed.BuildPage(c.UserContext(), page)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(result)
}
