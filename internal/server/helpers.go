package server

import (
	"errors"
	"strconv"

	"bazaarhub/internal/auth"
	"bazaarhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// resolveActor identifies the acting user: the session cookie is preferred,
// with the "email" form field as a direct fallback for clients without a
// session. On failure it writes the response (401 when no identity was
// supplied, 404 when a supplied email matches no account) and returns
// errResponseWritten.
func (s *Server) resolveActor(c *fiber.Ctx) (*models.User, error) {
	if token := c.Cookies(auth.SessionCookieName); token != "" {
		if email, ok := s.sessions.Resolve(token); ok {
			user, err := s.userRepo.GetByEmail(c.UserContext(), email)
			if err == nil {
				c.Locals("userID", user.ID)
				return user, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				_ = models.RespondWithError(c, fiber.StatusInternalServerError,
					models.NewInternalError(err))
				return nil, errResponseWritten
			}
		}
	}

	if email := c.FormValue("email"); email != "" {
		user, err := s.userRepo.GetByEmail(c.UserContext(), email)
		if err == nil {
			c.Locals("userID", user.ID)
			return user, nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("User", email))
			return nil, errResponseWritten
		}
		_ = models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
		return nil, errResponseWritten
	}

	_ = models.RespondWithError(c, fiber.StatusUnauthorized,
		models.NewUnauthorizedError("Session or email required"))
	return nil, errResponseWritten
}

// parseID extracts a route parameter as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseFormID extracts a form field as a positive uint with the same
// write-and-sentinel contract as parseID.
func (s *Server) parseFormID(c *fiber.Ctx, field string) (uint, error) {
	id, err := strconv.Atoi(c.FormValue(field))
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+field))
		return 0, errResponseWritten
	}
	return uint(id), nil
}
