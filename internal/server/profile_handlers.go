package server

import (
	"errors"
	"fmt"
	"path/filepath"

	"bazaarhub/internal/auth"
	"bazaarhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// resolveSession identifies the acting user from the session cookie only.
// Profile management does not accept the direct-email fallback.
func (s *Server) resolveSession(c *fiber.Ctx) (*models.User, error) {
	token := c.Cookies(auth.SessionCookieName)
	if token != "" {
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
	_ = models.RespondWithError(c, fiber.StatusUnauthorized,
		models.NewUnauthorizedError("Valid session required"))
	return nil, errResponseWritten
}

// GetProfile handles GET /profile for the session user.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.resolveSession(c)
	if err != nil {
		return nil
	}

	full, err := s.userRepo.GetWithProfile(c.UserContext(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(full)
}

// UpdateProfile handles PUT /profile. Only submitted fields are changed.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	user, err := s.resolveSession(c)
	if err != nil {
		return nil
	}

	full, err := s.userRepo.GetWithProfile(c.UserContext(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	profile := full.Profile
	if profile == nil {
		profile = &models.Profile{UserID: user.ID}
	}

	fields := map[string]*string{
		"name":         &profile.Name,
		"company_name": &profile.CompanyName,
		"ntn":          &profile.NTN,
		"address":      &profile.Address,
		"country":      &profile.Country,
		"state":        &profile.State,
		"city":         &profile.City,
		"tagline":      &profile.Tagline,
		"linkedin":     &profile.LinkedIn,
		"twitter":      &profile.Twitter,
		"facebook":     &profile.Facebook,
		"instagram":    &profile.Instagram,
	}
	for field, dst := range fields {
		if v := c.FormValue(field); v != "" {
			*dst = v
		}
	}

	if err := s.userRepo.SaveProfile(c.UserContext(), profile); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(profile)
}

// UploadProfileImage handles POST /profile/image. Multipart fields: image
// (file, required) and kind ("profile" or "banner", default "profile"). The
// ProfileImage row is created lazily on first upload.
func (s *Server) UploadProfileImage(c *fiber.Ctx) error {
	user, err := s.resolveSession(c)
	if err != nil {
		return nil
	}

	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Image file is required"))
	}

	kind := c.FormValue("kind")
	if kind == "" {
		kind = "profile"
	}
	if kind != "profile" && kind != "banner" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid image kind: "+kind))
	}

	name := fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(file.Filename))
	path := filepath.Join(s.config.UploadDir, name)
	if err := c.SaveFile(file, path); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	image, err := s.userRepo.GetProfileImage(c.UserContext(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if image == nil {
		image = &models.ProfileImage{UserID: user.ID}
	}
	if kind == "banner" {
		image.BannerPic = path
	} else {
		image.ProfilePic = path
	}

	if err := s.userRepo.SaveProfileImage(c.UserContext(), image); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(image)
}
