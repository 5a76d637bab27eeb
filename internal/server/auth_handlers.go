package server

import (
	"errors"
	"strings"
	"time"

	"bazaarhub/internal/auth"
	"bazaarhub/internal/models"
	"bazaarhub/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Register handles POST /register. Form fields: email, mobile, password
// (required), is_vendor, company_name. Creates the account and its profile;
// a duplicate email responds 400.
func (s *Server) Register(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	mobile := strings.TrimSpace(c.FormValue("mobile"))
	password := c.FormValue("password")

	if email == "" || password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}
	if err := validation.Email(email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid email format"))
	}
	if err := validation.Password(password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	exists, err := s.userRepo.EmailExists(c.UserContext(), email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if exists {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email already registered"))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsVendor:     c.FormValue("is_vendor") == "true",
		Gender:       c.FormValue("gender"),
	}
	if mobile != "" {
		user.Mobile = &mobile
	}

	if err := s.userRepo.Create(c.UserContext(), &user); err != nil {
		// The unique constraints on email/mobile are the backstop against
		// concurrent registrations passing the pre-check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Email already registered"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	profile := models.Profile{
		UserID:      user.ID,
		Name:        c.FormValue("name"),
		CompanyName: c.FormValue("company_name"),
	}
	if err := s.userRepo.SaveProfile(c.UserContext(), &profile); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"email": user.Email,
	})
}

// Login handles POST /login. Form fields: email_or_mobile, password. On
// success a session cookie is set; the token is opaque and resolved
// server-side.
func (s *Server) Login(c *fiber.Ctx) error {
	identifier := strings.TrimSpace(c.FormValue("email_or_mobile"))
	password := c.FormValue("password")
	if identifier == "" || password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("email_or_mobile and password are required"))
	}

	user, err := s.userRepo.GetByEmailOrMobile(c.UserContext(), identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid credentials"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	token := s.sessions.Create(user.Email)
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(time.Duration(s.config.SessionTTLHours) * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{"message": "Logged in", "user_id": user.ID})
}

// Logout handles POST /logout, invalidating the session server-side and
// expiring the cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(auth.SessionCookieName); token != "" {
		s.sessions.Destroy(token)
	}
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// ValidateEmail handles GET /validate/email/:email — format check plus
// availability. Always 200; the body carries the verdict.
func (s *Server) ValidateEmail(c *fiber.Ctx) error {
	email := c.Params("email")
	if err := validation.Email(email); err != nil {
		return c.JSON(fiber.Map{"valid": false, "message": "Invalid email format"})
	}

	exists, err := s.userRepo.EmailExists(c.UserContext(), email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if exists {
		return c.JSON(fiber.Map{"valid": false, "message": "Email already registered"})
	}
	return c.JSON(fiber.Map{"valid": true, "message": "Email is available"})
}

// ValidateMobile handles GET /validate/mobile/:mobile.
func (s *Server) ValidateMobile(c *fiber.Ctx) error {
	mobile := c.Params("mobile")
	if err := validation.Mobile(mobile); err != nil {
		return c.JSON(fiber.Map{"valid": false, "message": "Invalid mobile number format"})
	}

	exists, err := s.userRepo.MobileExists(c.UserContext(), mobile)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if exists {
		return c.JSON(fiber.Map{"valid": false, "message": "Mobile number already registered"})
	}
	return c.JSON(fiber.Map{"valid": true, "message": "Mobile number is available"})
}

// ValidateNTN handles GET /validate/ntn/:ntn — a 7-digit National Tax Number
// format check for vendor registration.
func (s *Server) ValidateNTN(c *fiber.Ctx) error {
	ntn := c.Params("ntn")
	if err := validation.NTN(ntn); err != nil {
		return c.JSON(fiber.Map{"valid": false, "message": "Invalid NTN format"})
	}
	return c.JSON(fiber.Map{"valid": true, "message": "NTN is valid"})
}
