package server

import (
	"strings"

	"stoop/internal/models"
	"stoop/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:username
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Params("username"))
	if username == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid username"))
	}

	profile, err := s.userService.GetProfile(c.Context(), username)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(profile)
}

// GetMyListings handles GET /api/users/me/listings
func (s *Server) GetMyListings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	listings, err := s.listingService.ListOwned(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	return c.JSON(fiber.Map{"listings": listings})
}

// GetMyLikes handles GET /api/users/me/likes
func (s *Server) GetMyLikes(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	listings, err := s.listingService.ListLiked(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	return c.JSON(fiber.Map{"listings": listings})
}

// UpdateMyProfile handles PATCH /api/users/me. Absent fields are left alone.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), userID, req)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}
