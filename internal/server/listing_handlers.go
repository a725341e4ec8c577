package server

import (
	"encoding/json"
	"io"

	"stoop/internal/models"
	"stoop/internal/repository"
	"stoop/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchListings handles GET /api/listings
func (s *Server) SearchListings(c *fiber.Ctx) error {
	filter := repository.ListingFilter{
		Query:     c.Query("search"),
		Category:  c.Query("category"),
		Condition: c.Query("condition"),
	}
	if v := c.Query("minPrice"); v != "" {
		price, err := parsePrice(v)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid minPrice"))
		}
		filter.MinPrice = &price
	}
	if v := c.Query("maxPrice"); v != "" {
		price, err := parsePrice(v)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid maxPrice"))
		}
		filter.MaxPrice = &price
	}

	result, err := s.listingService.Search(c.Context(), service.SearchInput{
		Filter:   filter,
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("limit", service.DefaultPageSize),
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(result)
}

// GetListing handles GET /api/listings/:id
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	listing, err := s.listingService.Get(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(listing)
}

// CreateListing handles POST /api/listings. The request is multipart: an
// "image" file part plus a "data" field carrying the listing JSON.
func (s *Server) CreateListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Category    string  `json:"category"`
		Condition   string  `json:"condition"`
	}
	if err := json.Unmarshal([]byte(c.FormValue("data")), &req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid listing data"))
	}

	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("An image is required"))
	}
	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	imageURL, err := s.imageService.Store(file.Filename, content)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	listing, err := s.listingService.Create(c.Context(), service.CreateListingInput{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Condition:   req.Condition,
		ImageURL:    imageURL,
	})
	if err != nil {
		// The image was stored before validation of the row; drop it so a
		// rejected listing leaves no orphaned file.
		_ = s.imageService.Remove(imageURL)
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(listing)
}

// ToggleLike handles POST /api/listings/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	liked, err := s.listingService.ToggleLike(c.Context(), userID, id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"liked": liked})
}

// DeleteListing handles DELETE /api/listings/:id
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.listingService.Delete(c.Context(), userID, id); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"success": true})
}
