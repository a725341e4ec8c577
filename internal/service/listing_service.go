package service

import (
	"context"
	"log/slog"
	"strings"

	"stoop/internal/middleware"
	"stoop/internal/models"
	"stoop/internal/observability"
	"stoop/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	maxTitleLen       = 140
	maxDescriptionLen = 5000
	maxCategoryLen    = 64
)

// ListingService implements listing search, creation, deletion and likes.
type ListingService struct {
	listings repository.ListingRepository
	images   *ImageService
}

// NewListingService returns a new ListingService.
func NewListingService(listings repository.ListingRepository, images *ImageService) *ListingService {
	return &ListingService{listings: listings, images: images}
}

// SearchInput carries the filter plus 1-based pagination.
type SearchInput struct {
	Filter   repository.ListingFilter
	Page     int
	PageSize int
}

// SearchResult is the paged search response.
type SearchResult struct {
	Listings []models.Listing `json:"listings"`
	Total    int64            `json:"total"`
	Pages    int              `json:"pages"`
}

// Search runs a filtered listing search. Out-of-range pagination values are
// clamped rather than rejected.
func (s *ListingService) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	pageSize := in.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	if in.Filter.MinPrice != nil && *in.Filter.MinPrice < 0 {
		return nil, models.NewValidationError("minimum price cannot be negative")
	}
	if in.Filter.MaxPrice != nil && *in.Filter.MaxPrice < 0 {
		return nil, models.NewValidationError("maximum price cannot be negative")
	}
	if in.Filter.Condition != "" && !models.IsValidCondition(in.Filter.Condition) {
		return nil, models.NewValidationError("unknown condition filter")
	}

	filtered := "false"
	if !in.Filter.Empty() {
		filtered = "true"
	}
	observability.ListingSearches.WithLabelValues(filtered).Inc()

	offset := (page - 1) * pageSize
	listings, total, err := s.listings.Search(ctx, in.Filter, pageSize, offset)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if listings == nil {
		listings = []models.Listing{}
	}
	return &SearchResult{Listings: listings, Total: total, Pages: pages}, nil
}

// Get returns a single listing with its computed fields.
func (s *ListingService) Get(ctx context.Context, id uint) (*models.Listing, error) {
	return s.listings.GetByID(ctx, id)
}

// CreateListingInput holds the fields needed to post a listing. ImageURL is
// the public path produced by ImageService.Store.
type CreateListingInput struct {
	UserID      uint
	Title       string
	Description string
	Price       float64
	Category    string
	Condition   string
	ImageURL    string
}

// Create validates and stores a new listing, returning it with computed
// fields populated.
func (s *ListingService) Create(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("title is too long")
	}
	if len(in.Description) > maxDescriptionLen {
		return nil, models.NewValidationError("description is too long")
	}
	if in.Price < 0 {
		return nil, models.NewValidationError("price cannot be negative")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" || len(category) > maxCategoryLen {
		return nil, models.NewValidationError("category is required")
	}
	if !models.IsValidCondition(in.Condition) {
		return nil, models.NewValidationError("unknown condition")
	}
	if in.ImageURL == "" {
		return nil, models.NewValidationError("image is required")
	}

	listing := &models.Listing{
		UserID:      in.UserID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    category,
		Condition:   in.Condition,
		ImageURL:    in.ImageURL,
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, err
	}

	return s.listings.GetByID(ctx, listing.ID)
}

// ToggleLike flips the caller's like on a listing and reports the new state.
func (s *ListingService) ToggleLike(ctx context.Context, userID, listingID uint) (bool, error) {
	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return false, err
	}

	liked, err := s.listings.ToggleLike(ctx, userID, listingID)
	if err != nil {
		return false, err
	}

	state := "unliked"
	if liked {
		state = "liked"
	}
	observability.LikesToggled.WithLabelValues(state).Inc()
	return liked, nil
}

// Delete removes the requester's listing. The image file is removed best
// effort; a leftover file never fails the delete.
func (s *ListingService) Delete(ctx context.Context, requesterID, listingID uint) error {
	deleted, err := s.listings.DeleteOwned(ctx, requesterID, listingID)
	if err != nil {
		return err
	}

	if deleted.ImageURL != "" {
		if err := s.images.Remove(deleted.ImageURL); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove listing image",
				slog.Uint64("listing_id", uint64(listingID)),
				slog.String("image_url", deleted.ImageURL),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// ListOwned returns the user's own listings, newest first.
func (s *ListingService) ListOwned(ctx context.Context, userID uint) ([]models.Listing, error) {
	return s.listings.ListByOwner(ctx, userID)
}

// ListLiked returns the listings the user has liked, most recent like first.
func (s *ListingService) ListLiked(ctx context.Context, userID uint) ([]models.Listing, error) {
	return s.listings.ListLikedBy(ctx, userID)
}
