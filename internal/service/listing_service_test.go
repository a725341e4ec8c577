package service

import (
	"context"
	"strings"
	"testing"

	"stoop/internal/config"
	"stoop/internal/models"
	"stoop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingService_Search_Pagination(t *testing.T) {
	db := setupServiceTestDB(t)
	images := NewImageService(&config.Config{UploadDir: t.TempDir(), MaxUploadMB: 5})
	svc := NewListingService(repository.NewListingRepository(db), images)
	ctx := context.Background()

	owner := createUser(t, db, "seller")
	for i := 0; i < 25; i++ {
		createListing(t, db, owner.ID, "Item "+strings.Repeat("x", i+1), float64(i))
	}

	t.Run("defaults fill in for zero values", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchInput{})
		require.NoError(t, err)
		assert.Equal(t, int64(25), res.Total)
		assert.Len(t, res.Listings, DefaultPageSize)
		assert.Equal(t, 2, res.Pages)
	})

	t.Run("negative page clamps to first", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchInput{Page: -3, PageSize: 10})
		require.NoError(t, err)
		assert.Len(t, res.Listings, 10)
		assert.Equal(t, 3, res.Pages)
	})

	t.Run("oversized page size clamps to max", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchInput{PageSize: 10000})
		require.NoError(t, err)
		assert.Len(t, res.Listings, 25)
		assert.Equal(t, 1, res.Pages)
	})

	t.Run("page past the end is empty but keeps total", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchInput{Page: 9, PageSize: 10})
		require.NoError(t, err)
		assert.Empty(t, res.Listings)
		assert.Equal(t, int64(25), res.Total)
		assert.Equal(t, 3, res.Pages)
	})

	t.Run("negative price filter rejected", func(t *testing.T) {
		min := -5.0
		_, err := svc.Search(ctx, SearchInput{Filter: repository.ListingFilter{MinPrice: &min}})
		assertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("unknown condition filter rejected", func(t *testing.T) {
		_, err := svc.Search(ctx, SearchInput{Filter: repository.ListingFilter{Condition: "Mint"}})
		assertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestListingService_Create(t *testing.T) {
	db := setupServiceTestDB(t)
	images := NewImageService(&config.Config{UploadDir: t.TempDir(), MaxUploadMB: 5})
	svc := NewListingService(repository.NewListingRepository(db), images)
	ctx := context.Background()

	owner := createUser(t, db, "seller")

	valid := CreateListingInput{
		UserID:      owner.ID,
		Title:       "  Standing desk  ",
		Description: "barely used",
		Price:       120,
		Category:    "furniture",
		Condition:   models.ConditionLikeNew,
		ImageURL:    "/images/0123456789abcdef0123456789abcdef.jpg",
	}

	t.Run("success trims and returns computed fields", func(t *testing.T) {
		listing, err := svc.Create(ctx, valid)
		require.NoError(t, err)
		assert.Equal(t, "Standing desk", listing.Title)
		assert.Equal(t, "seller", listing.Username)
		assert.Equal(t, 0, listing.LikesCount)
	})

	tests := []struct {
		name   string
		mutate func(*CreateListingInput)
	}{
		{"empty title", func(in *CreateListingInput) { in.Title = "   " }},
		{"long title", func(in *CreateListingInput) { in.Title = strings.Repeat("t", 141) }},
		{"negative price", func(in *CreateListingInput) { in.Price = -1 }},
		{"missing category", func(in *CreateListingInput) { in.Category = "" }},
		{"bad condition", func(in *CreateListingInput) { in.Condition = "Mint" }},
		{"missing image", func(in *CreateListingInput) { in.ImageURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.Create(ctx, in)
			assertAppError(t, err, "VALIDATION_ERROR")
		})
	}
}

func TestListingService_ToggleLike(t *testing.T) {
	db := setupServiceTestDB(t)
	images := NewImageService(&config.Config{UploadDir: t.TempDir(), MaxUploadMB: 5})
	svc := NewListingService(repository.NewListingRepository(db), images)
	ctx := context.Background()

	owner := createUser(t, db, "seller")
	buyer := createUser(t, db, "buyer")
	listing := createListing(t, db, owner.ID, "Rug", 60)

	liked, err := svc.ToggleLike(ctx, buyer.ID, listing.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.ToggleLike(ctx, buyer.ID, listing.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = svc.ToggleLike(ctx, buyer.ID, 9999)
	assertAppError(t, err, "NOT_FOUND")
}

func TestListingService_Delete(t *testing.T) {
	db := setupServiceTestDB(t)
	images := NewImageService(&config.Config{UploadDir: t.TempDir(), MaxUploadMB: 5})
	svc := NewListingService(repository.NewListingRepository(db), images)
	ctx := context.Background()

	owner := createUser(t, db, "seller")
	stranger := createUser(t, db, "stranger")
	listing := createListing(t, db, owner.ID, "Mirror", 20)

	err := svc.Delete(ctx, stranger.ID, listing.ID)
	assertAppError(t, err, "NOT_FOUND")

	require.NoError(t, svc.Delete(ctx, owner.ID, listing.ID))

	_, err = svc.Get(ctx, listing.ID)
	assertAppError(t, err, "NOT_FOUND")
}
