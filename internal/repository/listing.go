package repository

import (
	"context"
	"errors"
	"strings"

	"stoop/internal/cache"
	"stoop/internal/models"
	"stoop/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListingFilter holds the optional search predicates. Zero values mean
// "no constraint"; price bounds are inclusive.
type ListingFilter struct {
	Query     string
	Category  string
	Condition string
	MinPrice  *float64
	MaxPrice  *float64
}

// Empty reports whether no predicate is set.
func (f ListingFilter) Empty() bool {
	return f.Query == "" && f.Category == "" && f.Condition == "" &&
		f.MinPrice == nil && f.MaxPrice == nil
}

// ListingRepository defines persistence operations for listings and likes.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	Search(ctx context.Context, filter ListingFilter, limit, offset int) ([]models.Listing, int64, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Listing, error)
	ListLikedBy(ctx context.Context, userID uint) ([]models.Listing, error)
	ToggleLike(ctx context.Context, userID, listingID uint) (bool, error)
	DeleteOwned(ctx context.Context, requesterID, listingID uint) (*models.Listing, error)
}

type listingRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewListingRepository returns a new ListingRepository implementation.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db, metrics: observability.NewDatabaseMetrics(db)}
}

// applyListingDetails adds subqueries so the owner's username and the like
// count arrive in a single query.
func (r *listingRepository) applyListingDetails(db *gorm.DB) *gorm.DB {
	return db.Select("listings.*, " +
		"(SELECT username FROM users WHERE users.id = listings.user_id) as username, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.listing_id = listings.id) as likes_count")
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	key := cache.ListingKey(id)

	err := cache.Aside(ctx, key, &listing, cache.ListingTTL, func() error {
		err := r.applyListingDetails(r.db.WithContext(ctx).Model(&models.Listing{})).
			Where("listings.id = ?", id).
			Take(&listing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Listing", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// buildFilter appends WHERE clauses for each set predicate. Text search is
// case-insensitive on both sqlite and postgres via LOWER().
func (r *listingRepository) buildFilter(db *gorm.DB, f ListingFilter) *gorm.DB {
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		db = db.Where("LOWER(listings.title) LIKE ? OR LOWER(listings.description) LIKE ?", like, like)
	}
	if f.Category != "" {
		db = db.Where("listings.category = ?", f.Category)
	}
	if f.Condition != "" {
		db = db.Where("listings.condition = ?", f.Condition)
	}
	if f.MinPrice != nil {
		db = db.Where("listings.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		db = db.Where("listings.price <= ?", *f.MaxPrice)
	}
	return db
}

func (r *listingRepository) Search(ctx context.Context, filter ListingFilter, limit, offset int) ([]models.Listing, int64, error) {
	defer r.metrics.TrackQuery("search", "listings")()

	var total int64
	countQuery := r.buildFilter(r.db.WithContext(ctx).Model(&models.Listing{}), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var listings []models.Listing
	query := r.applyListingDetails(r.buildFilter(r.db.WithContext(ctx).Model(&models.Listing{}), filter))
	err := query.
		Order("listings.created_at DESC, listings.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return listings, total, nil
}

func (r *listingRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.applyListingDetails(r.db.WithContext(ctx).Model(&models.Listing{})).
		Where("listings.user_id = ?", ownerID).
		Order("listings.created_at DESC, listings.id DESC").
		Find(&listings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) ListLikedBy(ctx context.Context, userID uint) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.applyListingDetails(r.db.WithContext(ctx).Model(&models.Listing{})).
		Joins("JOIN likes ON likes.listing_id = listings.id").
		Where("likes.user_id = ?", userID).
		Order("likes.created_at DESC, listings.id DESC").
		Find(&listings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

// ToggleLike flips the like state and reports the resulting state. Delete
// first: a row removed means the like existed, otherwise insert with
// ON CONFLICT DO NOTHING so concurrent toggles cannot error out.
func (r *listingRepository) ToggleLike(ctx context.Context, userID, listingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateListing(ctx, listingID)
		return false, nil
	}

	like := models.Like{UserID: userID, ListingID: listingID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	cache.InvalidateListing(ctx, listingID)
	return true, nil
}

// DeleteOwned removes a listing only when the requester owns it. A missing
// listing and someone else's listing are indistinguishable to the caller.
func (r *listingRepository) DeleteOwned(ctx context.Context, requesterID, listingID uint) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND user_id = ?", listingID, requesterID).
			Take(&listing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundMessage("listing not found")
			}
			return models.NewInternalError(err)
		}

		if err := tx.Where("listing_id = ?", listingID).Delete(&models.Like{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Delete(&models.Listing{}, listingID).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateListing(ctx, listingID)
	return &listing, nil
}
