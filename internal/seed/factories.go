// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"stoop/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var categories = []string{
	"furniture", "electronics", "clothing", "books",
	"sports", "lighting", "outdoor", "toys", "kitchen",
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // weak randomness is fine for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateListing constructs and persists a sample `models.Listing` owned by
// the given user, with a realistic created_at spread.
func (f *Factory) CreateListing(owner *models.User, overrides ...func(*models.Listing)) (*models.Listing, error) {
	listing := &models.Listing{
		UserID:      owner.ID,
		Title:       gofakeit.ProductName(),
		Description: gofakeit.Paragraph(1, 3, 8, "\n"),
		Price:       float64(gofakeit.Number(500, 50000)) / 100,
		Category:    categories[f.rng.Intn(len(categories))],
		Condition:   models.Conditions[f.rng.Intn(len(models.Conditions))],
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	listing.CreatedAt = time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	for _, override := range overrides {
		override(listing)
	}

	if err := f.db.Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// CreateLike persists a like from `user` on `listing`.
func (f *Factory) CreateLike(user *models.User, listing *models.Listing) error {
	like := &models.Like{
		UserID:    user.ID,
		ListingID: listing.ID,
	}
	return f.db.Create(like).Error
}

// CreateChat persists a chat thread between `buyer` and the listing's owner.
func (f *Factory) CreateChat(buyer *models.User, listing *models.Listing) (*models.Chat, error) {
	chat := &models.Chat{
		ListingID: listing.ID,
		BuyerID:   buyer.ID,
		SellerID:  listing.UserID,
	}
	if err := f.db.Create(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

// CreateMessage constructs and persists a sample `models.Message` in the
// provided chat from the provided sender.
func (f *Factory) CreateMessage(chat *models.Chat, sender *models.User, overrides ...func(*models.Message)) (*models.Message, error) {
	message := &models.Message{
		ChatID:   chat.ID,
		SenderID: sender.ID,
		Body:     gofakeit.Sentence(10),
	}

	for _, override := range overrides {
		override(message)
	}

	if err := f.db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}
