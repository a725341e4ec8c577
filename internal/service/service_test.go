package service

import (
	"testing"

	"stoop/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Like{},
		&models.Chat{},
		&models.Message{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed-password",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createListing(t *testing.T, db *gorm.DB, ownerID uint, title string, price float64) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		UserID:      ownerID,
		Title:       title,
		Description: "description of " + title,
		Price:       price,
		Category:    "furniture",
		Condition:   models.ConditionGood,
		ImageURL:    "/images/00000000000000000000000000000000.jpg",
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code)
}
