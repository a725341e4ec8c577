package seed

import (
	"fmt"
	"log"
	"time"

	"stoop/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumListings int
	ShouldClean bool
	SkipBcrypt  bool
	MaxDays     int
}

// Seed populates the database with demo marketplace data: users, listings,
// likes, and chats with a mix of read and unread messages.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d users and %d listings...", opts.NumUsers, opts.NumListings)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	f := NewFactory(db, opts)

	users, err := createUsers(f, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	listings, err := createListings(f, users, opts.NumListings)
	if err != nil {
		return fmt.Errorf("failed to create listings: %w", err)
	}
	log.Printf("created %d listings", len(listings))

	if err := createLikes(f, users, listings); err != nil {
		return fmt.Errorf("failed to create likes: %w", err)
	}

	chats, err := createChats(f, users, listings)
	if err != nil {
		return fmt.Errorf("failed to create chats: %w", err)
	}
	log.Printf("created %d chats", len(chats))

	log.Println("Seeding complete. All demo users have the password: password123")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	for _, table := range []string{"messages", "chats", "likes", "listings", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(f *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	// Always include a couple of fixed accounts for manual testing.
	if count >= 2 {
		for _, name := range []string{"demo", "test"} {
			name := name
			user, err := f.CreateUser(func(u *models.User) {
				u.Username = name
				u.Email = name + "@example.com"
			})
			if err != nil {
				return nil, err
			}
			users = append(users, user)
		}
	}

	for len(users) < count {
		user, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func createListings(f *Factory, users []*models.User, count int) ([]*models.Listing, error) {
	listings := make([]*models.Listing, 0, count)
	for i := 0; i < count; i++ {
		owner := users[f.rng.Intn(len(users))]
		listing, err := f.CreateListing(owner)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func createLikes(f *Factory, users []*models.User, listings []*models.Listing) error {
	for _, listing := range listings {
		// Roughly a third of users like any given listing.
		for _, user := range users {
			if user.ID == listing.UserID || f.rng.Intn(3) != 0 {
				continue
			}
			if err := f.CreateLike(user, listing); err != nil {
				return err
			}
		}
	}
	return nil
}

func createChats(f *Factory, users []*models.User, listings []*models.Listing) ([]*models.Chat, error) {
	var chats []*models.Chat
	for _, listing := range listings {
		if f.rng.Intn(2) != 0 {
			continue
		}
		buyer := users[f.rng.Intn(len(users))]
		if buyer.ID == listing.UserID {
			continue
		}

		chat, err := f.CreateChat(buyer, listing)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)

		seller := &models.User{ID: listing.UserID}
		turns := 1 + f.rng.Intn(5)
		for i := 0; i < turns; i++ {
			sender := buyer
			if i%2 == 1 {
				sender = seller
			}
			// Older messages have been seen; the tail of the thread is unread.
			read := i < turns-1
			_, err := f.CreateMessage(chat, sender, func(m *models.Message) {
				if read {
					at := time.Now().Add(-time.Duration(turns-i) * time.Hour)
					m.ReadAt = &at
				}
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return chats, nil
}
