package service

import (
	"context"
	"time"

	"stoop/internal/cache"
	"stoop/internal/models"
	"stoop/internal/repository"
	"stoop/internal/validation"
)

// UserService implements public profiles and account updates.
type UserService struct {
	users    repository.UserRepository
	listings repository.ListingRepository
}

// NewUserService returns a new UserService.
func NewUserService(users repository.UserRepository, listings repository.ListingRepository) *UserService {
	return &UserService{users: users, listings: listings}
}

// Profile is the public view of a user: no email, no timestamps beyond join
// date, plus their active listings.
type Profile struct {
	ID       uint             `json:"id"`
	Username string           `json:"username"`
	JoinedAt time.Time        `json:"joined_at"`
	Listings []models.Listing `json:"listings"`
}

// GetProfile returns the public profile for a username. The assembled
// profile is cached briefly; like counts inside it may lag by up to the TTL.
func (s *UserService) GetProfile(ctx context.Context, username string) (*Profile, error) {
	var profile Profile
	err := cache.Aside(ctx, cache.ProfileKey(username), &profile, cache.ProfileTTL, func() error {
		user, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			return models.NewNotFoundMessage("user not found")
		}

		listings, err := s.listings.ListByOwner(ctx, user.ID)
		if err != nil {
			return err
		}
		if listings == nil {
			listings = []models.Listing{}
		}

		profile = Profile{
			ID:       user.ID,
			Username: user.Username,
			JoinedAt: user.CreatedAt,
			Listings: listings,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByID returns the full account record for the authenticated user.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfileInput carries optional account changes; nil fields are left
// untouched.
type UpdateProfileInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// UpdateProfile applies the requested changes after validating each one and
// checking that the new username/email is not taken by someone else.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldUsername := user.Username

	if in.Username != nil && *in.Username != user.Username {
		if err := validation.ValidateUsername(*in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		taken, err := s.users.UsernameInUse(ctx, *in.Username, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError("username already in use")
		}
		user.Username = *in.Username
	}

	if in.Email != nil && *in.Email != user.Email {
		if err := validation.ValidateEmail(*in.Email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		taken, err := s.users.EmailInUse(ctx, *in.Email, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError("email already in use")
		}
		user.Email = *in.Email
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	// The repository invalidates the profile under the new username; a rename
	// also leaves a cached profile behind under the old one.
	if user.Username != oldUsername {
		cache.InvalidateProfile(ctx, oldUsername)
	}
	return user, nil
}
