package models

import "time"

// Item condition tags. A listing must carry exactly one of these.
const (
	ConditionNew     = "New"
	ConditionLikeNew = "Like New"
	ConditionGood    = "Good"
	ConditionFair    = "Fair"
	ConditionPoor    = "Poor"
)

// Conditions lists every valid condition tag, best first.
var Conditions = []string{ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor}

// IsValidCondition reports whether s is one of the enumerated condition tags.
func IsValidCondition(s string) bool {
	for _, c := range Conditions {
		if s == c {
			return true
		}
	}
	return false
}

// Listing represents a for-sale item post.
type Listing struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	UserID      uint    `gorm:"not null;index" json:"user_id"`
	User        User    `gorm:"foreignKey:UserID" json:"-"`
	Title       string  `gorm:"not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	Category    string  `gorm:"not null;index" json:"category"`
	Condition   string  `gorm:"not null" json:"condition"`
	ImageURL    string  `gorm:"not null" json:"image_url"`
	// Username is not persisted; resolved from the owning user at query time
	Username string `gorm:"->" json:"username"`
	// LikesCount is not persisted; computed at query time
	LikesCount int       `gorm:"->" json:"likes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Like marks a listing as favorited by a user. The composite primary key
// makes a second like row for the same pair impossible at the storage level.
type Like struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ListingID uint      `gorm:"primaryKey;autoIncrement:false" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}
