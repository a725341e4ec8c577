package models

import "time"

// Chat is a message thread about one listing between one buyer and its
// seller. The unique index over the (listing, buyer, seller) triple is the
// serialization point for concurrent start-chat calls.
type Chat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ListingID uint      `gorm:"not null;uniqueIndex:idx_chats_listing_buyer_seller" json:"listing_id"`
	BuyerID   uint      `gorm:"not null;index;uniqueIndex:idx_chats_listing_buyer_seller" json:"buyer_id"`
	SellerID  uint      `gorm:"not null;index;uniqueIndex:idx_chats_listing_buyer_seller" json:"seller_id"`
	CreatedAt time.Time `json:"created_at"`
}

// HasParticipant reports whether userID is the buyer or the seller.
func (c *Chat) HasParticipant(userID uint) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// ChatSummary is the enriched row returned when listing a user's chats.
// It is a scan target, not a table; every extra column is produced by the
// query that builds it.
type ChatSummary struct {
	ID             uint       `json:"id"`
	ListingID      uint       `json:"listing_id"`
	BuyerID        uint       `json:"buyer_id"`
	SellerID       uint       `json:"seller_id"`
	CreatedAt      time.Time  `json:"created_at"`
	ListingTitle   string     `json:"listing_title"`
	ListingImage   string     `json:"listing_image"`
	ListingPrice   float64    `json:"listing_price"`
	BuyerUsername  string     `json:"buyer_username"`
	SellerUsername string     `json:"seller_username"`
	UnreadCount    int        `json:"unread_count"`
	LastMessage    *string    `json:"last_message"`
	LastMessageAt  *time.Time `json:"last_message_at"`
}

// Message is a single chat message. ReadAt stays nil until the other
// participant views the thread.
type Message struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ChatID    uint       `gorm:"not null;index" json:"chat_id"`
	SenderID  uint       `gorm:"not null;index" json:"sender_id"`
	Body      string     `gorm:"type:text;not null" json:"body"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
	// SenderUsername is not persisted; resolved from the sender at query time
	SenderUsername string `gorm:"->" json:"sender_username"`
}
