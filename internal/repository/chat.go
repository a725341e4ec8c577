package repository

import (
	"context"
	"errors"
	"time"

	"stoop/internal/models"
	"stoop/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines the interface for chat data operations
type ChatRepository interface {
	FindOrCreate(ctx context.Context, listingID, buyerID, sellerID uint) (*models.Chat, error)
	GetByID(ctx context.Context, id uint) (*models.Chat, error)
	ListSummaries(ctx context.Context, userID uint) ([]models.ChatSummary, error)
	MarkThreadRead(ctx context.Context, chatID, readerID uint) (int64, error)
	ListMessages(ctx context.Context, chatID uint) ([]models.Message, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id uint) (*models.Message, error)
}

// chatRepository implements ChatRepository
type chatRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db, metrics: observability.NewDatabaseMetrics(db)}
}

// FindOrCreate returns the thread for (listing, buyer, seller), creating it
// on first contact. The unique index plus ON CONFLICT DO NOTHING keeps
// concurrent first messages from producing two threads; the final read
// reconciles whichever insert won.
func (r *chatRepository) FindOrCreate(ctx context.Context, listingID, buyerID, sellerID uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_id = ? AND seller_id = ?", listingID, buyerID, sellerID).
		Take(&chat).Error
	if err == nil {
		return &chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	chat = models.Chat{ListingID: listingID, BuyerID: buyerID, SellerID: sellerID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&chat).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if chat.ID != 0 {
		return &chat, nil
	}

	// Lost the race: fetch the row the concurrent insert created.
	err = r.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_id = ? AND seller_id = ?", listingID, buyerID, sellerID).
		Take(&chat).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &chat, nil
}

func (r *chatRepository) GetByID(ctx context.Context, id uint) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).First(&chat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Chat", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &chat, nil
}

// lastMessageAtSubquery resolves the timestamp of a chat's newest message.
// ORDER BY repeats it instead of referencing the select alias: sqlite resolves
// aliases inside ORDER BY expressions but postgres does not.
const lastMessageAtSubquery = `(SELECT created_at FROM messages WHERE messages.chat_id = chats.id ORDER BY messages.created_at DESC, messages.id DESC LIMIT 1)`

// ListSummaries returns every thread the user participates in, each enriched
// with listing info, counterpart usernames, unread count and last message.
// Threads with no messages yet sort last.
func (r *chatRepository) ListSummaries(ctx context.Context, userID uint) ([]models.ChatSummary, error) {
	defer r.metrics.TrackQuery("list_summaries", "chats")()

	var summaries []models.ChatSummary
	err := r.db.WithContext(ctx).
		Model(&models.Chat{}).
		Select(`chats.id, chats.listing_id, chats.buyer_id, chats.seller_id, chats.created_at,
			(SELECT title FROM listings WHERE listings.id = chats.listing_id) as listing_title,
			(SELECT image_url FROM listings WHERE listings.id = chats.listing_id) as listing_image,
			(SELECT price FROM listings WHERE listings.id = chats.listing_id) as listing_price,
			(SELECT username FROM users WHERE users.id = chats.buyer_id) as buyer_username,
			(SELECT username FROM users WHERE users.id = chats.seller_id) as seller_username,
			(SELECT COUNT(*) FROM messages WHERE messages.chat_id = chats.id AND messages.sender_id <> ? AND messages.read_at IS NULL) as unread_count,
			(SELECT body FROM messages WHERE messages.chat_id = chats.id ORDER BY messages.created_at DESC, messages.id DESC LIMIT 1) as last_message,
			`+lastMessageAtSubquery+` as last_message_at`,
			userID).
		Where("chats.buyer_id = ? OR chats.seller_id = ?", userID, userID).
		Order(lastMessageAtSubquery + " IS NULL, " + lastMessageAtSubquery + " DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return summaries, nil
}

// MarkThreadRead stamps read_at on every unread message addressed to the
// reader and returns how many rows it touched.
func (r *chatRepository) MarkThreadRead(ctx context.Context, chatID, readerID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND read_at IS NULL", chatID, readerID).
		Update("read_at", time.Now().UTC())
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Select("messages.*, (SELECT username FROM users WHERE users.id = messages.sender_id) as sender_username").
		Where("messages.chat_id = ?", chatID).
		Order("messages.created_at ASC, messages.id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatRepository) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Select("messages.*, (SELECT username FROM users WHERE users.id = messages.sender_id) as sender_username").
		Where("messages.id = ?", id).
		Take(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &msg, nil
}
