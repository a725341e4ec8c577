package service

import (
	"context"
	"errors"
	"strings"

	"stoop/internal/models"
	"stoop/internal/observability"
	"stoop/internal/repository"
)

const maxMessageLen = 10000

// ChatService implements buyer-seller messaging around listings.
type ChatService struct {
	chats    repository.ChatRepository
	listings repository.ListingRepository
}

// NewChatService returns a new ChatService.
func NewChatService(chats repository.ChatRepository, listings repository.ListingRepository) *ChatService {
	return &ChatService{chats: chats, listings: listings}
}

// StartOrGet opens (or returns the existing) thread between the caller and
// the listing's seller. Sellers cannot open threads on their own listings.
func (s *ChatService) StartOrGet(ctx context.Context, buyerID, listingID uint) (*models.Chat, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.UserID == buyerID {
		return nil, models.NewValidationError("cannot start a chat about your own listing")
	}

	return s.chats.FindOrCreate(ctx, listingID, buyerID, listing.UserID)
}

// ListChats returns all of the user's threads with summary data.
func (s *ChatService) ListChats(ctx context.Context, userID uint) ([]models.ChatSummary, error) {
	summaries, err := s.chats.ListSummaries(ctx, userID)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []models.ChatSummary{}
	}
	return summaries, nil
}

// Thread is a full message history plus how many messages this read flipped
// to read.
type Thread struct {
	Messages  []models.Message `json:"messages"`
	NewlyRead int64            `json:"newly_read"`
}

// requireParticipant loads the chat and hides it from non-participants. An
// outsider gets the same not-found as a missing chat.
func (s *ChatService) requireParticipant(ctx context.Context, userID, chatID uint) (*models.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			return nil, models.NewNotFoundMessage("chat not found")
		}
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, models.NewNotFoundMessage("chat not found")
	}
	return chat, nil
}

// GetThread marks the thread read for the caller and returns its messages
// oldest first.
func (s *ChatService) GetThread(ctx context.Context, userID, chatID uint) (*Thread, error) {
	if _, err := s.requireParticipant(ctx, userID, chatID); err != nil {
		return nil, err
	}

	newlyRead, err := s.chats.MarkThreadRead(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	messages, err := s.chats.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return &Thread{Messages: messages, NewlyRead: newlyRead}, nil
}

// SendMessage appends a message to a thread the caller participates in.
func (s *ChatService) SendMessage(ctx context.Context, userID, chatID uint, body string) (*models.Message, error) {
	if _, err := s.requireParticipant(ctx, userID, chatID); err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, models.NewValidationError("message body is required")
	}
	if len(body) > maxMessageLen {
		return nil, models.NewValidationError("message is too long")
	}

	msg := &models.Message{ChatID: chatID, SenderID: userID, Body: body}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	observability.MessagesSent.Inc()

	return s.chats.GetMessage(ctx, msg.ID)
}
