package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"stoop/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRepository_FindOrCreate(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller")
	buyer := createTestUser(t, db, "buyer")
	listing := createTestListing(t, db, seller.ID, "Sofa", 80)

	first, err := repo.FindOrCreate(ctx, listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := repo.FindOrCreate(ctx, listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Chat{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestChatRepository_ListSummaries(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller")
	buyer := createTestUser(t, db, "buyer")
	other := createTestUser(t, db, "other")
	sofa := createTestListing(t, db, seller.ID, "Sofa", 80)
	lamp := createTestListing(t, db, seller.ID, "Lamp", 12)

	sofaChat, err := repo.FindOrCreate(ctx, sofa.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	lampChat, err := repo.FindOrCreate(ctx, lamp.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	_, err = repo.FindOrCreate(ctx, sofa.ID, other.ID, seller.ID)
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	mkMessage := func(chatID, senderID uint, body string, at time.Time, read bool) {
		msg := models.Message{ChatID: chatID, SenderID: senderID, Body: body, CreatedAt: at}
		if read {
			readAt := at.Add(time.Second)
			msg.ReadAt = &readAt
		}
		require.NoError(t, db.Create(&msg).Error)
	}

	mkMessage(sofaChat.ID, buyer.ID, "Is the sofa available?", base, true)
	mkMessage(sofaChat.ID, seller.ID, "Yes, come by tonight", base.Add(time.Minute), false)
	mkMessage(lampChat.ID, buyer.ID, "Does the lamp work?", base.Add(2*time.Minute), false)

	t.Run("buyer sees own threads newest activity first", func(t *testing.T) {
		summaries, err := repo.ListSummaries(ctx, buyer.ID)
		require.NoError(t, err)
		require.Len(t, summaries, 2)

		assert.Equal(t, lampChat.ID, summaries[0].ID)
		assert.Equal(t, sofaChat.ID, summaries[1].ID)

		lampSummary := summaries[0]
		assert.Equal(t, "Lamp", lampSummary.ListingTitle)
		assert.Equal(t, 12.0, lampSummary.ListingPrice)
		assert.Equal(t, "buyer", lampSummary.BuyerUsername)
		assert.Equal(t, "seller", lampSummary.SellerUsername)
		// The buyer sent the only lamp message, so nothing is unread for them.
		assert.Equal(t, 0, lampSummary.UnreadCount)
		require.NotNil(t, lampSummary.LastMessage)
		assert.Equal(t, "Does the lamp work?", *lampSummary.LastMessage)
		require.NotNil(t, lampSummary.LastMessageAt)

		sofaSummary := summaries[1]
		assert.Equal(t, 1, sofaSummary.UnreadCount)
		require.NotNil(t, sofaSummary.LastMessage)
		assert.Equal(t, "Yes, come by tonight", *sofaSummary.LastMessage)
	})

	t.Run("seller counts unread from buyers", func(t *testing.T) {
		summaries, err := repo.ListSummaries(ctx, seller.ID)
		require.NoError(t, err)
		require.Len(t, summaries, 3)

		// The empty thread with no messages sorts last.
		assert.Nil(t, summaries[2].LastMessage)
		assert.Nil(t, summaries[2].LastMessageAt)

		byID := map[uint]models.ChatSummary{}
		for _, s := range summaries {
			byID[s.ID] = s
		}
		assert.Equal(t, 1, byID[lampChat.ID].UnreadCount)
		// The buyer's sofa question was already read.
		assert.Equal(t, 0, byID[sofaChat.ID].UnreadCount)
	})

	t.Run("uninvolved user sees nothing", func(t *testing.T) {
		stranger := createTestUser(t, db, "stranger")
		summaries, err := repo.ListSummaries(ctx, stranger.ID)
		require.NoError(t, err)
		assert.Empty(t, summaries)
	})
}

// Postgres does not resolve select-list aliases inside ORDER BY expressions,
// so the sort must repeat the last-message subquery instead of naming the
// alias. Pin the generated SQL under the postgres dialect.
func TestChatRepository_ListSummariesOrderClausePostgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewChatRepository(db)

	orderClause := regexp.QuoteMeta(
		`ORDER BY ` + lastMessageAtSubquery + ` IS NULL, ` + lastMessageAtSubquery + ` DESC`)
	mock.ExpectQuery(orderClause).
		WithArgs(uint(7), uint(7), uint(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ListSummaries(context.Background(), 7)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_MarkThreadRead(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller")
	buyer := createTestUser(t, db, "buyer")
	listing := createTestListing(t, db, seller.ID, "Sofa", 80)
	chat, err := repo.FindOrCreate(ctx, listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Message{ChatID: chat.ID, SenderID: buyer.ID, Body: "hello"}).Error)
	require.NoError(t, db.Create(&models.Message{ChatID: chat.ID, SenderID: buyer.ID, Body: "still there?"}).Error)
	require.NoError(t, db.Create(&models.Message{ChatID: chat.ID, SenderID: seller.ID, Body: "yes"}).Error)

	// The seller reads the thread: both buyer messages flip, not their own.
	newlyRead, err := repo.MarkThreadRead(ctx, chat.ID, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), newlyRead)

	var unread int64
	require.NoError(t, db.Model(&models.Message{}).
		Where("chat_id = ? AND sender_id = ? AND read_at IS NULL", chat.ID, buyer.ID).
		Count(&unread).Error)
	assert.Equal(t, int64(0), unread)

	// A second read is a no-op.
	newlyRead, err = repo.MarkThreadRead(ctx, chat.ID, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), newlyRead)

	// The seller's own message is still unread from the buyer's side.
	newlyRead, err = repo.MarkThreadRead(ctx, chat.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), newlyRead)
}

func TestChatRepository_Messages(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller")
	buyer := createTestUser(t, db, "buyer")
	listing := createTestListing(t, db, seller.ID, "Sofa", 80)
	chat, err := repo.FindOrCreate(ctx, listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	first := models.Message{ChatID: chat.ID, SenderID: buyer.ID, Body: "first", CreatedAt: base}
	require.NoError(t, repo.CreateMessage(ctx, &first))
	second := models.Message{ChatID: chat.ID, SenderID: seller.ID, Body: "second", CreatedAt: base.Add(time.Minute)}
	require.NoError(t, repo.CreateMessage(ctx, &second))

	messages, err := repo.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Body)
	assert.Equal(t, "buyer", messages[0].SenderUsername)
	assert.Equal(t, "second", messages[1].Body)
	assert.Equal(t, "seller", messages[1].SenderUsername)

	got, err := repo.GetMessage(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "buyer", got.SenderUsername)

	_, err = repo.GetMessage(ctx, 9999)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
