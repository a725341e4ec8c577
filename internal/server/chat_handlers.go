package server

import (
	"stoop/internal/models"

	"github.com/gofiber/fiber/v2"
)

// StartChat handles POST /api/chat/start/:listingId
func (s *Server) StartChat(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	listingID, err := s.parseID(c, "listingId")
	if err != nil {
		return nil
	}

	chat, err := s.chatService.StartOrGet(c.Context(), userID, listingID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"chat_id": chat.ID})
}

// GetChats handles GET /api/chats
func (s *Server) GetChats(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	chats, err := s.chatService.ListChats(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"chats": chats})
}

// GetChatMessages handles GET /api/chats/:chatId/messages. Viewing the thread
// marks the other participant's unread messages as read.
func (s *Server) GetChatMessages(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	chatID, err := s.parseID(c, "chatId")
	if err != nil {
		return nil
	}

	thread, err := s.chatService.GetThread(c.Context(), userID, chatID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(thread)
}

// SendChatMessage handles POST /api/chats/:chatId/messages
func (s *Server) SendChatMessage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	chatID, err := s.parseID(c, "chatId")
	if err != nil {
		return nil
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.chatService.SendMessage(c.Context(), userID, chatID, req.Body)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}
