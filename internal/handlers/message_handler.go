package handlers

import (
	"log"
	"strconv"

	"github.com/drifthq/driftchat-backend/internal/cache"
	"github.com/drifthq/driftchat-backend/internal/handlers/ws"
	"github.com/drifthq/driftchat-backend/internal/httpx"
	"github.com/drifthq/driftchat-backend/internal/models"
	"github.com/drifthq/driftchat-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type MessageHandler struct {
	messageService      *service.MessageService
	conversationService *service.ConversationService
	conversationCache   *cache.ConversationCache
	hub                 *ws.Hub
}

func NewMessageHandler(messageService *service.MessageService, conversationService *service.ConversationService, conversationCache *cache.ConversationCache, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{
		messageService:      messageService,
		conversationService: conversationService,
		conversationCache:   conversationCache,
		hub:                 hub,
	}
}

// GetMessages returns one cursor page of history, newest first. The cursor
// is the id of the oldest message the client already holds; 0 (or absent)
// means the newest page.
func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversationID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_conversation_id", "Invalid conversation id")
	}

	var cursor uint
	if cursorStr := c.Query("cursor"); cursorStr != "" {
		v, err := strconv.ParseUint(cursorStr, 10, 64)
		if err != nil {
			return httpx.BadRequest(c, "invalid_cursor", "Invalid cursor")
		}
		cursor = uint(v)
	}
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	page, err := h.messageService.ListMessages(conversationID, userID, cursor, limit)
	switch err {
	case nil:
	case service.ErrUnauthorized:
		return httpx.Forbidden(c, "not_a_participant", "Not a participant of this conversation")
	default:
		return httpx.Internal(c, "fetch_messages_failed")
	}

	responses := make([]models.MessageResponse, 0, len(page.Messages))
	for i := range page.Messages {
		responses = append(responses, page.Messages[i].ToResponse())
	}

	return c.JSON(fiber.Map{
		"messages":    responses,
		"has_more":    page.HasMore,
		"next_cursor": page.NextCursor,
	})
}

// SendMessage appends a message and fans it out to every other participant
// currently connected. Delivery is best effort; offline participants pick
// the message up from history on their next fetch.
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversationID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_conversation_id", "Invalid conversation id")
	}

	var input service.AppendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	message, err := h.messageService.Append(conversationID, userID, input)
	switch err {
	case nil:
	case service.ErrEmptyMessage:
		return httpx.BadRequest(c, "empty_message", "Message must have text or an image")
	case service.ErrNotAParticipant:
		return httpx.Forbidden(c, "not_a_participant", "Not a participant of this conversation")
	default:
		return httpx.Internal(c, "send_message_failed")
	}

	response := message.ToResponse()
	h.fanOutNewMessage(conversationID, userID, response)

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *MessageHandler) fanOutNewMessage(conversationID, senderID uint, response models.MessageResponse) {
	participantIDs, err := h.conversationService.Participants(conversationID)
	if err != nil {
		log.Printf("message fan-out skipped for conversation %d: %v", conversationID, err)
		return
	}

	h.conversationCache.InvalidateList(senderID)
	for _, participantID := range participantIDs {
		if participantID == senderID {
			continue
		}
		h.conversationCache.InvalidateList(participantID)
		h.conversationCache.InvalidateTotalUnread(participantID)

		_ = h.hub.SendToUser(participantID, ws.NewMessageNewEvent(response))

		unread, err := h.conversationService.UnreadCount(conversationID, participantID)
		if err != nil {
			unread = 0
		}
		_ = h.hub.SendToUser(participantID, ws.NewConversationUpdatedEvent(conversationID, unread, &response))
	}
}

// MarkSeen stamps the caller on everything unseen in the conversation and
// tells the other participants which messages flipped.
func (h *MessageHandler) MarkSeen(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversationID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_conversation_id", "Invalid conversation id")
	}

	result, err := h.messageService.MarkSeen(conversationID, userID)
	switch err {
	case nil:
	case service.ErrUnauthorized:
		return httpx.Forbidden(c, "not_a_participant", "Not a participant of this conversation")
	default:
		return httpx.Internal(c, "mark_seen_failed")
	}

	h.conversationCache.InvalidateList(userID)
	h.conversationCache.InvalidateTotalUnread(userID)

	if result.Updated > 0 {
		if participantIDs, err := h.conversationService.Participants(conversationID); err == nil {
			event := ws.NewMessageSeenEvent(conversationID, result.MessageIDs, userID)
			for _, participantID := range participantIDs {
				if participantID != userID {
					_ = h.hub.SendToUser(participantID, event)
				}
			}
		}
	}

	return c.JSON(fiber.Map{
		"updated":     result.Updated,
		"message_ids": result.MessageIDs,
	})
}

// GetConversationUnread is the per-conversation unread counter.
func (h *MessageHandler) GetConversationUnread(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversationID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_conversation_id", "Invalid conversation id")
	}

	isParticipant := true
	if _, err := h.conversationService.GetConversation(conversationID, userID); err != nil {
		isParticipant = false
	}
	if !isParticipant {
		return httpx.Forbidden(c, "not_a_participant", "Not a participant of this conversation")
	}

	count, err := h.messageService.UnreadCount(conversationID, userID)
	if err != nil {
		return httpx.Internal(c, "fetch_unread_failed")
	}
	return c.JSON(fiber.Map{"count": count})
}
