package handlers

import (
	"strconv"
	"time"

	"github.com/drifthq/driftchat-backend/internal/cache"
	"github.com/drifthq/driftchat-backend/internal/handlers/ws"
	"github.com/drifthq/driftchat-backend/internal/httpx"
	"github.com/drifthq/driftchat-backend/internal/models"
	"github.com/drifthq/driftchat-backend/internal/repository"
	"github.com/drifthq/driftchat-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ConversationHandler struct {
	conversationService *service.ConversationService
	conversationCache   *cache.ConversationCache
	hub                 *ws.Hub
}

func NewConversationHandler(conversationService *service.ConversationService, conversationCache *cache.ConversationCache, hub *ws.Hub) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		conversationCache:   conversationCache,
		hub:                 hub,
	}
}

// conversationSummary is one inbox row: preview + unread annotation.
type conversationSummary struct {
	ID           uint                 `json:"id"`
	Kind         string               `json:"kind"`
	Name         string               `json:"name,omitempty"`
	Image        string               `json:"image,omitempty"`
	Peer         *models.UserResponse `json:"peer,omitempty"`
	UnreadCount  int64                `json:"unread_count"`
	LastMessage  *lastMessagePreview  `json:"last_message,omitempty"`
	LastActivity time.Time            `json:"last_activity"`
	CreatedAt    time.Time            `json:"created_at"`
}

type lastMessagePreview struct {
	ID        uint      `json:"id"`
	SenderID  *uint     `json:"sender_id"`
	Content   string    `json:"content,omitempty"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func summaryFromRow(row repository.ConversationListRow) conversationSummary {
	summary := conversationSummary{
		ID:           row.ConversationID,
		Kind:         row.Kind,
		Name:         row.Name.String,
		Image:        row.Image.String,
		UnreadCount:  row.UnreadCount,
		LastActivity: row.LastActivity,
		CreatedAt:    row.CreatedAt,
	}

	if row.PeerID.Valid {
		summary.Peer = &models.UserResponse{
			ID:       uint(row.PeerID.Int64),
			Username: row.PeerUsername.String,
			FullName: row.PeerFullName.String,
			Avatar:   row.PeerAvatar.String,
			IsOnline: row.PeerIsOnline.Bool,
			LastSeen: row.PeerLastSeen,
		}
	}

	if row.MessageID.Valid {
		preview := &lastMessagePreview{
			ID:      uint(row.MessageID.Int64),
			Content: row.MessageContent.String,
			Image:   row.MessageImage.String,
		}
		if row.MessageSenderID.Valid {
			senderID := uint(row.MessageSenderID.Int64)
			preview.SenderID = &senderID
		}
		if row.MessageCreatedAt != nil {
			preview.CreatedAt = *row.MessageCreatedAt
		}
		summary.LastMessage = preview
	}

	return summary
}

// GetConversations lists the caller's conversations ordered by most recent
// activity, each annotated with their unread count and last message. The
// first page is cached per user.
func (h *ConversationHandler) GetConversations(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	page := 1
	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	var rows []repository.ConversationListRow
	cached := false
	if page == 1 {
		rows, cached = h.conversationCache.GetList(userID)
	}
	if !cached {
		rows, err = h.conversationService.ListConversations(userID, page, limit)
		if err != nil {
			return httpx.Internal(c, "list_conversations_failed")
		}
		if page == 1 {
			_ = h.conversationCache.SetList(userID, rows)
		}
	}

	summaries := make([]conversationSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, summaryFromRow(row))
	}

	total, err := h.conversationService.CountConversations(userID)
	if err != nil {
		return httpx.Internal(c, "list_conversations_failed")
	}

	return c.JSON(fiber.Map{
		"conversations": summaries,
		"page":          page,
		"count":         len(summaries),
		"total":         total,
	})
}

func (h *ConversationHandler) GetConversation(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversationID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_conversation_id", "Invalid conversation id")
	}

	conv, err := h.conversationService.GetConversation(conversationID, userID)
	switch err {
	case nil:
	case service.ErrConversationNotFound:
		return httpx.NotFound(c, "conversation_not_found", "Conversation not found")
	case service.ErrUnauthorized:
		return httpx.Forbidden(c, "not_a_participant", "Not a participant of this conversation")
	default:
		return httpx.Internal(c, "fetch_conversation_failed")
	}

	latestID, err := h.conversationService.LatestMessageID(conversationID)
	if err != nil {
		latestID = 0
	}

	return c.JSON(fiber.Map{
		"conversation":      conv.ToResponse(),
		"latest_message_id": latestID,
	})
}

// CreateDirect gets or creates the direct conversation with another user.
// Calling it twice for the same pair returns the same conversation.
func (h *ConversationHandler) CreateDirect(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input struct {
		ParticipantID uint `json:"participant_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	conv, err := h.conversationService.CreateDirect(userID, input.ParticipantID)
	switch err {
	case nil:
	case service.ErrInvalidParticipants:
		return httpx.BadRequest(c, "invalid_participants", "Cannot start a conversation with yourself")
	default:
		return httpx.Internal(c, "create_conversation_failed")
	}

	h.conversationCache.InvalidateList(userID)
	h.conversationCache.InvalidateList(input.ParticipantID)

	return c.Status(fiber.StatusCreated).JSON(conv.ToResponse())
}

func (h *ConversationHandler) CreateGroup(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.CreateGroupInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	conv, err := h.conversationService.CreateGroup(userID, input)
	switch err {
	case nil:
	case service.ErrInsufficientMembers:
		return httpx.BadRequest(c, "insufficient_members", "A group needs at least two other members")
	case service.ErrInvalidParticipants:
		return httpx.BadRequest(c, "invalid_participants", "Invalid group name or participants")
	default:
		return httpx.Internal(c, "create_group_failed")
	}

	// Everyone's inbox changed; tell connected members to refetch.
	for _, participantID := range conv.ParticipantIDs() {
		h.conversationCache.InvalidateList(participantID)
		h.conversationCache.InvalidateTotalUnread(participantID)
		if participantID != userID {
			unread, err := h.conversationService.UnreadCount(conv.ID, participantID)
			if err != nil {
				unread = 0
			}
			_ = h.hub.SendToUser(participantID, ws.NewConversationUpdatedEvent(conv.ID, unread, nil))
		}
	}

	return c.Status(fiber.StatusCreated).JSON(conv.ToResponse())
}

// GetUnreadCount is the aggregate badge across all conversations.
func (h *ConversationHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if cached, ok := h.conversationCache.GetTotalUnread(userID); ok {
		return c.JSON(fiber.Map{"count": cached})
	}

	total, err := h.conversationService.TotalUnread(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_unread_failed")
	}
	_ = h.conversationCache.SetTotalUnread(userID, total)

	return c.JSON(fiber.Map{"count": total})
}
