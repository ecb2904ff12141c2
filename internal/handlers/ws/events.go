package ws

import (
	"github.com/drifthq/driftchat-backend/internal/models"
)

// Server-emitted event types. Every event is scoped to the participant set
// of one conversation.
const (
	EventMessageNew          = "message:new"
	EventMessageSeen         = "message:seen"
	EventTypingStart         = "typing:start"
	EventTypingStop          = "typing:stop"
	EventConversationUpdated = "conversation:updated"
)

// MessageNewEvent announces a freshly appended message to the other
// participants.
type MessageNewEvent struct {
	Type           string                 `json:"type"`
	ConversationID uint                   `json:"conversation_id"`
	Message        models.MessageResponse `json:"message"`
}

func NewMessageNewEvent(message models.MessageResponse) MessageNewEvent {
	return MessageNewEvent{
		Type:           EventMessageNew,
		ConversationID: message.ConversationID,
		Message:        message,
	}
}

// MessageSeenEvent tells the sender side which messages a participant has
// just observed, so delivered indicators can flip to seen.
type MessageSeenEvent struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversation_id"`
	MessageIDs     []uint `json:"message_ids"`
	SeenBy         uint   `json:"seen_by"`
}

func NewMessageSeenEvent(conversationID uint, messageIDs []uint, seenBy uint) MessageSeenEvent {
	return MessageSeenEvent{
		Type:           EventMessageSeen,
		ConversationID: conversationID,
		MessageIDs:     messageIDs,
		SeenBy:         seenBy,
	}
}

// ConversationUpdatedEvent carries the authoritative unread count and last
// message preview for one recipient. Clients overwrite their local value
// with it rather than computing deltas.
type ConversationUpdatedEvent struct {
	Type           string                  `json:"type"`
	ConversationID uint                    `json:"conversation_id"`
	UnreadCount    int64                   `json:"unread_count"`
	LastMessage    *models.MessageResponse `json:"last_message,omitempty"`
}

func NewConversationUpdatedEvent(conversationID uint, unreadCount int64, lastMessage *models.MessageResponse) ConversationUpdatedEvent {
	return ConversationUpdatedEvent{
		Type:           EventConversationUpdated,
		ConversationID: conversationID,
		UnreadCount:    unreadCount,
		LastMessage:    lastMessage,
	}
}

// TypingEvent relays a participant's typing state to the others.
type TypingEvent struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversation_id"`
	UserID         uint   `json:"user_id"`
}

func NewTypingEvent(eventType string, conversationID, userID uint) TypingEvent {
	return TypingEvent{
		Type:           eventType,
		ConversationID: conversationID,
		UserID:         userID,
	}
}
