package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is always stored as delivered; the sending/failed states only
// exist client-side while a send is in flight.
type Message struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// ClientID is the client-generated correlation id. The unique index on
	// (client_id, sender_id) makes a retried send resolve to the original
	// row instead of inserting a duplicate.
	ClientID string `gorm:"type:varchar(36);uniqueIndex:idx_client_sender" json:"client_id"`

	ConversationID uint         `gorm:"not null;index:idx_conv_created" json:"conversation_id"`
	Conversation   Conversation `gorm:"foreignKey:ConversationID" json:"-"`

	// Nil sender marks a system message (e.g. group creation notice).
	SenderID *uint `gorm:"uniqueIndex:idx_client_sender;index" json:"sender_id"`
	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	Content  string `gorm:"type:text" json:"content,omitempty"`
	ImageURL string `json:"image,omitempty"`

	SeenBy []MessageSeen `gorm:"foreignKey:MessageID" json:"-"`
}

// MessageSeen records that a user has observed a message. Insert-only;
// never holds the sender's own id.
type MessageSeen struct {
	MessageID uint      `gorm:"primaryKey" json:"message_id"`
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	SeenAt    time.Time `gorm:"autoCreateTime" json:"seen_at"`
}

type MessageResponse struct {
	ID             uint          `json:"id"`
	ClientID       string        `json:"client_id,omitempty"`
	ConversationID uint          `json:"conversation_id"`
	SenderID       *uint         `json:"sender_id"`
	Sender         *UserResponse `json:"sender,omitempty"`
	Content        string        `json:"content,omitempty"`
	Image          string        `json:"image,omitempty"`
	SeenBy         []uint        `json:"seen_by"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (m *Message) ToResponse() MessageResponse {
	resp := MessageResponse{
		ID:             m.ID,
		ClientID:       m.ClientID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Image:          m.ImageURL,
		SeenBy:         make([]uint, 0, len(m.SeenBy)),
		CreatedAt:      m.CreatedAt,
	}
	if m.Sender != nil {
		sender := m.Sender.ToResponse()
		resp.Sender = &sender
	}
	for _, s := range m.SeenBy {
		resp.SeenBy = append(resp.SeenBy, s.UserID)
	}
	return resp
}

// IsSystem reports whether the message was generated by the server rather
// than a participant.
func (m *Message) IsSystem() bool {
	return m.SenderID == nil
}
