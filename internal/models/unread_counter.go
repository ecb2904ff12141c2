package models

import (
	"time"
)

// UnreadCounter is the denormalized per-user unread count for a
// conversation. Incremented atomically on append (every participant except
// the sender) and reset to 0 on mark-seen; never read-modify-written.
type UnreadCounter struct {
	ConversationID uint      `gorm:"primaryKey" json:"conversation_id"`
	UserID         uint      `gorm:"primaryKey" json:"user_id"`
	Count          int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
