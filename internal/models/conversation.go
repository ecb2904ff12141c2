package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type ConversationKind string

const (
	DirectConversation ConversationKind = "direct"
	GroupConversation  ConversationKind = "group"
)

type Conversation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Kind ConversationKind `gorm:"type:varchar(10);not null;index" json:"kind"`

	// PairKey is "minID:maxID" for direct conversations so the unordered
	// participant pair maps to at most one row. NULL for groups.
	PairKey *string `gorm:"type:varchar(42);uniqueIndex" json:"-"`

	Name      string `gorm:"size:100" json:"name,omitempty"`
	Image     string `json:"image,omitempty"`
	CreatorID *uint  `json:"creator_id,omitempty"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
}

type ConversationParticipant struct {
	ConversationID uint      `gorm:"primaryKey" json:"conversation_id"`
	UserID         uint      `gorm:"primaryKey;index" json:"user_id"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}

// PairKeyFor builds the canonical direct-conversation key for an unordered
// user pair.
func PairKeyFor(userA, userB uint) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%d:%d", userA, userB)
}

type ConversationResponse struct {
	ID           uint             `json:"id"`
	Kind         ConversationKind `json:"kind"`
	Name         string           `json:"name,omitempty"`
	Image        string           `json:"image,omitempty"`
	CreatorID    *uint            `json:"creator_id,omitempty"`
	Participants []UserResponse   `json:"participants"`
	CreatedAt    time.Time        `json:"created_at"`
}

func (c *Conversation) ToResponse() ConversationResponse {
	resp := ConversationResponse{
		ID:        c.ID,
		Kind:      c.Kind,
		Name:      c.Name,
		Image:     c.Image,
		CreatorID: c.CreatorID,
		CreatedAt: c.CreatedAt,
	}
	resp.Participants = make([]UserResponse, 0, len(c.Participants))
	for _, p := range c.Participants {
		resp.Participants = append(resp.Participants, p.User.ToResponse())
	}
	return resp
}

// ParticipantIDs returns the user ids in the participant set.
func (c *Conversation) ParticipantIDs() []uint {
	ids := make([]uint, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
