package models

import (
	"testing"
	"time"
)

func TestPairKeyForIsOrderIndependent(t *testing.T) {
	if PairKeyFor(7, 3) != PairKeyFor(3, 7) {
		t.Errorf("PairKeyFor(7,3) = %q, PairKeyFor(3,7) = %q; want equal", PairKeyFor(7, 3), PairKeyFor(3, 7))
	}
	if got, want := PairKeyFor(3, 7), "3:7"; got != want {
		t.Errorf("PairKeyFor(3,7) = %q, want %q", got, want)
	}
}

func TestConversationParticipantHelpers(t *testing.T) {
	conv := &Conversation{
		ID:   1,
		Kind: DirectConversation,
		Participants: []ConversationParticipant{
			{ConversationID: 1, UserID: 3},
			{ConversationID: 1, UserID: 7},
		},
	}

	ids := conv.ParticipantIDs()
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 7 {
		t.Errorf("ParticipantIDs() = %v, want [3 7]", ids)
	}
	if !conv.HasParticipant(3) {
		t.Errorf("HasParticipant(3) = false, want true")
	}
	if conv.HasParticipant(9) {
		t.Errorf("HasParticipant(9) = true, want false")
	}
}

func TestMessageToResponse(t *testing.T) {
	createdAt := time.Now()
	senderID := uint(1)

	message := &Message{
		ID:             1,
		CreatedAt:      createdAt,
		ClientID:       "client-123",
		ConversationID: 5,
		SenderID:       &senderID,
		Sender:         &User{ID: senderID, Username: "sender"},
		Content:        "hello",
		SeenBy: []MessageSeen{
			{MessageID: 1, UserID: 2},
			{MessageID: 1, UserID: 4},
		},
	}

	resp := message.ToResponse()

	if resp.ID != message.ID {
		t.Errorf("ToResponse ID = %d, want %d", resp.ID, message.ID)
	}
	if resp.ClientID != message.ClientID {
		t.Errorf("ToResponse ClientID = %q, want %q", resp.ClientID, message.ClientID)
	}
	if resp.ConversationID != message.ConversationID {
		t.Errorf("ToResponse ConversationID = %d, want %d", resp.ConversationID, message.ConversationID)
	}
	if resp.SenderID == nil || *resp.SenderID != senderID {
		t.Errorf("ToResponse SenderID = %v, want %d", resp.SenderID, senderID)
	}
	if resp.Sender == nil || resp.Sender.Username != "sender" {
		t.Errorf("ToResponse Sender = %v, want sender profile", resp.Sender)
	}
	if len(resp.SeenBy) != 2 || resp.SeenBy[0] != 2 || resp.SeenBy[1] != 4 {
		t.Errorf("ToResponse SeenBy = %v, want [2 4]", resp.SeenBy)
	}
	if !resp.CreatedAt.Equal(createdAt) {
		t.Errorf("ToResponse CreatedAt = %v, want %v", resp.CreatedAt, createdAt)
	}
}

func TestMessageIsSystem(t *testing.T) {
	senderID := uint(1)
	if (&Message{SenderID: &senderID}).IsSystem() {
		t.Errorf("IsSystem() = true for a user message")
	}
	if !(&Message{}).IsSystem() {
		t.Errorf("IsSystem() = false for a nil-sender message")
	}
}

func TestUserToResponseOmitsCredentials(t *testing.T) {
	now := time.Now()
	user := &User{
		ID:           1,
		Username:     "john_doe",
		Email:        "john@example.com",
		PasswordHash: "hash",
		FullName:     "John Doe",
		Avatar:       "https://example.com/avatar.jpg",
		IsOnline:     true,
		LastSeen:     &now,
	}

	resp := user.ToResponse()

	if resp.ID != user.ID {
		t.Errorf("ToResponse ID = %d, want %d", resp.ID, user.ID)
	}
	if resp.Username != user.Username {
		t.Errorf("ToResponse Username = %q, want %q", resp.Username, user.Username)
	}
	if resp.FullName != user.FullName {
		t.Errorf("ToResponse FullName = %q, want %q", resp.FullName, user.FullName)
	}
	if resp.Avatar != user.Avatar {
		t.Errorf("ToResponse Avatar = %q, want %q", resp.Avatar, user.Avatar)
	}
	if !resp.IsOnline {
		t.Errorf("ToResponse IsOnline = false, want true")
	}
	if resp.LastSeen == nil {
		t.Errorf("ToResponse LastSeen is nil")
	}
}
