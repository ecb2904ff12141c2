package service

import (
	"testing"

	"github.com/drifthq/driftchat-backend/internal/models"
)

func newConversationService(store *MockStore) *ConversationService {
	return NewConversationService(store.Conversations(), store.Messages(), store.Unread())
}

func TestCreateDirectIsIdempotentAcrossArgumentOrder(t *testing.T) {
	store := NewMockStore()
	svc := newConversationService(store)

	first, err := svc.CreateDirect(1, 2)
	if err != nil {
		t.Fatalf("CreateDirect(1,2) error: %v", err)
	}
	second, err := svc.CreateDirect(2, 1)
	if err != nil {
		t.Fatalf("CreateDirect(2,1) error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("CreateDirect returned different conversations: %d and %d", first.ID, second.ID)
	}
	if first.Kind != models.DirectConversation {
		t.Errorf("Kind = %q, want %q", first.Kind, models.DirectConversation)
	}
	if len(first.Participants) != 2 {
		t.Errorf("participant count = %d, want 2", len(first.Participants))
	}
}

func TestCreateDirectRejectsSelf(t *testing.T) {
	svc := newConversationService(NewMockStore())

	if _, err := svc.CreateDirect(1, 1); err != ErrInvalidParticipants {
		t.Errorf("CreateDirect(1,1) error = %v, want ErrInvalidParticipants", err)
	}
	if _, err := svc.CreateDirect(1, 0); err != ErrInvalidParticipants {
		t.Errorf("CreateDirect(1,0) error = %v, want ErrInvalidParticipants", err)
	}
}

func TestCreateGroupRequiresThreeMembers(t *testing.T) {
	svc := newConversationService(NewMockStore())

	tests := []struct {
		name         string
		participants []uint
		wantErr      error
	}{
		{"only one other participant", []uint{2}, ErrInsufficientMembers},
		{"creator listed twice", []uint{1, 2}, ErrInsufficientMembers},
		{"duplicate participant", []uint{2, 2}, ErrInsufficientMembers},
		{"two other participants", []uint{2, 3}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateGroup(1, CreateGroupInput{Name: "weekend plans", ParticipantIDs: tt.participants})
			if err != tt.wantErr {
				t.Errorf("CreateGroup error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateGroupSeedsSystemMessage(t *testing.T) {
	store := NewMockStore()
	svc := newConversationService(store)

	conv, err := svc.CreateGroup(1, CreateGroupInput{Name: "weekend plans", ParticipantIDs: []uint{2, 3}})
	if err != nil {
		t.Fatalf("CreateGroup error: %v", err)
	}
	if len(conv.Participants) != 3 {
		t.Errorf("participant count = %d, want 3 (creator included)", len(conv.Participants))
	}
	if !conv.HasParticipant(1) {
		t.Errorf("creator missing from participant set")
	}

	page, err := store.Messages().ListBefore(conv.ID, 0, 10)
	if err != nil {
		t.Fatalf("ListBefore error: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("message count after group creation = %d, want 1 system message", len(page))
	}
	if !page[0].IsSystem() {
		t.Errorf("seed message has sender %v, want system message", page[0].SenderID)
	}
}

func TestGetConversationEnforcesMembership(t *testing.T) {
	store := NewMockStore()
	svc := newConversationService(store)

	conv, err := svc.CreateDirect(1, 2)
	if err != nil {
		t.Fatalf("CreateDirect error: %v", err)
	}

	if _, err := svc.GetConversation(conv.ID, 1); err != nil {
		t.Errorf("GetConversation as participant error = %v, want nil", err)
	}
	if _, err := svc.GetConversation(conv.ID, 9); err != ErrUnauthorized {
		t.Errorf("GetConversation as outsider error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.GetConversation(999, 1); err != ErrConversationNotFound {
		t.Errorf("GetConversation(999) error = %v, want ErrConversationNotFound", err)
	}
}

func TestTotalUnreadSumsAcrossConversations(t *testing.T) {
	store := NewMockStore()
	convSvc := newConversationService(store)
	msgSvc := NewMessageService(store.Messages(), store.Conversations(), store.Unread())

	convA, _ := convSvc.CreateDirect(1, 2)
	convB, _ := convSvc.CreateDirect(1, 3)

	if _, err := msgSvc.Append(convA.ID, 2, AppendMessageInput{Content: "hi"}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if _, err := msgSvc.Append(convB.ID, 3, AppendMessageInput{Content: "hello"}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if _, err := msgSvc.Append(convB.ID, 3, AppendMessageInput{Content: "again"}); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	total, err := convSvc.TotalUnread(1)
	if err != nil {
		t.Fatalf("TotalUnread error: %v", err)
	}
	if total != 3 {
		t.Errorf("TotalUnread = %d, want 3", total)
	}
}
