package service

import (
	"github.com/drifthq/driftchat-backend/internal/models"
	"github.com/drifthq/driftchat-backend/internal/repository"
	"github.com/drifthq/driftchat-backend/internal/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageService struct {
	messageRepo      repository.MessageRepositoryInterface
	conversationRepo repository.ConversationRepositoryInterface
	unreadRepo       repository.UnreadRepositoryInterface
}

func NewMessageService(
	messageRepo repository.MessageRepositoryInterface,
	conversationRepo repository.ConversationRepositoryInterface,
	unreadRepo repository.UnreadRepositoryInterface,
) *MessageService {
	return &MessageService{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		unreadRepo:       unreadRepo,
	}
}

type AppendMessageInput struct {
	ClientID string `json:"client_id"`
	Content  string `json:"content"`
	Image    string `json:"image"`
}

// Append validates and persists a message. A repeated client_id from the
// same sender resolves to the already-persisted message, so a client whose
// send timed out after reaching the server can retry without duplicating.
func (s *MessageService) Append(conversationID, senderID uint, input AppendMessageInput) (*models.Message, error) {
	input.Content = validation.TrimAndLimit(input.Content, validation.MaxMessageLength())
	if input.Content == "" && input.Image == "" {
		return nil, ErrEmptyMessage
	}

	isParticipant, err := s.conversationRepo.IsParticipant(conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		return nil, ErrNotAParticipant
	}

	if input.ClientID == "" {
		input.ClientID = uuid.NewString()
	} else if existing, err := s.messageRepo.FindByClientID(input.ClientID, senderID); err == nil {
		return existing, nil
	}

	message := &models.Message{
		ClientID:       input.ClientID,
		ConversationID: conversationID,
		SenderID:       &senderID,
		Content:        input.Content,
		ImageURL:       input.Image,
	}
	if err := s.messageRepo.Append(message); err != nil {
		return nil, err
	}

	// Reload with sender profile for the response and the fan-out payload.
	return s.messageRepo.FindByID(message.ID)
}

// MessagePage is one cursor page of a conversation's history, newest first.
type MessagePage struct {
	Messages   []models.Message
	HasMore    bool
	NextCursor uint
}

// ListMessages returns messages strictly older than cursor (newest page
// when cursor is 0). One extra row is fetched to compute HasMore.
func (s *MessageService) ListMessages(conversationID, callerID uint, cursor uint, limit int) (*MessagePage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	isParticipant, err := s.conversationRepo.IsParticipant(conversationID, callerID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		return nil, ErrUnauthorized
	}

	messages, err := s.messageRepo.ListBefore(conversationID, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	page := &MessagePage{Messages: messages}
	if len(messages) > limit {
		page.Messages = messages[:limit]
		page.HasMore = true
	}
	if n := len(page.Messages); n > 0 {
		page.NextCursor = page.Messages[n-1].ID
	}
	return page, nil
}

// SeenResult reports which messages a mark-seen call actually updated.
type SeenResult struct {
	MessageIDs []uint
	Updated    int
}

// MarkSeen stamps the caller on every unseen message in the conversation
// and resets their unread counter. Idempotent: a racing second call
// updates nothing and returns zero.
func (s *MessageService) MarkSeen(conversationID, userID uint) (*SeenResult, error) {
	isParticipant, err := s.conversationRepo.IsParticipant(conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		return nil, ErrUnauthorized
	}

	ids, err := s.messageRepo.MarkConversationSeen(conversationID, userID)
	if err != nil {
		return nil, err
	}
	return &SeenResult{MessageIDs: ids, Updated: len(ids)}, nil
}

// UnreadCount is the caller's unread counter for a single conversation.
func (s *MessageService) UnreadCount(conversationID, userID uint) (int64, error) {
	return s.unreadRepo.Get(conversationID, userID)
}

// GetMessage loads a message by id, not permission-checked; callers use it
// for fan-out payloads after a permission-checked operation.
func (s *MessageService) GetMessage(id uint) (*models.Message, error) {
	msg, err := s.messageRepo.FindByID(id)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrConversationNotFound
	}
	return msg, err
}
