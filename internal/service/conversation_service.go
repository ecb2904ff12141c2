package service

import (
	"fmt"

	"github.com/drifthq/driftchat-backend/internal/models"
	"github.com/drifthq/driftchat-backend/internal/repository"
	"github.com/drifthq/driftchat-backend/internal/validation"
	"gorm.io/gorm"
)

type ConversationService struct {
	conversationRepo repository.ConversationRepositoryInterface
	messageRepo      repository.MessageRepositoryInterface
	unreadRepo       repository.UnreadRepositoryInterface
}

func NewConversationService(
	conversationRepo repository.ConversationRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
	unreadRepo repository.UnreadRepositoryInterface,
) *ConversationService {
	return &ConversationService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		unreadRepo:       unreadRepo,
	}
}

// CreateDirect returns the existing conversation for the pair if present.
func (s *ConversationService) CreateDirect(callerID, participantID uint) (*models.Conversation, error) {
	if callerID == participantID || participantID == 0 {
		return nil, ErrInvalidParticipants
	}
	return s.conversationRepo.GetOrCreateDirect(callerID, participantID)
}

type CreateGroupInput struct {
	Name           string `json:"name"`
	ParticipantIDs []uint `json:"participant_ids"`
	Image          string `json:"image"`
}

// CreateGroup requires at least two participants besides the creator. The
// creator is always added to the participant set, and a system message
// announcing the group seeds the timeline.
func (s *ConversationService) CreateGroup(creatorID uint, input CreateGroupInput) (*models.Conversation, error) {
	members := make(map[uint]struct{}, len(input.ParticipantIDs)+1)
	members[creatorID] = struct{}{}
	for _, id := range input.ParticipantIDs {
		if id == 0 {
			return nil, ErrInvalidParticipants
		}
		members[id] = struct{}{}
	}
	if len(members) < 3 {
		return nil, ErrInsufficientMembers
	}

	name := validation.TrimAndLimit(input.Name, validation.MaxGroupNameLength())
	if name == "" {
		return nil, ErrInvalidParticipants
	}

	ids := make([]uint, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}

	conv := &models.Conversation{
		Kind:      models.GroupConversation,
		Name:      name,
		Image:     input.Image,
		CreatorID: &creatorID,
	}
	if err := s.conversationRepo.CreateGroup(conv, ids); err != nil {
		return nil, err
	}

	// Seed the timeline; failure here is not fatal to group creation.
	system := &models.Message{
		ConversationID: conv.ID,
		Content:        fmt.Sprintf("Group %q was created", name),
	}
	_ = s.messageRepo.Append(system)

	return s.conversationRepo.FindByID(conv.ID)
}

func (s *ConversationService) GetConversation(conversationID, callerID uint) (*models.Conversation, error) {
	conv, err := s.conversationRepo.FindByID(conversationID)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(callerID) {
		return nil, ErrUnauthorized
	}
	return conv, nil
}

func (s *ConversationService) ListConversations(userID uint, page, limit int) ([]repository.ConversationListRow, error) {
	return s.conversationRepo.ListForUser(userID, page, limit)
}

// LatestMessageID is the newest message id in the conversation; clients
// compare it against their cache to decide whether to refetch.
func (s *ConversationService) LatestMessageID(conversationID uint) (uint, error) {
	return s.messageRepo.LatestMessageID(conversationID)
}

// CountConversations is the user's total conversation count, for list
// pagination.
func (s *ConversationService) CountConversations(userID uint) (int64, error) {
	return s.conversationRepo.CountForUser(userID)
}

// Participants returns the user ids of everyone in the conversation.
func (s *ConversationService) Participants(conversationID uint) ([]uint, error) {
	return s.conversationRepo.ParticipantIDs(conversationID)
}

// UnreadCount is the caller's unread counter for a single conversation.
func (s *ConversationService) UnreadCount(conversationID, userID uint) (int64, error) {
	return s.unreadRepo.Get(conversationID, userID)
}

// TotalUnread is the aggregate badge across all of the user's conversations.
func (s *ConversationService) TotalUnread(userID uint) (int64, error) {
	return s.unreadRepo.TotalForUser(userID)
}
