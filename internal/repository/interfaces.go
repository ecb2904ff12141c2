package repository

import (
	"github.com/drifthq/driftchat-backend/internal/models"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	FindByIDs(ids []uint) ([]models.User, error)
	UpdateOnlineStatus(userID uint, isOnline bool) error
	SearchUsers(query string, limit int) ([]models.User, error)
}

// ConversationRepositoryInterface defines the contract for conversation repository operations
type ConversationRepositoryInterface interface {
	GetOrCreateDirect(userA, userB uint) (*models.Conversation, error)
	CreateGroup(conv *models.Conversation, participantIDs []uint) error
	FindByID(id uint) (*models.Conversation, error)
	ParticipantIDs(conversationID uint) ([]uint, error)
	IsParticipant(conversationID, userID uint) (bool, error)
	ListForUser(userID uint, page, limit int) ([]ConversationListRow, error)
	CountForUser(userID uint) (int64, error)
}

// MessageRepositoryInterface defines the contract for message repository operations
type MessageRepositoryInterface interface {
	// Append persists the message and increments every other participant's
	// unread counter in one transaction.
	Append(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	FindByClientID(clientID string, senderID uint) (*models.Message, error)
	ListBefore(conversationID uint, cursor uint, limit int) ([]models.Message, error)
	LatestMessageID(conversationID uint) (uint, error)
	// MarkConversationSeen stamps userID on every unseen message not
	// authored by them and zeroes their unread counter, returning the ids
	// of the messages updated.
	MarkConversationSeen(conversationID, userID uint) ([]uint, error)
}

// UnreadRepositoryInterface defines the contract for unread counter reads
type UnreadRepositoryInterface interface {
	Get(conversationID, userID uint) (int64, error)
	TotalForUser(userID uint) (int64, error)
}
