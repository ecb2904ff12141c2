package repository

import (
	"github.com/drifthq/driftchat-backend/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append persists the message and bumps the unread counter of every
// participant except the sender in the same transaction, so two messages
// arriving concurrently for one recipient never lose an increment.
func (r *MessageRepository) Append(message *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		var senderID uint
		if message.SenderID != nil {
			senderID = *message.SenderID
		}

		return tx.Exec(`
			INSERT INTO unread_counters (conversation_id, user_id, count, created_at, updated_at)
			SELECT cp.conversation_id, cp.user_id, 1, NOW(), NOW()
			FROM conversation_participants cp
			WHERE cp.conversation_id = ? AND cp.user_id <> ?
			ON CONFLICT (conversation_id, user_id) DO UPDATE
			SET count = unread_counters.count + 1,
				updated_at = NOW()
		`, message.ConversationID, senderID).Error
	})
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").Preload("SeenBy").First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").Preload("SeenBy").
		Where("client_id = ? AND sender_id = ?", clientID, senderID).
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListBefore returns up to limit messages strictly older than cursor,
// newest first. A zero cursor means the newest page. The id is the
// monotonic ordering key (creation-time ties break by insertion sequence),
// so the exclusive bound never repeats or skips entries while new messages
// are being inserted.
func (r *MessageRepository) ListBefore(conversationID uint, cursor uint, limit int) ([]models.Message, error) {
	q := r.db.Preload("Sender").Preload("SeenBy").
		Where("conversation_id = ?", conversationID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}

	var messages []models.Message
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) LatestMessageID(conversationID uint) (uint, error) {
	var id uint
	err := r.db.Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Select("COALESCE(MAX(id), 0)").
		Scan(&id).Error
	return id, err
}

// MarkConversationSeen stamps userID on every message in the conversation
// they have not yet seen and did not author, and zeroes their unread
// counter, all in one transaction. Returns the ids of the updated messages;
// a second call is a no-op by construction (set-semantics insert, 0 -> 0).
func (r *MessageRepository) MarkConversationSeen(conversationID, userID uint) ([]uint, error) {
	var updated []uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(`
			INSERT INTO message_seens (message_id, user_id, seen_at)
			SELECT m.id, ?, NOW()
			FROM messages m
			WHERE m.conversation_id = ?
				AND m.deleted_at IS NULL
				AND (m.sender_id IS NULL OR m.sender_id <> ?)
			ON CONFLICT (message_id, user_id) DO NOTHING
			RETURNING message_id
		`, userID, conversationID, userID).Scan(&updated).Error; err != nil {
			return err
		}

		return tx.Exec(`
			UPDATE unread_counters
			SET count = 0, updated_at = NOW()
			WHERE conversation_id = ? AND user_id = ?
		`, conversationID, userID).Error
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
