package repository

import (
	"github.com/drifthq/driftchat-backend/internal/models"
	"gorm.io/gorm"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetOrCreateDirect returns the direct conversation for the unordered pair,
// creating it on first use. Concurrent first calls race on the pair_key
// unique index; the loser re-selects the winner's row.
func (r *ConversationRepository) GetOrCreateDirect(userA, userB uint) (*models.Conversation, error) {
	pairKey := models.PairKeyFor(userA, userB)

	var existing models.Conversation
	err := r.db.Preload("Participants.User").Where("pair_key = ?", pairKey).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			INSERT INTO conversations (kind, pair_key, created_at, updated_at)
			VALUES ('direct', ?, NOW(), NOW())
			ON CONFLICT (pair_key) DO NOTHING
		`, pairKey)
		if res.Error != nil {
			return res.Error
		}

		if err := tx.Where("pair_key = ?", pairKey).First(&existing).Error; err != nil {
			return err
		}

		if res.RowsAffected == 0 {
			// Lost the race; the winner owns the participant rows.
			return nil
		}

		participants := []models.ConversationParticipant{
			{ConversationID: existing.ID, UserID: userA},
			{ConversationID: existing.ID, UserID: userB},
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		return nil, err
	}

	return r.FindByID(existing.ID)
}

// CreateGroup persists the group conversation and its participant set.
// Membership validation happens in the service layer.
func (r *ConversationRepository) CreateGroup(conv *models.Conversation, participantIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}

		participants := make([]models.ConversationParticipant, 0, len(participantIDs))
		for _, id := range participantIDs {
			participants = append(participants, models.ConversationParticipant{
				ConversationID: conv.ID,
				UserID:         id,
			})
		}
		return tx.Create(&participants).Error
	})
}

func (r *ConversationRepository) FindByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Preload("Participants.User").First(&conv, id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepository) ParticipantIDs(conversationID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ?", conversationID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *ConversationRepository) IsParticipant(conversationID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *ConversationRepository) CountForUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ConversationParticipant{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
