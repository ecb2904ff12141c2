package repository

import (
	"github.com/drifthq/driftchat-backend/internal/models"
	"gorm.io/gorm"
)

type UnreadRepository struct {
	db *gorm.DB
}

func NewUnreadRepository(db *gorm.DB) *UnreadRepository {
	return &UnreadRepository{db: db}
}

func (r *UnreadRepository) Get(conversationID, userID uint) (int64, error) {
	var counter models.UnreadCounter
	err := r.db.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&counter).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.Count, nil
}

// TotalForUser is the aggregate unread badge across all conversations.
func (r *UnreadRepository) TotalForUser(userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.UnreadCounter{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(count), 0)").
		Scan(&total).Error
	return total, err
}
