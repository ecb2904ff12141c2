package cache

import (
	"fmt"
	"strconv"
	"time"

	"github.com/drifthq/driftchat-backend/internal/repository"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	ConversationListTTL = 2 * time.Minute
	UnreadCountTTL      = 1 * time.Minute
)

// ConversationCache keeps the hot inbox reads out of Postgres: the first
// page of a user's conversation list and their aggregate unread count.
// Both are invalidated on every write that could move them, so a miss is
// the common case right after activity and a hit the common case while
// idle. All methods are nil-safe.
type ConversationCache struct {
	redis *RedisCache
}

func NewConversationCache(redis *RedisCache) *ConversationCache {
	return &ConversationCache{redis: redis}
}

func listKey(userID uint) string {
	return fmt.Sprintf("convlist:%d", userID)
}

func totalUnreadKey(userID uint) string {
	return fmt.Sprintf("unread:total:%d", userID)
}

// GetList retrieves the cached first page of a user's conversation list.
func (cc *ConversationCache) GetList(userID uint) ([]repository.ConversationListRow, bool) {
	if cc == nil || cc.redis == nil {
		return nil, false
	}
	data, err := cc.redis.Get(listKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var rows []repository.ConversationListRow
	if err := msgpack.Unmarshal(data, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

// SetList caches the first page of a user's conversation list.
func (cc *ConversationCache) SetList(userID uint, rows []repository.ConversationListRow) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(rows)
	if err != nil {
		return err
	}
	return cc.redis.Set(listKey(userID), data, ConversationListTTL)
}

// InvalidateList drops a user's cached conversation list.
func (cc *ConversationCache) InvalidateList(userID uint) {
	if cc == nil || cc.redis == nil {
		return
	}
	_ = cc.redis.Delete(listKey(userID))
}

// GetTotalUnread retrieves a user's cached aggregate unread count.
func (cc *ConversationCache) GetTotalUnread(userID uint) (int64, bool) {
	if cc == nil || cc.redis == nil {
		return 0, false
	}
	data, err := cc.redis.Get(totalUnreadKey(userID))
	if err != nil || data == nil {
		return 0, false
	}
	count, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

// SetTotalUnread caches a user's aggregate unread count.
func (cc *ConversationCache) SetTotalUnread(userID uint, count int64) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	return cc.redis.Set(totalUnreadKey(userID), []byte(strconv.FormatInt(count, 10)), UnreadCountTTL)
}

// InvalidateTotalUnread drops a user's cached aggregate unread count.
func (cc *ConversationCache) InvalidateTotalUnread(userID uint) {
	if cc == nil || cc.redis == nil {
		return
	}
	_ = cc.redis.Delete(totalUnreadKey(userID))
}
