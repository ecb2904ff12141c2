package cache

import (
	"fmt"
	"strconv"
	"time"
)

// Matches the websocket pong timeout so a crashed server's entries expire
// on their own.
const OnlinePresenceTTL = 90 * time.Second

// PresenceCache mirrors the hub's online set into Redis so presence
// survives a process restart and can be read without holding hub locks.
// All methods are nil-safe.
type PresenceCache struct {
	redis *RedisCache
}

func NewPresenceCache(redis *RedisCache) *PresenceCache {
	return &PresenceCache{redis: redis}
}

func presenceKey(userID uint) string {
	return fmt.Sprintf("online:%d", userID)
}

// SetUserOnline marks a user online.
func (pc *PresenceCache) SetUserOnline(userID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetAdd("online:users", userID); err != nil {
		return err
	}
	return pc.redis.Set(presenceKey(userID), []byte("1"), OnlinePresenceTTL)
}

// SetUserOffline marks a user offline.
func (pc *PresenceCache) SetUserOffline(userID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetRemove("online:users", userID); err != nil {
		return err
	}
	return pc.redis.Delete(presenceKey(userID))
}

// IsUserOnline checks the per-user key, which expires on its own.
func (pc *PresenceCache) IsUserOnline(userID uint) bool {
	if pc == nil || pc.redis == nil {
		return false
	}
	return pc.redis.Exists(presenceKey(userID))
}

// OnlineUsers lists the ids currently in the online set.
func (pc *PresenceCache) OnlineUsers() ([]uint, error) {
	if pc == nil || pc.redis == nil {
		return nil, nil
	}
	members, err := pc.redis.SetMembers("online:users")
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		if v, err := strconv.ParseUint(m, 10, 64); err == nil {
			ids = append(ids, uint(v))
		}
	}
	return ids, nil
}
