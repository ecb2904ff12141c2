package cache

import "testing"

// The server runs without Redis; every cache method on a nil receiver (or
// a cache built over a nil client) must degrade to a miss, not panic.

func TestNilConversationCacheDegrades(t *testing.T) {
	var cc *ConversationCache

	if _, ok := cc.GetList(1); ok {
		t.Error("nil cache should report a miss")
	}
	if err := cc.SetList(1, nil); err != nil {
		t.Errorf("nil cache Set should be a no-op, got %v", err)
	}
	cc.InvalidateList(1)

	if _, ok := cc.GetTotalUnread(1); ok {
		t.Error("nil cache should report a miss")
	}
	if err := cc.SetTotalUnread(1, 5); err != nil {
		t.Errorf("nil cache Set should be a no-op, got %v", err)
	}
	cc.InvalidateTotalUnread(1)
}

func TestConversationCacheWithoutRedisDegrades(t *testing.T) {
	cc := NewConversationCache(nil)
	if _, ok := cc.GetList(1); ok {
		t.Error("cache without redis should report a miss")
	}
	if err := cc.SetTotalUnread(1, 3); err != nil {
		t.Errorf("cache without redis Set should be a no-op, got %v", err)
	}
}

func TestNilPresenceCacheDegrades(t *testing.T) {
	var pc *PresenceCache

	if err := pc.SetUserOnline(1); err != nil {
		t.Errorf("nil cache SetUserOnline should be a no-op, got %v", err)
	}
	if err := pc.SetUserOffline(1); err != nil {
		t.Errorf("nil cache SetUserOffline should be a no-op, got %v", err)
	}
	if pc.IsUserOnline(1) {
		t.Error("nil cache should report offline")
	}
	if ids, err := pc.OnlineUsers(); err != nil || ids != nil {
		t.Errorf("nil cache OnlineUsers = %v, %v; want nil, nil", ids, err)
	}
}

func TestNewRedisCacheFromEnvUnset(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	if c := NewRedisCacheFromEnv(); c != nil {
		t.Error("expected nil cache when REDIS_ADDR is unset")
	}
}
