package ws

import (
	"sync"
	"time"
)

// DefaultTypingWindow is how long a typing indicator stays alive without a
// refresh before it is treated as stopped.
const DefaultTypingWindow = 5 * time.Second

type typingKey struct {
	ConversationID uint
	UserID         uint
}

// TypingTracker holds the ephemeral per-process typing state. Nothing is
// persisted: each entry is a timer that synthesizes a typing:stop when the
// idle window elapses without a refresh or an explicit stop.
type TypingTracker struct {
	mu       sync.Mutex
	entries  map[typingKey]*time.Timer
	window   time.Duration
	onExpire func(conversationID, userID uint)
}

func NewTypingTracker(window time.Duration, onExpire func(conversationID, userID uint)) *TypingTracker {
	if window <= 0 {
		window = DefaultTypingWindow
	}
	return &TypingTracker{
		entries:  make(map[typingKey]*time.Timer),
		window:   window,
		onExpire: onExpire,
	}
}

// Touch marks the user as typing and (re)arms the expiry timer. Returns
// true when this is a fresh start rather than a refresh, so callers only
// broadcast typing:start once per burst.
func (t *TypingTracker) Touch(conversationID, userID uint) bool {
	key := typingKey{ConversationID: conversationID, UserID: userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.entries[key]; ok {
		timer.Reset(t.window)
		return false
	}

	t.entries[key] = time.AfterFunc(t.window, func() {
		t.expire(key)
	})
	return true
}

// Stop clears the typing state. Returns false when there was nothing to
// clear (already expired or never started), so duplicate stop events are
// suppressed.
func (t *TypingTracker) Stop(conversationID, userID uint) bool {
	key := typingKey{ConversationID: conversationID, UserID: userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.entries[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(t.entries, key)
	return true
}

// IsTyping reports whether the user currently has a live typing entry.
func (t *TypingTracker) IsTyping(conversationID, userID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[typingKey{ConversationID: conversationID, UserID: userID}]
	return ok
}

func (t *TypingTracker) expire(key typingKey) {
	t.mu.Lock()
	_, ok := t.entries[key]
	if ok {
		delete(t.entries, key)
	}
	t.mu.Unlock()

	if ok && t.onExpire != nil {
		t.onExpire(key.ConversationID, key.UserID)
	}
}

// MessageTypingStart is the client frame announcing the user started typing
type MessageTypingStart struct {
	ConversationID uint `json:"conversation_id"`
}

func (msg *MessageTypingStart) GetType() string {
	return EventTypingStart
}

func (msg *MessageTypingStart) Process(ctx *MessageContext) error {
	conv, err := ctx.ConversationService.GetConversation(msg.ConversationID, ctx.UserID)
	if err != nil {
		return err
	}

	fresh := ctx.Typing.Touch(msg.ConversationID, ctx.UserID)
	if !fresh {
		// Refresh only; the others already saw typing:start.
		return nil
	}

	ctx.Hub.EmitToUsers(
		othersOf(conv.ParticipantIDs(), ctx.UserID),
		NewTypingEvent(EventTypingStart, msg.ConversationID, ctx.UserID),
	)
	return nil
}

// MessageTypingStop is the client frame announcing the user stopped typing
type MessageTypingStop struct {
	ConversationID uint `json:"conversation_id"`
}

func (msg *MessageTypingStop) GetType() string {
	return EventTypingStop
}

func (msg *MessageTypingStop) Process(ctx *MessageContext) error {
	conv, err := ctx.ConversationService.GetConversation(msg.ConversationID, ctx.UserID)
	if err != nil {
		return err
	}

	if !ctx.Typing.Stop(msg.ConversationID, ctx.UserID) {
		return nil
	}

	ctx.Hub.EmitToUsers(
		othersOf(conv.ParticipantIDs(), ctx.UserID),
		NewTypingEvent(EventTypingStop, msg.ConversationID, ctx.UserID),
	)
	return nil
}

// othersOf filters userID out of a participant set.
func othersOf(participantIDs []uint, userID uint) []uint {
	others := make([]uint, 0, len(participantIDs))
	for _, id := range participantIDs {
		if id != userID {
			others = append(others, id)
		}
	}
	return others
}
