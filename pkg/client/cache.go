// Package client is the client-side companion to the messaging server: a
// reconciliation cache for one conversation's timeline, a reconnecting
// WebSocket consumer and a thin REST wrapper. The cache exists because a
// sent message can come back twice, once as the HTTP acknowledgement and
// once as a pushed event, in either order, and the UI must render it
// exactly once.
package client

import (
	"sort"
	"sync"
	"time"
)

// DeliveryState tracks an optimistic message through its lifecycle.
type DeliveryState string

const (
	StateSending   DeliveryState = "sending"
	StateDelivered DeliveryState = "delivered"
	StateFailed    DeliveryState = "failed"
)

// TimelineMessage is one rendered row. Confirmed rows carry the server id;
// pending rows only have the client-generated id.
type TimelineMessage struct {
	ID             uint
	ClientID       string
	ConversationID uint
	SenderID       *uint
	Content        string
	ImageURL       string
	CreatedAt      time.Time
	State          DeliveryState
	SeenBy         []uint
}

// Timeline reconciles one conversation's view: server-confirmed history
// ordered by creation time, optimistic sends appended after it, and the
// unread counter the server last reported. Safe for concurrent use.
type Timeline struct {
	mu             sync.Mutex
	conversationID uint

	confirmed []TimelineMessage
	seenIDs   map[uint]struct{}

	pending      map[string]*TimelineMessage
	pendingOrder []string

	unread int64
}

func NewTimeline(conversationID uint) *Timeline {
	return &Timeline{
		conversationID: conversationID,
		seenIDs:        make(map[uint]struct{}),
		pending:        make(map[string]*TimelineMessage),
	}
}

// StagePending records an optimistic send. The row renders immediately in
// the sending state and stays at the bottom of the timeline until the
// server confirms or the send fails.
func (t *Timeline) StagePending(msg TimelineMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.pending[msg.ClientID]; exists {
		return
	}
	msg.State = StateSending
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	t.pending[msg.ClientID] = &msg
	t.pendingOrder = append(t.pendingOrder, msg.ClientID)
}

// ResolvePending replaces a pending row with its confirmed form. The
// confirmed row is inserted into history in server order, never appended
// blindly, so a slow acknowledgement cannot reorder the timeline. Safe to
// call for a client id that was already resolved by a pushed event.
func (t *Timeline) ResolvePending(clientID string, confirmed TimelineMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.removePendingLocked(clientID)
	t.insertConfirmedLocked(confirmed)
}

// FailPending flips a pending row to failed so the UI can offer a retry.
// Returns false when the client id is unknown (already confirmed).
func (t *Timeline) FailPending(clientID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg, ok := t.pending[clientID]
	if !ok {
		return false
	}
	msg.State = StateFailed
	return true
}

// RetryPending flips a failed row back to sending, keeping the same client
// id so the server-side dedup makes the retry safe.
func (t *Timeline) RetryPending(clientID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg, ok := t.pending[clientID]
	if !ok || msg.State != StateFailed {
		return false
	}
	msg.State = StateSending
	return true
}

// ApplyNew merges a pushed message event. A duplicate server id is a no-op
// and a client id matching one of our pending sends resolves that send, so
// ack and push can arrive in either order. Returns true when the timeline
// gained a row it did not have.
func (t *Timeline) ApplyNew(msg TimelineMessage) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.seenIDs[msg.ID]; dup {
		return false
	}
	if msg.ClientID != "" {
		t.removePendingLocked(msg.ClientID)
	}
	t.insertConfirmedLocked(msg)
	return true
}

// MergeOlderPage merges a fetched history page. Overlap with rows already
// held (a page re-fetched after reconnect) is dropped.
func (t *Timeline) MergeOlderPage(msgs []TimelineMessage) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	added := 0
	for _, msg := range msgs {
		if _, dup := t.seenIDs[msg.ID]; dup {
			continue
		}
		if msg.ClientID != "" {
			t.removePendingLocked(msg.ClientID)
		}
		t.insertConfirmedLocked(msg)
		added++
	}
	return added
}

// ApplySeen stamps a viewer onto the given rows. Unknown ids are ignored;
// the history page that carries them will arrive with the stamp included.
func (t *Timeline) ApplySeen(messageIDs []uint, seenBy uint) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make(map[uint]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		ids[id] = struct{}{}
	}
	for i := range t.confirmed {
		if _, ok := ids[t.confirmed[i].ID]; !ok {
			continue
		}
		if !containsUint(t.confirmed[i].SeenBy, seenBy) {
			t.confirmed[i].SeenBy = append(t.confirmed[i].SeenBy, seenBy)
		}
	}
}

// SetUnread overwrites the unread counter with the server-reported value.
// The server is authoritative; the client never computes deltas.
func (t *Timeline) SetUnread(count int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unread = count
}

// ClearUnread zeroes the counter optimistically when the conversation is
// opened; the mark-seen response reconciles it.
func (t *Timeline) ClearUnread() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unread = 0
}

func (t *Timeline) Unread() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unread
}

// Messages returns the renderable timeline: confirmed history in server
// order followed by pending sends in the order they were staged.
func (t *Timeline) Messages() []TimelineMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TimelineMessage, 0, len(t.confirmed)+len(t.pendingOrder))
	out = append(out, t.confirmed...)
	for _, clientID := range t.pendingOrder {
		if msg, ok := t.pending[clientID]; ok {
			out = append(out, *msg)
		}
	}
	return out
}

// OldestID is the cursor for the next history fetch; zero when the
// timeline holds no confirmed rows yet.
func (t *Timeline) OldestID() uint {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.confirmed) == 0 {
		return 0
	}
	return t.confirmed[0].ID
}

func (t *Timeline) insertConfirmedLocked(msg TimelineMessage) {
	msg.State = StateDelivered
	t.seenIDs[msg.ID] = struct{}{}

	i := sort.Search(len(t.confirmed), func(i int) bool {
		a := t.confirmed[i]
		if !a.CreatedAt.Equal(msg.CreatedAt) {
			return a.CreatedAt.After(msg.CreatedAt)
		}
		return a.ID > msg.ID
	})
	t.confirmed = append(t.confirmed, TimelineMessage{})
	copy(t.confirmed[i+1:], t.confirmed[i:])
	t.confirmed[i] = msg
}

func (t *Timeline) removePendingLocked(clientID string) {
	if _, ok := t.pending[clientID]; !ok {
		return
	}
	delete(t.pending, clientID)
	for i, id := range t.pendingOrder {
		if id == clientID {
			t.pendingOrder = append(t.pendingOrder[:i], t.pendingOrder[i+1:]...)
			break
		}
	}
}

func containsUint(s []uint, v uint) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
