package service

import (
	"sort"
	"time"

	"github.com/drifthq/driftchat-backend/internal/models"
	"github.com/drifthq/driftchat-backend/internal/repository"
	"gorm.io/gorm"
)

// MockStore is the shared in-memory backing for the mock repositories. It
// mirrors the transactional behavior of the real ones (append increments
// counters, mark-seen is set-semantics) so service tests exercise the same
// invariants. The repository contracts are implemented by the thin wrapper
// types below because the conversation and message contracts both declare
// FindByID.
type MockStore struct {
	conversations map[uint]*models.Conversation
	pairs         map[string]uint
	messages      map[uint]*models.Message
	unread        map[uint]map[uint]int64 // conversationID -> userID -> count
	nextConvID    uint
	nextMsgID     uint
	now           time.Time
}

func NewMockStore() *MockStore {
	return &MockStore{
		conversations: make(map[uint]*models.Conversation),
		pairs:         make(map[string]uint),
		messages:      make(map[uint]*models.Message),
		unread:        make(map[uint]map[uint]int64),
		nextConvID:    1,
		nextMsgID:     1,
		now:           time.Now(),
	}
}

type MockConversationRepository struct{ store *MockStore }
type MockMessageRepository struct{ store *MockStore }
type MockUnreadRepository struct{ store *MockStore }

func (m *MockStore) Conversations() *MockConversationRepository {
	return &MockConversationRepository{store: m}
}

func (m *MockStore) Messages() *MockMessageRepository {
	return &MockMessageRepository{store: m}
}

func (m *MockStore) Unread() *MockUnreadRepository {
	return &MockUnreadRepository{store: m}
}

var (
	_ repository.ConversationRepositoryInterface = (*MockConversationRepository)(nil)
	_ repository.MessageRepositoryInterface      = (*MockMessageRepository)(nil)
	_ repository.UnreadRepositoryInterface       = (*MockUnreadRepository)(nil)
)

// tick returns a strictly increasing timestamp so insertion order and
// creation order agree, like serial ids in Postgres.
func (m *MockStore) tick() time.Time {
	m.now = m.now.Add(time.Millisecond)
	return m.now
}

func (m *MockStore) addConversation(kind models.ConversationKind, name string, participantIDs []uint) *models.Conversation {
	conv := &models.Conversation{
		ID:        m.nextConvID,
		Kind:      kind,
		Name:      name,
		CreatedAt: m.tick(),
	}
	m.nextConvID++
	for _, id := range participantIDs {
		conv.Participants = append(conv.Participants, models.ConversationParticipant{
			ConversationID: conv.ID,
			UserID:         id,
			User:           models.User{ID: id},
		})
	}
	m.conversations[conv.ID] = conv
	return conv
}

func (m *MockStore) latestMessage(conversationID uint) *models.Message {
	var latest *models.Message
	for _, msg := range m.messages {
		if msg.ConversationID != conversationID {
			continue
		}
		if latest == nil || msg.ID > latest.ID {
			latest = msg
		}
	}
	return latest
}

func (r *MockConversationRepository) GetOrCreateDirect(userA, userB uint) (*models.Conversation, error) {
	key := models.PairKeyFor(userA, userB)
	if id, ok := r.store.pairs[key]; ok {
		return r.store.conversations[id], nil
	}
	conv := r.store.addConversation(models.DirectConversation, "", []uint{userA, userB})
	r.store.pairs[key] = conv.ID
	return conv, nil
}

func (r *MockConversationRepository) CreateGroup(conv *models.Conversation, participantIDs []uint) error {
	created := r.store.addConversation(models.GroupConversation, conv.Name, participantIDs)
	created.Image = conv.Image
	created.CreatorID = conv.CreatorID
	conv.ID = created.ID
	return nil
}

func (r *MockConversationRepository) FindByID(id uint) (*models.Conversation, error) {
	if conv, ok := r.store.conversations[id]; ok {
		return conv, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MockConversationRepository) ParticipantIDs(conversationID uint) ([]uint, error) {
	conv, ok := r.store.conversations[conversationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conv.ParticipantIDs(), nil
}

func (r *MockConversationRepository) IsParticipant(conversationID, userID uint) (bool, error) {
	conv, ok := r.store.conversations[conversationID]
	if !ok {
		return false, nil
	}
	return conv.HasParticipant(userID), nil
}

func (r *MockConversationRepository) ListForUser(userID uint, page, limit int) ([]repository.ConversationListRow, error) {
	var rows []repository.ConversationListRow
	for _, conv := range r.store.conversations {
		if !conv.HasParticipant(userID) {
			continue
		}
		row := repository.ConversationListRow{
			ConversationID: conv.ID,
			Kind:           string(conv.Kind),
			CreatedAt:      conv.CreatedAt,
			LastActivity:   conv.CreatedAt,
			UnreadCount:    r.store.unread[conv.ID][userID],
		}
		if latest := r.store.latestMessage(conv.ID); latest != nil {
			row.LastActivity = latest.CreatedAt
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].LastActivity.After(rows[j].LastActivity)
	})
	return rows, nil
}

func (r *MockConversationRepository) CountForUser(userID uint) (int64, error) {
	var count int64
	for _, conv := range r.store.conversations {
		if conv.HasParticipant(userID) {
			count++
		}
	}
	return count, nil
}

func (r *MockMessageRepository) Append(message *models.Message) error {
	conv, ok := r.store.conversations[message.ConversationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	message.ID = r.store.nextMsgID
	r.store.nextMsgID++
	message.CreatedAt = r.store.tick()
	r.store.messages[message.ID] = message

	for _, p := range conv.Participants {
		if message.SenderID != nil && p.UserID == *message.SenderID {
			continue
		}
		if r.store.unread[conv.ID] == nil {
			r.store.unread[conv.ID] = make(map[uint]int64)
		}
		r.store.unread[conv.ID][p.UserID]++
	}
	return nil
}

func (r *MockMessageRepository) FindByID(id uint) (*models.Message, error) {
	if msg, ok := r.store.messages[id]; ok {
		return msg, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MockMessageRepository) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	for _, msg := range r.store.messages {
		if msg.ClientID == clientID && msg.SenderID != nil && *msg.SenderID == senderID {
			return msg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MockMessageRepository) ListBefore(conversationID uint, cursor uint, limit int) ([]models.Message, error) {
	var result []models.Message
	for _, msg := range r.store.messages {
		if msg.ConversationID != conversationID {
			continue
		}
		if cursor > 0 && msg.ID >= cursor {
			continue
		}
		result = append(result, *msg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *MockMessageRepository) LatestMessageID(conversationID uint) (uint, error) {
	if latest := r.store.latestMessage(conversationID); latest != nil {
		return latest.ID, nil
	}
	return 0, nil
}

func (r *MockMessageRepository) MarkConversationSeen(conversationID, userID uint) ([]uint, error) {
	var updated []uint
	for _, msg := range r.store.messages {
		if msg.ConversationID != conversationID {
			continue
		}
		if msg.SenderID != nil && *msg.SenderID == userID {
			continue
		}
		already := false
		for _, s := range msg.SeenBy {
			if s.UserID == userID {
				already = true
				break
			}
		}
		if already {
			continue
		}
		msg.SeenBy = append(msg.SeenBy, models.MessageSeen{MessageID: msg.ID, UserID: userID})
		updated = append(updated, msg.ID)
	}
	if r.store.unread[conversationID] != nil {
		r.store.unread[conversationID][userID] = 0
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i] < updated[j] })
	return updated, nil
}

func (r *MockUnreadRepository) Get(conversationID, userID uint) (int64, error) {
	return r.store.unread[conversationID][userID], nil
}

func (r *MockUnreadRepository) TotalForUser(userID uint) (int64, error) {
	var total int64
	for _, byUser := range r.store.unread {
		total += byUser[userID]
	}
	return total, nil
}
