package repository

import (
	"database/sql"
	"strings"
	"time"
)

// ConversationListRow is a denormalized row for the conversation inbox:
// one row per conversation the user participates in, carrying the last
// message preview, the user's unread count and (for direct conversations)
// the peer profile.
//
// NOTE: deliberately not the full models.User / models.Message shape to
// avoid leaking sensitive fields and to keep the query a single round trip.
type ConversationListRow struct {
	ConversationID uint           `gorm:"column:conversation_id"`
	Kind           string         `gorm:"column:kind"`
	Name           sql.NullString `gorm:"column:name"`
	Image          sql.NullString `gorm:"column:image"`
	CreatedAt      time.Time      `gorm:"column:created_at"`

	PeerID       sql.NullInt64  `gorm:"column:peer_id"`
	PeerUsername sql.NullString `gorm:"column:peer_username"`
	PeerFullName sql.NullString `gorm:"column:peer_full_name"`
	PeerAvatar   sql.NullString `gorm:"column:peer_avatar"`
	PeerIsOnline sql.NullBool   `gorm:"column:peer_is_online"`
	PeerLastSeen *time.Time     `gorm:"column:peer_last_seen"`

	UnreadCount int64 `gorm:"column:unread_count"`

	MessageID        sql.NullInt64  `gorm:"column:message_id"`
	MessageSenderID  sql.NullInt64  `gorm:"column:message_sender_id"`
	MessageContent   sql.NullString `gorm:"column:message_content"`
	MessageImage     sql.NullString `gorm:"column:message_image"`
	MessageCreatedAt *time.Time     `gorm:"column:message_created_at"`

	LastActivity time.Time `gorm:"column:last_activity"`
}

// ListForUser returns one page of the user's conversations ordered by most
// recent activity (max of conversation creation time and latest message
// time). Single query, no N+1: LATERAL joins pick the latest message and
// the direct-conversation peer, and unread counters come from the
// denormalized table.
func (r *ConversationRepository) ListForUser(userID uint, page, limit int) ([]ConversationListRow, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	query := strings.TrimSpace(`
SELECT
	c.id AS conversation_id,
	c.kind,
	c.name,
	c.image,
	c.created_at,
	peer.id AS peer_id,
	peer.username AS peer_username,
	peer.full_name AS peer_full_name,
	peer.avatar AS peer_avatar,
	peer.is_online AS peer_is_online,
	peer.last_seen AS peer_last_seen,
	COALESCE(uc.count, 0) AS unread_count,
	lm.id AS message_id,
	lm.sender_id AS message_sender_id,
	lm.content AS message_content,
	lm.image_url AS message_image,
	lm.created_at AS message_created_at,
	GREATEST(c.created_at, COALESCE(lm.created_at, c.created_at)) AS last_activity
FROM conversations c
JOIN conversation_participants cp
	ON cp.conversation_id = c.id AND cp.user_id = ?
LEFT JOIN LATERAL (
	SELECT m.id, m.sender_id, m.content, m.image_url, m.created_at
	FROM messages m
	WHERE m.conversation_id = c.id AND m.deleted_at IS NULL
	ORDER BY m.created_at DESC, m.id DESC
	LIMIT 1
) lm ON true
LEFT JOIN LATERAL (
	SELECT u.id, u.username, u.full_name, u.avatar, u.is_online, u.last_seen
	FROM conversation_participants cp2
	JOIN users u ON u.id = cp2.user_id
	WHERE c.kind = 'direct' AND cp2.conversation_id = c.id AND cp2.user_id <> ?
	LIMIT 1
) peer ON true
LEFT JOIN unread_counters uc
	ON uc.conversation_id = c.id AND uc.user_id = ?
WHERE c.deleted_at IS NULL
ORDER BY last_activity DESC, c.id DESC
LIMIT ? OFFSET ?
`)

	var rows []ConversationListRow
	err := r.db.Raw(query, userID, userID, userID, limit, offset).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
