package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// API is a thin wrapper over the server's REST surface. Every call carries
// the bearer token and a bounded timeout; callers feed the responses into
// a Timeline.
type API struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WireMessage mirrors the server's message payload.
type WireMessage struct {
	ID             uint      `json:"id"`
	ClientID       string    `json:"client_id"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       *uint     `json:"sender_id"`
	Content        string    `json:"content"`
	Image          string    `json:"image,omitempty"`
	SeenBy         []uint    `json:"seen_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// Timeline converts the wire form into a cache row.
func (m WireMessage) Timeline() TimelineMessage {
	return TimelineMessage{
		ID:             m.ID,
		ClientID:       m.ClientID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		ImageURL:       m.Image,
		CreatedAt:      m.CreatedAt,
		SeenBy:         m.SeenBy,
	}
}

// MessagePage is one history page, newest first on the wire.
type MessagePage struct {
	Messages   []WireMessage `json:"messages"`
	HasMore    bool          `json:"has_more"`
	NextCursor uint          `json:"next_cursor"`
}

// SeenReceipt reports which messages a mark-seen call flipped.
type SeenReceipt struct {
	Updated    int    `json:"updated"`
	MessageIDs []uint `json:"message_ids"`
}

// SendMessage appends a message. The client id is generated here when the
// caller leaves it empty; reusing the same id on retry is what makes the
// retry safe.
func (a *API) SendMessage(ctx context.Context, conversationID uint, clientID, content, image string) (*WireMessage, error) {
	if clientID == "" {
		clientID = uuid.NewString()
	}
	body := map[string]string{
		"client_id": clientID,
		"content":   content,
		"image":     image,
	}

	var msg WireMessage
	path := fmt.Sprintf("/api/conversations/%d/messages", conversationID)
	if err := a.do(ctx, http.MethodPost, path, body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// FetchMessages loads the page of history strictly older than cursor;
// cursor 0 means the newest page.
func (a *API) FetchMessages(ctx context.Context, conversationID uint, cursor uint, limit int) (*MessagePage, error) {
	path := fmt.Sprintf("/api/conversations/%d/messages?cursor=%d&limit=%d", conversationID, cursor, limit)
	var page MessagePage
	if err := a.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// MarkSeen stamps the caller on everything unseen in the conversation.
func (a *API) MarkSeen(ctx context.Context, conversationID uint) (*SeenReceipt, error) {
	path := fmt.Sprintf("/api/conversations/%d/seen", conversationID)
	var receipt SeenReceipt
	if err := a.do(ctx, http.MethodPut, path, nil, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// TotalUnread fetches the aggregate unread badge.
func (a *API) TotalUnread(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/conversations/unread/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// APIError is a non-2xx response.
type APIError struct {
	Status int
	Code   string `json:"code"`
	Msg    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s (%s)", e.Status, e.Msg, e.Code)
}

func (a *API) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
