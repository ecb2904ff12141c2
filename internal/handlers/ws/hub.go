package ws

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Conn is the subset of the WebSocket connection the hub writes to. The
// fiber websocket connection satisfies it; tests use fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetPongHandler(h func(appData string) error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// ClientConnection wraps a WebSocket connection with metadata
type ClientConnection struct {
	Conn         Conn
	UserID       uint
	LastPong     time.Time
	SupportsGzip bool
	PingTicker   *time.Ticker
	CloseChan    chan struct{}
}

// Hub manages all active WebSocket connections. Delivery is best effort:
// events for users without an open connection are dropped, and clients
// reconcile through the REST history on reconnect.
type Hub struct {
	clients      map[uint]*ClientConnection
	clientsMux   sync.RWMutex
	pingInterval time.Duration
	pongTimeout  time.Duration
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	hub := &Hub{
		clients:      make(map[uint]*ClientConnection),
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
	}

	go hub.connectionHealthChecker()

	return hub
}

// Register adds a client connection with health monitoring
func (h *Hub) Register(userID uint, conn Conn, supportsGzip bool) {
	clientConn := &ClientConnection{
		Conn:         conn,
		UserID:       userID,
		LastPong:     time.Now(),
		SupportsGzip: supportsGzip,
		PingTicker:   time.NewTicker(h.pingInterval),
		CloseChan:    make(chan struct{}),
	}

	conn.SetPongHandler(func(appData string) error {
		h.clientsMux.Lock()
		if client, exists := h.clients[userID]; exists {
			client.LastPong = time.Now()
		}
		h.clientsMux.Unlock()
		return nil
	})

	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.clientsMux.Lock()
	h.clients[userID] = clientConn
	h.clientsMux.Unlock()

	go h.pingRoutine(clientConn)

	log.Printf("User %d connected to hub (total: %d, gzip: %v)", userID, h.Count(), supportsGzip)
}

// Unregister removes a client connection
func (h *Hub) Unregister(userID uint) {
	h.clientsMux.Lock()
	if client, exists := h.clients[userID]; exists {
		if client.PingTicker != nil {
			client.PingTicker.Stop()
		}
		close(client.CloseChan)
	}
	delete(h.clients, userID)
	count := len(h.clients)
	h.clientsMux.Unlock()
	log.Printf("User %d disconnected from hub (total: %d)", userID, count)
}

// IsOnline checks if a user is connected
func (h *Hub) IsOnline(userID uint) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

// SendToUser pushes an event to a connected user; events for offline users
// are dropped (the REST listing is the source of truth).
func (h *Hub) SendToUser(userID uint, data interface{}) error {
	h.clientsMux.RLock()
	clientConn, exists := h.clients[userID]
	h.clientsMux.RUnlock()

	if !exists {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling event for user %d: %v", userID, err)
		return err
	}

	// Compress if supported and beneficial (> 512 bytes)
	finalData := jsonData
	frameType := websocket.TextMessage
	if clientConn.SupportsGzip && len(jsonData) > 512 {
		if compressed, err := compressData(jsonData); err == nil && len(compressed) < len(jsonData) {
			finalData = compressed
			frameType = websocket.BinaryMessage
		}
	}

	if err := clientConn.Conn.WriteMessage(frameType, finalData); err != nil {
		log.Printf("Error sending event to user %d: %v", userID, err)
		// Connection is likely dead; drop it and let the client reconnect.
		h.Unregister(userID)
		return err
	}

	return nil
}

// EmitToUsers fans one event out to every listed user that is currently
// connected.
func (h *Hub) EmitToUsers(userIDs []uint, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()

	for _, userID := range userIDs {
		if clientConn, exists := h.clients[userID]; exists {
			if err := clientConn.Conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
				log.Printf("Error sending to user %d: %v", userID, err)
			}
		}
	}
}

// GetOnlineUsers returns list of currently connected user IDs
func (h *Hub) GetOnlineUsers() []uint {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()

	users := make([]uint, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// pingRoutine sends periodic ping messages to keep connection alive
func (h *Hub) pingRoutine(client *ClientConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Ping routine recovered from panic for user %d: %v", client.UserID, r)
		}
	}()

	for {
		select {
		case <-client.CloseChan:
			return
		case <-client.PingTicker.C:
			h.clientsMux.RLock()
			_, exists := h.clients[client.UserID]
			h.clientsMux.RUnlock()

			if !exists {
				return
			}

			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				log.Printf("Ping failed for user %d: %v", client.UserID, err)
				h.Unregister(client.UserID)
				return
			}
		}
	}
}

// connectionHealthChecker monitors connection health and removes dead connections
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.clientsMux.RLock()
		deadConnections := make([]uint, 0)
		now := time.Now()

		for userID, client := range h.clients {
			if now.Sub(client.LastPong) > h.pongTimeout {
				deadConnections = append(deadConnections, userID)
			}
		}
		h.clientsMux.RUnlock()

		for _, userID := range deadConnections {
			log.Printf("Removing dead connection for user %d (no pong received)", userID)
			h.Unregister(userID)
		}
	}
}

// compressData compresses data using gzip
func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)

	if _, err := gzipWriter.Write(data); err != nil {
		return nil, err
	}

	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecompressMessage decompresses a gzip binary frame from a client.
func DecompressMessage(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}
