package handlers

import (
	"log"
	"os"

	"github.com/drifthq/driftchat-backend/internal/cache"
	"github.com/drifthq/driftchat-backend/internal/handlers/ws"
	"github.com/drifthq/driftchat-backend/internal/service"
	"github.com/gofiber/websocket/v2"
)

type WebSocketHandler struct {
	messageService      *service.MessageService
	conversationService *service.ConversationService
	userService         *service.UserService
	presenceCache       *cache.PresenceCache
	hub                 *ws.Hub
	typing              *ws.TypingTracker
}

func NewWebSocketHandler(messageService *service.MessageService, conversationService *service.ConversationService, userService *service.UserService, presenceCache *cache.PresenceCache) *WebSocketHandler {
	h := &WebSocketHandler{
		messageService:      messageService,
		conversationService: conversationService,
		userService:         userService,
		presenceCache:       presenceCache,
		hub:                 ws.NewHub(),
	}
	// A typing indicator that isn't explicitly stopped decays on its own;
	// the expiry broadcast goes to whoever is still connected.
	h.typing = ws.NewTypingTracker(ws.DefaultTypingWindow, h.broadcastTypingStop)
	return h
}

// GetHub returns the hub instance (useful for sending events from other handlers)
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

func (h *WebSocketHandler) broadcastTypingStop(conversationID, userID uint) {
	participantIDs, err := h.conversationService.Participants(conversationID)
	if err != nil {
		log.Printf("typing expiry broadcast skipped for conversation %d: %v", conversationID, err)
		return
	}
	event := ws.NewTypingEvent(ws.EventTypingStop, conversationID, userID)
	for _, participantID := range participantIDs {
		if participantID != userID {
			_ = h.hub.SendToUser(participantID, event)
		}
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)
	wsDebug := os.Getenv("WS_DEBUG") == "true"

	// Check if client supports gzip compression (via query param or header)
	supportsGzip := c.Query("gzip") == "1" || c.Headers("X-Supports-Gzip") == "1"

	h.hub.Register(userID, c, supportsGzip)

	go func() {
		if err := h.presenceCache.SetUserOnline(userID); err != nil {
			log.Printf("Failed to set user %d online in cache: %v", userID, err)
		}
		if err := h.userService.SetUserOnline(userID); err != nil {
			log.Printf("Failed to set user %d online in DB: %v", userID, err)
		}
	}()

	defer func() {
		h.hub.Unregister(userID)
		go func() {
			if err := h.presenceCache.SetUserOffline(userID); err != nil {
				log.Printf("Failed to set user %d offline in cache: %v", userID, err)
			}
			if err := h.userService.SetUserOffline(userID); err != nil {
				log.Printf("Failed to set user %d offline in DB: %v", userID, err)
			}
		}()
	}()

	log.Printf("User %d connected via WebSocket", userID)

	ctx := &ws.MessageContext{
		UserID:              userID,
		Conn:                c,
		Hub:                 h.hub,
		Typing:              h.typing,
		ConversationService: h.conversationService,
		MessageService:      h.messageService,
	}

	for {
		messageType, messageBytes, err := c.ReadMessage()
		if err != nil {
			log.Printf("Error reading message from user %d: %v", userID, err)
			break
		}

		if wsDebug {
			log.Printf("ws_recv user_id=%d frame_type=%d size=%d", userID, messageType, len(messageBytes))
		}

		// Binary frames are gzip compressed
		if messageType == websocket.BinaryMessage {
			decompressed, err := ws.DecompressMessage(messageBytes)
			if err != nil {
				log.Printf("Error decompressing message from user %d: %v", userID, err)
				ws.SendError(c, "decompression_failed", "Failed to decompress message", err.Error())
				continue
			}
			messageBytes = decompressed
		}

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			log.Printf("Error deserializing message from user %d: %v", userID, err)
			ws.SendError(c, "invalid_message", "Invalid message format", err.Error())
			continue
		}

		if err := msg.Process(ctx); err != nil {
			log.Printf("Error processing message %s from user %d: %v", msg.GetType(), userID, err)
			ws.SendError(c, "processing_failed", "Failed to process message", err.Error())
		}
	}

	log.Printf("User %d disconnected from WebSocket", userID)
}
