package wshub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"codementor/internal/judge"
)

// ClientMessage is the JSON structure received from clients.
type ClientMessage struct {
	Type string `json:"t"`
	Room string `json:"room,omitempty"`
	Role string `json:"role,omitempty"`
	Text string `json:"text,omitempty"`
}

// ServerMessage is the JSON structure sent to clients.
type ServerMessage struct {
	Type          string        `json:"t"`
	Room          string        `json:"room,omitempty"`
	Role          string        `json:"role,omitempty"`
	Text          string        `json:"text,omitempty"`
	ParticipantID string        `json:"participant,omitempty"`
	Verdict       *judge.Result `json:"verdict,omitempty"`
	Detail        string        `json:"detail,omitempty"`
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	ParticipantID string
	RoomID        string
	Conn          *websocket.Conn
	Send          chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub manages per-room WebSocket connections.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Client
	log   zerolog.Logger
}

// NewHub creates a new Hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[string]*Client),
		log:   log.With().Str("component", "wshub").Logger(),
	}
}

// Register adds a client to its room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[c.RoomID]
	if !ok {
		clients = make(map[string]*Client)
		h.rooms[c.RoomID] = clients
	}
	clients[c.ParticipantID] = c
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(roomID, participantID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if c, ok := clients[participantID]; ok {
		close(c.Send)
		delete(clients, participantID)
	}
	if len(clients) == 0 {
		delete(h.rooms, roomID)
	}
}

// BroadcastExcept sends a message to every client in the room except the
// sender. Non-blocking: drops if a client's channel is full.
func (h *Hub) BroadcastExcept(roomID, senderID string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal broadcast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.rooms[roomID] {
		if id == senderID {
			continue
		}
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}

// SendTo delivers a message to a single registered client. Reports false
// when the client is gone or its channel is full. Going through the hub
// lock keeps the send safe against a concurrent Unregister.
func (h *Hub) SendTo(roomID, participantID string, msg ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal direct send")
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.rooms[roomID][participantID]
	if !ok {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// RoomClients returns the number of connections registered for a room.
func (h *Hub) RoomClients(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
