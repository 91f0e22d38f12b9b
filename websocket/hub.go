package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"code-review-market/models"
)

// Client is one open connection. A user may hold several at once.
type Client struct {
	Hub    *Hub
	UserID uint
	Role   models.UserRole
	Conn   *websocket.Conn
	Send   chan []byte
}

// Message is the envelope written to clients.
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

const (
	TypeNotification = "notification"
	TypePing         = "ping"
	TypePong         = "pong"
)

// Hub tracks live connections per user and fans payloads out to them.
type Hub struct {
	clients    map[uint]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	log        *zap.Logger
	mu         sync.RWMutex
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.Named("ws"),
	}
}

// Run owns registration until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]struct{})
			}
			h.clients[client.UserID][client] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("client registered", zap.Uint("user_id", client.UserID))

		case client := <-h.Unregister:
			h.remove(client)
			h.log.Debug("client unregistered", zap.Uint("user_id", client.UserID))

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for userID, set := range h.clients {
				for c := range set {
					close(c.Send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Done is closed once Run has stopped.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// register hands client to Run and reports false if the hub has stopped.
func (h *Hub) register(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
}

// PushToUser queues payload on every connection of the user. Users without a
// live connection simply miss the push; the notification is still stored.
func (h *Hub) PushToUser(userID uint, payload any) {
	data, err := json.Marshal(&Message{
		Type:      TypeNotification,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	})
	if err != nil {
		h.log.Error("failed to marshal push", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.Send <- data:
		default:
			h.log.Warn("send buffer full, dropping push", zap.Uint("user_id", userID))
		}
	}
}

// ConnectionCount returns how many live connections the user has.
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID uint) bool {
	return h.ConnectionCount(userID) > 0
}
