// Package notifications delivers real-time messages to connected websocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"twitterclone/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
)

// Message is the envelope written to sockets.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Encode marshals m, falling back to a bare type on failure.
func (m Message) Encode() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		return []byte(`{"type":"` + m.Type + `"}`)
	}
	return data
}

// Hub maps a user id to that user's live clients.
type Hub struct {
	name string
	log  *observability.WSLogger

	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
	closed     bool
}

func NewHub(name string) *Hub {
	if name == "" {
		name = "notification hub"
	}
	return &Hub{
		name:  name,
		log:   observability.NewWSLogger(name),
		conns: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Name() string { return h.name }

// Register adds a client for userID, enforcing the per-user and total limits.
func (h *Hub) Register(userID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	h.log.LogConnect(context.Background(), userID, h.name)
	return client, nil
}

func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		h.log.LogDisconnect(context.Background(), client.UserID, h.name, "closed")
	}
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Broadcast sends message to all connections of userID.
func (h *Hub) Broadcast(userID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[userID] {
		c.TrySend(message)
	}
}

// Notify encodes msg and sends it to userID.
func (h *Hub) Notify(userID string, msg Message) {
	h.Broadcast(userID, msg.Encode())
}

// IsOnline reports whether userID has a live connection on this instance.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// StartWiring forwards user notifications published through n (possibly by
// other instances) to the matching local clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartUserSubscriber(ctx, func(channel, payload string) {
		userID, ok := strings.CutPrefix(channel, userChannelPrefix)
		if !ok || userID == "" {
			observability.Logger.Warn("invalid notification channel", "channel", channel)
			return
		}
		h.Broadcast(userID, []byte(payload))
	})
}

// Shutdown asks every client to close and refuses new registrations.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	h.closed = true
	conns := h.conns
	h.conns = make(map[string]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	for _, clients := range conns {
		for c := range clients {
			h.log.LogDisconnect(context.Background(), c.UserID, h.name, "shutdown")
			c.Close(websocket.CloseGoingAway, "Server shutting down")
		}
	}
	return nil
}
