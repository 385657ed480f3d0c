package notifications

import (
	"context"
	"sync"
	"time"

	"twitterclone/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10 // must stay below pongWait
	maxMessageSize = 4096
	sendBuffer     = 64
)

var dropNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// WSHub is the part of a hub a Client reports back to.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client is a middleman between one websocket connection and a hub.
type Client struct {
	Hub WSHub

	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	UserID string

	// IncomingHandler receives every text frame the peer sends.
	IncomingHandler func(*Client, []byte)

	closing   chan closeRequest
	closeOnce sync.Once
}

type closeRequest struct {
	code   int
	reason string
}

func NewClient(hub WSHub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		UserID:  userID,
		Send:    make(chan []byte, sendBuffer),
		closing: make(chan closeRequest, 1),
	}
}

// ReadPump feeds peer frames to IncomingHandler until the connection
// fails, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	extend := func(string) error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) }
	c.Conn.SetReadLimit(maxMessageSize)
	_ = extend("")
	c.Conn.SetPongHandler(extend)

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				observability.NewWSLogger(c.Hub.Name()).LogError(context.Background(), c.UserID, err, "read")
			}
			return
		}
		if c.IncomingHandler != nil {
			c.IncomingHandler(c, frame)
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(kind, data)
}

// WritePump is the only writer on Conn. It sends queued messages and
// keepalive pings, and on Close flushes the queue before the close frame.
func (c *Client) WritePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case req := <-c.closing:
			c.flush()
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(req.code, req.reason))
			return
		case <-ping.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) flush() {
	for {
		select {
		case msg := <-c.Send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

// Close asks WritePump to send a close frame and drop the connection.
// Safe to call from any goroutine, more than once.
func (c *Client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closing <- closeRequest{code: code, reason: reason}
	})
}

// TrySend queues message without blocking. A full buffer drops the message
// and tries to tell the peer so it can re-fetch.
func (c *Client) TrySend(message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
		return true
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
		observability.Logger.Warn("client buffer full, dropped message",
			"user_id", c.UserID, "hub", c.Hub.Name())

		select {
		case c.Send <- dropNotice:
		default:
		}
		return false
	}
}
