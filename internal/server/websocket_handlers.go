package server

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"twitterclone/internal/feed"
	"twitterclone/internal/middleware"
	"twitterclone/internal/notifications"
	"twitterclone/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const defaultSubscriptionID = "default"

// WebsocketHandler serves /api/ws, the per-user notification socket.
// @Summary Notification socket
// @Description Upgrade with ?ticket=<ticket> from POST /ws/ticket
// @Tags realtime
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		userID, _ := conn.Locals("userID").(string)
		if userID == "" {
			rejectSocket(conn, "unauthorized")
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("notification socket rejected", "user_id", userID, "error", err.Error())
			rejectSocket(conn, err.Error())
			return
		}

		sess := session.New(userID)
		sess.Init(s.identity)
		sess.OnChange(func(session.State) {
			client.Close(websocket.ClosePolicyViolation, "signed out")
		})
		defer sess.Teardown()

		go client.WritePump()
		client.ReadPump()
	})
}

// feedRequest is a control frame sent by the client on the feed socket.
type feedRequest struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	User  string `json:"user"`
	Limit int    `json:"limit"`
}

type feedDelivery struct {
	ID     string       `json:"id"`
	Result *feed.Result `json:"result"`
}

// feedConn owns the live subscriptions of one feed socket.
type feedConn struct {
	s      *Server
	ctx    context.Context
	client *notifications.Client
	viewer string

	mu     sync.Mutex
	subs   map[string]*feed.Subscription
	closed bool
}

// FeedSocketHandler serves /api/ws/feed. The query string opens the first
// subscription (kind, user, limit). Further subscriptions are managed with
// {"type":"subscribe","id":...,"kind":...,"user":...} and
// {"type":"unsubscribe","id":...} frames. Each delivery carries the full
// recomputed feed. The socket is closed when the user signs out.
// @Summary Live feed socket
// @Tags realtime
// @Param kind query string false "global, authored or replies"
// @Param user query string false "User ID for authored and replies"
// @Param limit query int false "Max items"
// @Router /ws/feed [get]
func (s *Server) FeedSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		userID, _ := conn.Locals("userID").(string)
		if userID == "" {
			rejectSocket(conn, "unauthorized")
			return
		}

		client, err := s.feedHub.Register(userID, conn)
		if err != nil {
			rejectSocket(conn, err.Error())
			return
		}

		ctx, cancel := context.WithCancel(middleware.WithUserID(s.shutdownCtx, userID))
		fc := &feedConn{
			s:      s,
			ctx:    ctx,
			client: client,
			viewer: userID,
			subs:   make(map[string]*feed.Subscription),
		}
		defer func() {
			fc.closeAll()
			cancel()
		}()

		sess := session.New(userID)
		sess.Init(s.identity)
		sess.OnChange(func(session.State) {
			fc.closeAll()
			client.Close(websocket.ClosePolicyViolation, "signed out")
		})
		defer sess.Teardown()

		client.IncomingHandler = func(_ *notifications.Client, raw []byte) {
			var req feedRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				fc.sendError("", "Invalid message")
				return
			}
			switch req.Type {
			case "subscribe":
				fc.subscribe(req)
			case "unsubscribe":
				fc.unsubscribe(req.ID)
			default:
				fc.sendError(req.ID, "Unknown message type")
			}
		}

		go client.WritePump()

		fc.subscribe(feedRequest{
			ID:    defaultSubscriptionID,
			Kind:  conn.Query("kind"),
			User:  conn.Query("user"),
			Limit: queryInt(conn.Query("limit")),
		})

		client.ReadPump()
	})
}

func (fc *feedConn) subscribe(req feedRequest) {
	id := req.ID
	if id == "" {
		id = defaultSubscriptionID
	}
	kind, err := feed.ParseKind(req.Kind)
	if err != nil {
		fc.sendError(id, err.Error())
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	q := feed.Query{Kind: kind, UserID: req.User, ViewerID: fc.viewer, Limit: limit}

	fc.mu.Lock()
	if fc.closed {
		fc.mu.Unlock()
		return
	}
	old := fc.subs[id]
	delete(fc.subs, id)
	fc.mu.Unlock()
	if old != nil {
		old.Close()
	}

	sub, err := fc.s.assembler.Subscribe(fc.ctx, q, func(res *feed.Result) {
		fc.client.TrySend(notifications.Message{
			Type:    "feed",
			Payload: feedDelivery{ID: id, Result: res},
		}.Encode())
	})
	if err != nil {
		fc.sendError(id, err.Error())
		return
	}

	fc.mu.Lock()
	if fc.closed {
		fc.mu.Unlock()
		sub.Close()
		return
	}
	fc.subs[id] = sub
	fc.mu.Unlock()
}

func (fc *feedConn) unsubscribe(id string) {
	if id == "" {
		id = defaultSubscriptionID
	}
	fc.mu.Lock()
	sub := fc.subs[id]
	delete(fc.subs, id)
	fc.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

func (fc *feedConn) closeAll() {
	fc.mu.Lock()
	if fc.closed {
		fc.mu.Unlock()
		return
	}
	fc.closed = true
	subs := fc.subs
	fc.subs = nil
	fc.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (fc *feedConn) sendError(id, msg string) {
	fc.client.TrySend(errorFrame(id, msg))
}

func errorFrame(id, msg string) []byte {
	payload := map[string]string{"message": msg}
	if id != "" {
		payload["id"] = id
	}
	return notifications.Message{Type: "error", Payload: payload}.Encode()
}

// rejectSocket sends a final error frame and closes conn.
func rejectSocket(conn *websocket.Conn, msg string) {
	_ = conn.WriteMessage(websocket.TextMessage, errorFrame("", msg))
	_ = conn.Close()
}

func queryInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
