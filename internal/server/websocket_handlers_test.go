package server

import (
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"twitterclone/internal/feed"
	"twitterclone/internal/identity"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type socketFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type feedFrame struct {
	ID     string      `json:"id"`
	Result feed.Result `json:"result"`
}

// serve starts app on a random local port and returns its address.
func serve(t *testing.T, app *fiber.App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return ln.Addr().String()
}

func dial(t *testing.T, addr, path string, sess identity.Session) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+sess.Token)
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+path, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// nextFrame reads frames until one of type typ arrives.
func nextFrame(t *testing.T, conn *websocket.Conn, typ string) socketFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var f socketFrame
		require.NoError(t, json.Unmarshal(raw, &f))
		if f.Type == typ {
			return f
		}
	}
}

// nextFeed reads feed deliveries until match accepts one.
func nextFeed(t *testing.T, conn *websocket.Conn, match func(feedFrame) bool) feedFrame {
	t.Helper()
	for {
		f := nextFrame(t, conn, "feed")
		var ff feedFrame
		require.NoError(t, json.Unmarshal(f.Payload, &ff))
		if match(ff) {
			return ff
		}
	}
}

func TestFeedSocket_LiveUpdates(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "alice")
	addr := serve(t, app)

	conn := dial(t, addr, "/api/ws/feed?kind=global&limit=10", alice)

	initial := nextFeed(t, conn, func(feedFrame) bool { return true })
	assert.Equal(t, defaultSubscriptionID, initial.ID)
	assert.Equal(t, feed.KindGlobal, initial.Result.Kind)
	assert.Empty(t, initial.Result.Posts)

	post := createPost(t, app, alice.Token, "live!")

	updated := nextFeed(t, conn, func(f feedFrame) bool { return len(f.Result.Posts) == 1 })
	assert.Equal(t, post.ID, updated.Result.Posts[0].ID)

	resp := doJSON(t, app, http.MethodPost, "/api/posts/"+post.ID+"/like", alice.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	liked := nextFeed(t, conn, func(f feedFrame) bool {
		return len(f.Result.Posts) == 1 && f.Result.Posts[0].LikeCount == 1
	})
	assert.True(t, liked.Result.Posts[0].Liked)
}

func TestFeedSocket_SubscribeAndUnsubscribe(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "alice")
	bob := signUp(t, app, "bob")
	addr := serve(t, app)

	conn := dial(t, addr, "/api/ws/feed", alice)
	nextFeed(t, conn, func(f feedFrame) bool { return f.ID == defaultSubscriptionID })

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type": "subscribe",
		"id":   "bob-posts",
		"kind": "authored",
		"user": bob.UserID,
	}))
	first := nextFeed(t, conn, func(f feedFrame) bool { return f.ID == "bob-posts" })
	assert.Equal(t, feed.KindAuthored, first.Result.Kind)
	assert.Empty(t, first.Result.Posts)

	createPost(t, app, bob.Token, "from bob")
	got := nextFeed(t, conn, func(f feedFrame) bool { return f.ID == "bob-posts" && len(f.Result.Posts) == 1 })
	assert.Equal(t, bob.UserID, got.Result.Posts[0].SenderUID)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe", "id": "bad", "kind": "authored"}))
	errFrame := nextFrame(t, conn, "error")
	assert.Contains(t, string(errFrame.Payload), "bad")
}

func TestFeedSocket_ClosedOnSignOut(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "alice")
	addr := serve(t, app)

	conn := dial(t, addr, "/api/ws/feed", alice)
	nextFeed(t, conn, func(feedFrame) bool { return true })

	resp := doJSON(t, app, http.MethodPost, "/api/auth/logout", alice.Token, nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var readErr error
	for readErr == nil {
		_, _, readErr = conn.ReadMessage()
	}
	var closeErr *websocket.CloseError
	require.ErrorAs(t, readErr, &closeErr)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
	assert.Equal(t, "signed out", closeErr.Text)
}

func TestNotificationSocket_ReceivesFollow(t *testing.T) {
	s, app := newTestServer(t, nil)
	alice := signUp(t, app, "alice")
	bob := signUp(t, app, "bob")
	addr := serve(t, app)

	conn := dial(t, addr, "/api/ws", alice)
	require.Eventually(t, func() bool { return s.hub.IsOnline(alice.UserID) }, 5*time.Second, 10*time.Millisecond)

	resp := doJSON(t, app, http.MethodPost, "/api/users/"+alice.UserID+"/follow", bob.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	f := nextFrame(t, conn, EventFollowed)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(f.Payload, &payload))
	assert.Equal(t, bob.UserID, payload["actorId"])
}

func TestWebsocket_RejectsAnonymous(t *testing.T) {
	_, app := newTestServer(t, nil)
	addr := serve(t, app)

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws/feed", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestErrorFrame_EscapesMessage(t *testing.T) {
	raw := errorFrame("", `limit "5" reached`)
	require.True(t, json.Valid(raw))

	var f socketFrame
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Equal(t, "error", f.Type)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(f.Payload, &payload))
	assert.Equal(t, `limit "5" reached`, payload["message"])
	assert.NotContains(t, payload, "id")

	var withID map[string]map[string]string
	require.NoError(t, json.Unmarshal(errorFrame("sub-1", "bad kind"), &withID))
	assert.Equal(t, "sub-1", withID["payload"]["id"])
}
