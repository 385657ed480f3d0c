package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestHubRegisterAndBroadcast(t *testing.T) {
	hub := NewHub("")
	assert.Equal(t, "notification hub", hub.Name())

	a, err := hub.Register("alice", nil)
	require.NoError(t, err)
	b, err := hub.Register("bob", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Count())
	assert.True(t, hub.IsOnline("alice"))

	hub.Notify("alice", Message{Type: "post_liked", Payload: map[string]string{"postId": "p1"}})

	select {
	case raw := <-a.Send:
		var msg map[string]any
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "post_liked", msg["type"])
	default:
		t.Fatal("alice received nothing")
	}
	assert.Empty(t, b.Send)

	hub.UnregisterClient(a)
	hub.UnregisterClient(a)
	assert.False(t, hub.IsOnline("alice"))
	assert.Equal(t, 1, hub.Count())
}

func TestHubPerUserLimit(t *testing.T) {
	hub := NewHub("test hub")
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register("alice", nil)
		require.NoError(t, err)
	}
	_, err := hub.Register("alice", nil)
	assert.ErrorIs(t, err, ErrUserFull)

	_, err = hub.Register("bob", nil)
	assert.NoError(t, err)
}

func TestTrySendDropsWhenFull(t *testing.T) {
	hub := NewHub("test hub")
	c, err := hub.Register("alice", nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer; i++ {
		require.True(t, c.TrySend([]byte("x")))
	}
	assert.False(t, c.TrySend([]byte("overflow")))
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub("test hub")
	c, err := hub.Register("alice", nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.Count())

	select {
	case req := <-c.closing:
		assert.Equal(t, "Server shutting down", req.reason)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("client was not asked to close")
	}

	_, err = hub.Register("alice", nil)
	assert.ErrorIs(t, err, ErrServerFull)
}

func TestClientCloseIsIdempotent(t *testing.T) {
	c := NewClient(NewHub("test hub"), nil, "alice")
	c.Close(1000, "bye")
	c.Close(1000, "again")
	assert.Len(t, c.closing, 1)
}
