package notifications

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"twitterclone/internal/cache"
	"twitterclone/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotifierWithoutRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.PublishUser(context.Background(), "u1", Message{Type: "followed"}))
	assert.NoError(t, n.PublishChange(context.Background(), models.Change{Kind: models.ChangePostCreated}))
	assert.NoError(t, n.StartChangeSubscriber(context.Background(), func(models.Change) {}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:abc", UserChannel("abc"))
}

func TestHubReceivesPublishedUserNotification(t *testing.T) {
	rdb := newRedis(t)
	n := NewNotifier(rdb)
	hub := NewHub("")
	c, err := hub.Register("alice", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	require.NoError(t, n.PublishUser(context.Background(), "alice", Message{Type: "followed"}))

	select {
	case raw := <-c.Send:
		assert.JSONEq(t, `{"type":"followed"}`, string(raw))
	case <-time.After(testEventuallyTimeout):
		t.Fatal("notification not delivered")
	}
}

func TestChangeSubscriberSkipsOwnMessages(t *testing.T) {
	rdb := newRedis(t)
	local := NewNotifier(rdb)
	remote := NewNotifier(rdb)
	require.NotEqual(t, local.InstanceID(), remote.InstanceID())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []models.Change
	require.NoError(t, local.StartChangeSubscriber(ctx, func(c models.Change) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	}))

	require.NoError(t, local.PublishChange(ctx, models.Change{Kind: models.ChangePostCreated, PostID: "own"}))
	require.NoError(t, remote.PublishChange(ctx, models.Change{Kind: models.ChangePostLiked, PostID: "p2"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, testEventuallyTimeout, testPollInterval)

	assert.Never(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 1
	}, 100*time.Millisecond, testPollInterval)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "p2", got[0].PostID)
}

func TestChangeSubscriberIgnoresMalformedPayload(t *testing.T) {
	rdb := newRedis(t)
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan models.Change, 1)
	require.NoError(t, n.StartChangeSubscriber(ctx, func(c models.Change) { received <- c }))

	require.NoError(t, rdb.Publish(ctx, cache.FeedChangesChannel, "not json").Err())
	valid, err := json.Marshal(changeEnvelope{Origin: "other", Change: models.Change{Kind: models.ChangePostDeleted, PostID: "p9"}})
	require.NoError(t, err)
	require.NoError(t, rdb.Publish(ctx, cache.FeedChangesChannel, valid).Err())

	select {
	case c := <-received:
		assert.Equal(t, "p9", c.PostID)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("valid change not delivered")
	}
}
