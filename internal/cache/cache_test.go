package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedProfile struct {
	Name string `json:"name"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedProfile) func() error {
		return func() error {
			calls++
			dest.Name = "alice"
			return nil
		}
	}

	var first cachedProfile
	require.NoError(t, Aside(ctx, ProfileKey("u1"), &first, ProfileTTL, fetch(&first)))
	assert.Equal(t, "alice", first.Name)
	assert.True(t, mr.Exists("profile:u1"))
	assert.Equal(t, ProfileTTL, mr.TTL("profile:u1"))

	var second cachedProfile
	require.NoError(t, Aside(ctx, ProfileKey("u1"), &second, ProfileTTL, fetch(&second)))
	assert.Equal(t, "alice", second.Name)
	assert.Equal(t, 1, calls)
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := withMiniredis(t)

	var dest cachedProfile
	err := Aside(context.Background(), ProfileKey("u2"), &dest, time.Minute, func() error {
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists("profile:u2"))
}

func TestAside_CorruptEntryIsRefetched(t *testing.T) {
	mr := withMiniredis(t)
	require.NoError(t, mr.Set("profile:u3", "{not json"))

	var dest cachedProfile
	require.NoError(t, Aside(context.Background(), ProfileKey("u3"), &dest, time.Minute, func() error {
		dest.Name = "fresh"
		return nil
	}))
	assert.Equal(t, "fresh", dest.Name)

	got, err := mr.Get("profile:u3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"fresh"}`, got)
}

func TestAside_NoClientFallsThrough(t *testing.T) {
	SetClient(nil)
	var dest cachedProfile
	require.NoError(t, Aside(context.Background(), "k", &dest, time.Minute, func() error {
		dest.Name = "direct"
		return nil
	}))
	assert.Equal(t, "direct", dest.Name)
}

func TestInvalidateProfile(t *testing.T) {
	mr := withMiniredis(t)
	require.NoError(t, mr.Set("profile:u4", `{"name":"x"}`))

	InvalidateProfile(context.Background(), "u4")
	assert.False(t, mr.Exists("profile:u4"))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "ws_ticket:abc", WSTicketKey("abc"))
	assert.Equal(t, "blacklist:jti-1", BlacklistKey("jti-1"))
}

func TestOptions(t *testing.T) {
	opts, err := Options("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	opts, err = Options("redis://:pw@cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = Options("redis://cache:6379/notadb")
	assert.Error(t, err)
}

func TestInitRedis(t *testing.T) {
	t.Cleanup(func() { SetClient(nil) })

	mr := miniredis.RunT(t)
	InitRedis("redis://" + mr.Addr())
	require.NotNil(t, GetClient())
	assert.NoError(t, GetClient().Ping(context.Background()).Err())
	_ = GetClient().Close()

	InitRedis("127.0.0.1:1")
	assert.Nil(t, GetClient(), "unreachable redis leaves the client unset")
}
