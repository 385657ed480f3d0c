// Package cache owns the process-wide Redis client and the cache-aside
// helpers built on it. Every caller tolerates a nil client.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"twitterclone/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

var client *redis.Client

// errorCounter feeds middleware.RedisErrors. redis.Nil is a miss, not a failure.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

func countFailure(op string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		middleware.RedisErrors.WithLabelValues(op).Inc()
	}
}

// Options turns REDIS_URL into client options. Both redis:// URLs and bare
// host:port addresses are accepted.
func Options(addr string) (*redis.Options, error) {
	if !strings.Contains(addr, "://") {
		return &redis.Options{Addr: addr}, nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}

// Dial connects and pings. The returned client carries the error counter hook.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := Options(addr)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	rdb.AddHook(errorCounter{})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// InitRedis dials addr and installs the result as the package client. When
// Redis cannot be reached the client is left nil and the process runs without it.
func InitRedis(addr string) {
	rdb, err := Dial(context.Background(), addr)
	if err != nil {
		middleware.Logger.Warn("redis unavailable, continuing without it",
			slog.String("error", err.Error()))
		client = nil
		return
	}
	middleware.Logger.Info("redis connected", slog.String("addr", rdb.Options().Addr))
	client = rdb
}

// SetClient installs a client built elsewhere, such as a test's miniredis.
func SetClient(rdb *redis.Client) {
	if rdb != nil {
		rdb.AddHook(errorCounter{})
	}
	client = rdb
}

func GetClient() *redis.Client {
	return client
}
