package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"twitterclone/internal/cache"
	"twitterclone/internal/models"
	"twitterclone/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// changeEnvelope tags a change with the instance that published it.
type changeEnvelope struct {
	Origin string        `json:"origin"`
	Change models.Change `json:"change"`
}

// Notifier publishes user notifications and feed changes through Redis so
// every instance sees them. A nil client makes every call a no-op.
type Notifier struct {
	rdb        *redis.Client
	instanceID string
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, instanceID: uuid.NewString()}
}

// InstanceID identifies this process on the change channel.
func (n *Notifier) InstanceID() string { return n.instanceID }

// Enabled reports whether a Redis client is attached.
func (n *Notifier) Enabled() bool { return n.rdb != nil }

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID string, msg Message) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), msg.Encode()).Err()
}

// PublishChange announces a committed change to the other instances.
func (n *Notifier) PublishChange(ctx context.Context, change models.Change) error {
	if n.rdb == nil {
		return nil
	}
	data, err := json.Marshal(changeEnvelope{Origin: n.instanceID, Change: change})
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	return n.rdb.Publish(ctx, cache.FeedChangesChannel, data).Err()
}

// StartUserSubscriber subscribes to `notifications:user:*` and calls onMessage
// for each incoming message.
func (n *Notifier) StartUserSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	go pump(ctx, sub, "user subscriber", onMessage)
	return nil
}

// StartChangeSubscriber delivers changes published by other instances.
// Messages from this instance are skipped.
func (n *Notifier) StartChangeSubscriber(ctx context.Context, onChange func(models.Change)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, cache.FeedChangesChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", cache.FeedChangesChannel, err)
	}
	go pump(ctx, sub, "change subscriber", func(_, payload string) {
		var env changeEnvelope
		if err := json.Unmarshal([]byte(payload), &env); err != nil {
			observability.Logger.Warn("malformed change message", "error", err)
			return
		}
		if env.Origin == n.instanceID {
			return
		}
		onChange(env.Change)
	})
	return nil
}

func pump(ctx context.Context, sub *redis.PubSub, name string, onMessage func(channel, payload string)) {
	ch := sub.Channel()
	defer func() { _ = sub.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						observability.Logger.Error("panic in redis "+name,
							"panic", fmt.Sprint(r), "stack", string(debug.Stack()))
					}
				}()
				onMessage(msg.Channel, msg.Payload)
			}()
		}
	}
}
