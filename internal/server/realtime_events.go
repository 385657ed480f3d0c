package server

import (
	"context"

	"twitterclone/internal/middleware"
	"twitterclone/internal/models"
	"twitterclone/internal/notifications"
)

// Notification types sent on the user notification socket.
const (
	EventPostLiked    = "post_liked"
	EventCommentAdded = "comment_added"
	EventCommentLiked = "comment_liked"
	EventFollowed     = "followed"
)

type invalidator interface {
	Invalidate(change models.Change)
}

type userNotifier interface {
	Enabled() bool
	PublishUser(ctx context.Context, userID string, msg notifications.Message) error
	PublishChange(ctx context.Context, change models.Change) error
}

type localNotifier interface {
	Notify(userID string, msg notifications.Message)
}

// changeBus fans a committed change out to live feeds on this instance,
// to other instances through redis, to the event stream and to the users
// the change concerns.
type changeBus struct {
	feeds    invalidator
	notifier userNotifier
	events   EventSink
	hub      localNotifier
}

func newChangeBus(feeds invalidator, notifier userNotifier, events EventSink, hub localNotifier) *changeBus {
	return &changeBus{feeds: feeds, notifier: notifier, events: events, hub: hub}
}

// Publish never fails the mutation that produced change.
func (b *changeBus) Publish(ctx context.Context, change models.Change) {
	if b.feeds != nil {
		b.feeds.Invalidate(change)
	}
	if b.notifier != nil {
		if err := b.notifier.PublishChange(ctx, change); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to fan out change",
				"kind", string(change.Kind), "error", err.Error())
		}
	}
	if b.events != nil {
		b.events.Publish(ctx, change)
	}

	recipient, msg, ok := notificationFor(change)
	if !ok {
		return
	}
	b.notifyUser(ctx, recipient, msg)
}

// With redis every instance delivers from the pub/sub channel, including
// this one, so the local hub is only written directly without it.
func (b *changeBus) notifyUser(ctx context.Context, userID string, msg notifications.Message) {
	if b.notifier != nil && b.notifier.Enabled() {
		if err := b.notifier.PublishUser(ctx, userID, msg); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish notification",
				"type", msg.Type, "user_id", userID, "error", err.Error())
		}
		return
	}
	if b.hub != nil {
		b.hub.Notify(userID, msg)
	}
}

// notificationFor picks the user a change should be announced to.
// Users are never notified about their own actions or about toggles that
// ended in the off state.
func notificationFor(change models.Change) (string, notifications.Message, bool) {
	var recipient, kind string
	payload := map[string]string{"actorId": change.ActorID}

	switch change.Kind {
	case models.ChangePostLiked:
		if !change.Active {
			return "", notifications.Message{}, false
		}
		recipient, kind = change.AuthorID, EventPostLiked
		payload["postId"] = change.PostID
	case models.ChangeCommentAdded:
		recipient, kind = change.AuthorID, EventCommentAdded
		payload["postId"] = change.PostID
		payload["commentId"] = change.CommentID
	case models.ChangeCommentLiked:
		if !change.Active {
			return "", notifications.Message{}, false
		}
		recipient, kind = change.CommentAuthorID, EventCommentLiked
		payload["postId"] = change.PostID
		payload["commentId"] = change.CommentID
	case models.ChangeFollowToggled:
		if !change.Active {
			return "", notifications.Message{}, false
		}
		recipient, kind = change.AuthorID, EventFollowed
	default:
		return "", notifications.Message{}, false
	}

	if recipient == "" || recipient == change.ActorID {
		return "", notifications.Message{}, false
	}
	return recipient, notifications.Message{Type: kind, Payload: payload}, true
}
