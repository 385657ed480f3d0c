package cache

import (
	"context"
	"time"
)

const (
	ProfileKeyPrefix   = "profile:"
	WSTicketKeyPrefix  = "ws_ticket:"
	BlacklistKeyPrefix = "blacklist:"

	// FeedChangesChannel carries Change messages between instances.
	FeedChangesChannel = "feed:changes"
)

const (
	ProfileTTL  = 5 * time.Minute
	WSTicketTTL = 30 * time.Second
)

func ProfileKey(userID string) string {
	return ProfileKeyPrefix + userID
}

func WSTicketKey(ticket string) string {
	return WSTicketKeyPrefix + ticket
}

func BlacklistKey(jti string) string {
	return BlacklistKeyPrefix + jti
}

func InvalidateProfile(ctx context.Context, userID string) {
	Invalidate(ctx, ProfileKey(userID))
}
