// Package feed assembles post lists and keeps live subscribers up to date.
package feed

import (
	"fmt"
	"strings"

	"twitterclone/internal/models"
)

// Kind selects which list a Query reads.
type Kind string

const (
	KindGlobal   Kind = "global"
	KindAuthored Kind = "authored"
	KindReplies  Kind = "replies"
)

// Query describes one feed. UserID is required for authored and replies.
// ViewerID only affects the per-viewer liked flag.
type Query struct {
	Kind     Kind
	UserID   string
	ViewerID string
	Limit    int
}

func Global(viewerID string, limit int) Query {
	return Query{Kind: KindGlobal, ViewerID: viewerID, Limit: limit}
}

func Authored(userID, viewerID string, limit int) Query {
	return Query{Kind: KindAuthored, UserID: userID, ViewerID: viewerID, Limit: limit}
}

func Replies(userID, viewerID string, limit int) Query {
	return Query{Kind: KindReplies, UserID: userID, ViewerID: viewerID, Limit: limit}
}

// ParseKind accepts the kind names used on the wire.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindGlobal, KindAuthored, KindReplies:
		return k, nil
	case "":
		return KindGlobal, nil
	default:
		return "", models.NewValidationError(fmt.Sprintf("Unknown feed kind %q", s))
	}
}

// Validate checks that the query names a user when it needs one.
func (q Query) Validate() error {
	switch q.Kind {
	case KindGlobal:
		return nil
	case KindAuthored, KindReplies:
		if q.UserID == "" {
			return models.NewValidationError("A user is required for this feed")
		}
		return nil
	default:
		return models.NewValidationError(fmt.Sprintf("Unknown feed kind %q", q.Kind))
	}
}

// Affected reports whether change can alter the result of q.
func (q Query) Affected(change models.Change) bool {
	switch q.Kind {
	case KindGlobal:
		return change.TouchesPosts()
	case KindAuthored:
		return change.TouchesPosts() && change.AuthorID == q.UserID
	case KindReplies:
		if change.Kind == models.ChangePostDeleted {
			return true
		}
		return change.IsComment() && change.CommentAuthorID == q.UserID
	}
	return false
}

// Reply is a comment shown on its author's replies tab.
type Reply struct {
	Comment *models.Comment `json:"comment"`
	PostID  string          `json:"postId"`
	// Post is nil when the parent is gone.
	Post *models.Post `json:"post,omitempty"`
}

// Result is a full, freshly computed feed.
type Result struct {
	Kind    Kind           `json:"kind"`
	UserID  string         `json:"userId,omitempty"`
	Posts   []*models.Post `json:"posts"`
	Replies []Reply        `json:"replies"`
}
