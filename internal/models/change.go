package models

// ChangeKind names a mutation that may affect live feeds.
type ChangeKind string

const (
	ChangePostCreated    ChangeKind = "post_created"
	ChangePostDeleted    ChangeKind = "post_deleted"
	ChangePostLiked      ChangeKind = "post_liked"
	ChangeCommentAdded   ChangeKind = "comment_added"
	ChangeCommentDeleted ChangeKind = "comment_deleted"
	ChangeCommentLiked   ChangeKind = "comment_liked"
	ChangeFollowToggled  ChangeKind = "follow_toggled"
	ChangeProfileUpdated ChangeKind = "profile_updated"
)

// Change describes one committed mutation.
//
// AuthorID is the author of the affected post (or the followed user for
// follow_toggled), CommentAuthorID the author of the affected comment and
// ActorID the user who performed the mutation. Active is set for toggles
// that ended in the on state (liked, following).
type Change struct {
	Kind            ChangeKind `json:"kind"`
	PostID          string     `json:"postId,omitempty"`
	CommentID       string     `json:"commentId,omitempty"`
	AuthorID        string     `json:"authorId,omitempty"`
	CommentAuthorID string     `json:"commentAuthorId,omitempty"`
	ActorID         string     `json:"actorId,omitempty"`
	Active          bool       `json:"active,omitempty"`
}

// IsComment reports whether the change touches comments.
func (c Change) IsComment() bool {
	switch c.Kind {
	case ChangeCommentAdded, ChangeCommentDeleted, ChangeCommentLiked:
		return true
	}
	return false
}

// TouchesPosts reports whether the change alters the content of any post list.
func (c Change) TouchesPosts() bool {
	switch c.Kind {
	case ChangeFollowToggled, ChangeProfileUpdated:
		return false
	}
	return true
}
