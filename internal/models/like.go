package models

import "time"

// PostLike records that a user likes a post.
type PostLike struct {
	PostID    string    `gorm:"type:varchar(36);primaryKey" json:"postId"`
	UserID    string    `gorm:"type:varchar(36);primaryKey;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentLike records that a user likes a comment.
type CommentLike struct {
	CommentID string    `gorm:"type:varchar(36);primaryKey" json:"commentId"`
	UserID    string    `gorm:"type:varchar(36);primaryKey" json:"userId"`
	PostID    string    `gorm:"type:varchar(36);not null;index" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeResult is returned by the like toggles.
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}
