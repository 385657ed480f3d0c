package models

import "time"

// Follow is one edge of the social graph. A single row backs both the
// follower's following set and the followee's followers set.
type Follow struct {
	FollowerID string    `gorm:"type:varchar(36);primaryKey" json:"followerId"`
	FolloweeID string    `gorm:"type:varchar(36);primaryKey;index" json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FollowResult is returned by ToggleFollow.
type FollowResult struct {
	Following bool  `json:"following"`
	Followers int64 `json:"followers"`
}

// FollowCounts is the header data of a profile page.
type FollowCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// Profile is the display identity of a user as rendered next to content.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}
