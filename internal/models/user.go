// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultPhotoURL is shown for users without a photo and for unknown authors.
const DefaultPhotoURL = "https://placehold.co/150x150/1DA1F2/ffffff?text=No+Photo"

// User is the public profile of an account. Credentials live in Credential.
type User struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username    string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	ProfileName string    `gorm:"size:100;not null" json:"profileName"`
	PhotoURL    string    `gorm:"size:512" json:"photoURL"`
	BannerURL   string    `gorm:"size:512" json:"bannerURL,omitempty"`
	Bio         string    `gorm:"size:160" json:"bio"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an id when the caller did not.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Photo returns the user's photo or the placeholder.
func (u *User) Photo() string {
	if u == nil || u.PhotoURL == "" {
		return DefaultPhotoURL
	}
	return u.PhotoURL
}

// UserProfile is the profile page payload.
type UserProfile struct {
	User
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
	IsFollowing    bool  `json:"isFollowing"`
}
