package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a reply attached to a post.
type Comment struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PostID         string    `gorm:"type:varchar(36);not null;index" json:"postId"`
	SenderUID      string    `gorm:"type:varchar(36);not null;index:idx_comments_sender_created,priority:1" json:"senderUid"`
	Sender         string    `gorm:"size:100" json:"sender"`
	SenderPhotoURL string    `gorm:"size:512" json:"senderPhotoURL"`
	Text           string    `gorm:"size:75;not null" json:"text"`
	Timestamp      time.Time `gorm:"column:created_at;not null;index:idx_comments_sender_created,priority:2" json:"timestamp"`

	Likes     []string `gorm:"-" json:"likes"`
	LikeCount int      `gorm:"-" json:"likeCount"`
}

// BeforeCreate assigns a time ordered id.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}
	c.Timestamp = c.Timestamp.UTC()
	if c.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		c.ID = id.String()
	}
	return nil
}
