package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostType distinguishes originals from retweets.
type PostType string

const (
	PostTypeOriginal PostType = ""
	PostTypeRetweet  PostType = "retweet"
)

// Limits on user supplied text.
const (
	MaxPostLength    = 280
	MaxCommentLength = 75
	MaxBioLength     = 160
)

// Post is a tweet or a retweet. Sender fields are a snapshot taken at creation.
type Post struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	SenderUID      string    `gorm:"type:varchar(36);not null;index:idx_posts_sender_created,priority:1" json:"senderUid"`
	Sender         string    `gorm:"size:100" json:"sender"`
	SenderPhotoURL string    `gorm:"size:512" json:"senderPhotoURL"`
	Text           string    `gorm:"size:280" json:"text"`
	ImageURL       string    `gorm:"size:512" json:"imageUrl,omitempty"`
	Timestamp      time.Time `gorm:"column:created_at;not null;index;index:idx_posts_sender_created,priority:2" json:"timestamp"`
	Type           PostType  `gorm:"size:16" json:"type,omitempty"`

	RetweetOf              string `gorm:"type:varchar(36);index" json:"retweetOf,omitempty"`
	OriginalSender         string `gorm:"size:100" json:"originalSender,omitempty"`
	OriginalSenderUID      string `gorm:"type:varchar(36)" json:"originalSenderUid,omitempty"`
	OriginalText           string `gorm:"size:280" json:"originalText,omitempty"`
	OriginalImageURL       string `gorm:"size:512" json:"originalImageUrl,omitempty"`
	OriginalSenderPhotoURL string `gorm:"size:512" json:"originalSenderPhotoURL,omitempty"`
	RetweetComment         string `gorm:"size:280" json:"retweetComment,omitempty"`

	// Likes and LikeCount are loaded from post_likes
	Likes     []string `gorm:"-" json:"likes"`
	LikeCount int      `gorm:"-" json:"likeCount"`
	// Liked reports whether the requesting user is in Likes
	Liked    bool       `gorm:"-" json:"liked"`
	Comments []*Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments"`
}

// BeforeCreate assigns the id and timestamp of a new post.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}
	p.Timestamp = p.Timestamp.UTC()
	return nil
}

// IsRetweet reports whether the post is a retweet.
func (p *Post) IsRetweet() bool {
	return p.Type == PostTypeRetweet
}
