package seed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"twitterclone/internal/identity"
	"twitterclone/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain rows and persists them directly, bypassing the
// services so large meshes seed quickly.
type Factory struct {
	db           *gorm.DB
	fake         *gofakeit.Faker
	passwordHash string
	now          time.Time
	maxDays      int
}

// NewFactory returns a factory whose random choices are fixed by seed.
// passwordHash is stored for every created credential.
func NewFactory(db *gorm.DB, seed int64, passwordHash string, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 30
	}
	return &Factory{
		db:           db,
		fake:         gofakeit.New(seed),
		passwordHash: passwordHash,
		now:          time.Now().UTC(),
		maxDays:      maxDays,
	}
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.fake.Float64Range(0, 1) < p
}

// Intn returns a value in [0,n).
func (f *Factory) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return f.fake.Number(0, n-1)
}

// PastTime returns a random moment within the configured window.
func (f *Factory) PastTime() time.Time {
	minutes := f.maxDays * 24 * 60
	return f.now.Add(-time.Duration(f.fake.Number(1, minutes)) * time.Minute)
}

// After returns a moment between t and now.
func (f *Factory) After(t time.Time) time.Time {
	gap := f.now.Sub(t)
	if gap <= time.Minute {
		return t.Add(time.Second)
	}
	return t.Add(time.Duration(f.fake.Number(1, int(gap/time.Minute))) * time.Minute)
}

// Username returns a lowercase handle not in taken. It marks the result as taken.
func (f *Factory) Username(taken map[string]bool) string {
	for i := 0; ; i++ {
		base := strings.ToLower(f.fake.FirstName() + f.fake.LastName())
		base = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, base)
		if len(base) < 3 {
			base += "user"
		}
		if len(base) > 40 {
			base = base[:40]
		}
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s%d", base, f.fake.Number(1, 9999))
		}
		if !taken[name] {
			taken[name] = true
			return name
		}
	}
}

// CreateUser inserts a profile and its login credential.
func (f *Factory) CreateUser(ctx context.Context, username, profileName string) (*models.User, error) {
	user := &models.User{
		Username:    username,
		ProfileName: profileName,
		PhotoURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		Bio:         clip(f.fake.HipsterSentence(8), models.MaxBioLength),
	}
	if f.Chance(0.3) {
		user.BannerURL = fmt.Sprintf("https://picsum.photos/seed/banner-%s/1500/500", username)
	}
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Credential{
			UserID:       user.ID,
			Email:        identity.LoginEmail(username),
			PasswordHash: f.passwordHash,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return user, nil
}

// PostText returns tweet-sized text.
func (f *Factory) PostText() string {
	var text string
	switch f.Intn(3) {
	case 0:
		text = f.fake.HackerPhrase()
	case 1:
		text = f.fake.Sentence(f.fake.Number(4, 18))
	default:
		text = f.fake.Quote()
	}
	return clip(text, models.MaxPostLength)
}

// CommentText returns text that fits a comment.
func (f *Factory) CommentText() string {
	return clip(f.fake.Sentence(f.fake.Number(2, 8)), models.MaxCommentLength)
}

// ImageURL returns a stable placeholder image.
func (f *Factory) ImageURL() string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.fake.UUID())
}

// CreatePost inserts an original post by author.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, text, imageURL string, ts time.Time) (*models.Post, error) {
	post := &models.Post{
		SenderUID:      author.ID,
		Sender:         author.ProfileName,
		SenderPhotoURL: author.Photo(),
		Text:           text,
		ImageURL:       imageURL,
		Timestamp:      ts,
	}
	if err := f.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateRetweet inserts a retweet of target by actor. A retweet of a retweet
// points at the underlying original.
func (f *Factory) CreateRetweet(ctx context.Context, actor *models.User, target *models.Post, quote string, ts time.Time) (*models.Post, error) {
	rt := &models.Post{
		SenderUID:      actor.ID,
		Sender:         actor.ProfileName,
		SenderPhotoURL: actor.Photo(),
		Type:           models.PostTypeRetweet,
		RetweetComment: quote,
		Timestamp:      ts,
	}
	if target.IsRetweet() {
		rt.RetweetOf = target.RetweetOf
		rt.OriginalSender = target.OriginalSender
		rt.OriginalSenderUID = target.OriginalSenderUID
		rt.OriginalText = target.OriginalText
		rt.OriginalImageURL = target.OriginalImageURL
		rt.OriginalSenderPhotoURL = target.OriginalSenderPhotoURL
	} else {
		rt.RetweetOf = target.ID
		rt.OriginalSender = target.Sender
		rt.OriginalSenderUID = target.SenderUID
		rt.OriginalText = target.Text
		rt.OriginalImageURL = target.ImageURL
		rt.OriginalSenderPhotoURL = target.SenderPhotoURL
	}
	if rt.OriginalSenderPhotoURL == "" {
		rt.OriginalSenderPhotoURL = models.DefaultPhotoURL
	}
	if err := f.db.WithContext(ctx).Create(rt).Error; err != nil {
		return nil, fmt.Errorf("create retweet: %w", err)
	}
	return rt, nil
}

// CreateComment inserts a comment by author on post.
func (f *Factory) CreateComment(ctx context.Context, post *models.Post, author *models.User, text string, ts time.Time) (*models.Comment, error) {
	c := &models.Comment{
		PostID:         post.ID,
		SenderUID:      author.ID,
		Sender:         author.ProfileName,
		SenderPhotoURL: author.Photo(),
		Text:           text,
		Timestamp:      ts,
	}
	if err := f.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// LikePost records that user likes post.
func (f *Factory) LikePost(ctx context.Context, post *models.Post, user *models.User) error {
	return f.db.WithContext(ctx).Create(&models.PostLike{PostID: post.ID, UserID: user.ID}).Error
}

// LikeComment records that user likes c.
func (f *Factory) LikeComment(ctx context.Context, c *models.Comment, user *models.User) error {
	return f.db.WithContext(ctx).Create(&models.CommentLike{CommentID: c.ID, PostID: c.PostID, UserID: user.ID}).Error
}

// Follow records that follower follows followee.
func (f *Factory) Follow(ctx context.Context, follower, followee *models.User) error {
	return f.db.WithContext(ctx).Create(&models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}).Error
}

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}
