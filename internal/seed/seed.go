// Package seed fills a database with a realistic social mesh for local
// development and demos.
package seed

import (
	"context"
	"fmt"
	"time"

	"twitterclone/internal/middleware"
	"twitterclone/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options configures a seeding run.
type Options struct {
	Preset Preset
	// FixedUsers are created first with these handles, e.g. for demo logins.
	FixedUsers []string
	Password   string
	// SkipBcrypt stores a cheap hash; only for tests.
	SkipBcrypt bool
	Clean      bool
	// RandSeed fixes random choices. Zero picks one from the clock.
	RandSeed int64
}

// Summary counts what a run created.
type Summary struct {
	Users        int
	Posts        int
	Retweets     int
	Comments     int
	PostLikes    int
	CommentLikes int
	Follows      int
}

// Seed populates db according to opts.Preset.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	p := opts.Preset
	if err := p.Validate(); err != nil {
		return nil, err
	}
	log := middleware.Logger
	start := time.Now()
	log.InfoContext(ctx, "seeding started", "users", p.Users, "posts", p.Posts)

	if opts.Clean {
		if err := Clean(ctx, db); err != nil {
			return nil, err
		}
	}

	password := opts.Password
	if password == "" {
		password = DefaultPassword
	}
	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	randSeed := opts.RandSeed
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}
	f := NewFactory(db, randSeed, string(hash), p.MaxDays)
	sum := &Summary{}

	users, err := seedUsers(ctx, db, f, p.Users, opts.FixedUsers)
	if err != nil {
		return nil, err
	}
	sum.Users = len(users)

	if sum.Follows, err = seedFollows(ctx, f, users, p.FollowRate); err != nil {
		return nil, err
	}

	posts, err := seedPosts(ctx, f, users, p, sum)
	if err != nil {
		return nil, err
	}

	for _, post := range posts {
		if err := seedEngagement(ctx, f, users, post, p, sum); err != nil {
			return nil, err
		}
	}

	log.InfoContext(ctx, "seeding completed",
		"users", sum.Users,
		"posts", sum.Posts,
		"retweets", sum.Retweets,
		"comments", sum.Comments,
		"post_likes", sum.PostLikes,
		"comment_likes", sum.CommentLikes,
		"follows", sum.Follows,
		"duration_ms", time.Since(start).Milliseconds())
	return sum, nil
}

// Clean removes every row the seeder writes, dependents first.
func Clean(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	for _, m := range []any{
		&models.CommentLike{},
		&models.PostLike{},
		&models.Comment{},
		&models.Follow{},
		&models.Post{},
		&models.Credential{},
		&models.User{},
	} {
		if err := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return fmt.Errorf("clean %T: %w", m, err)
		}
	}
	return nil
}

func seedUsers(ctx context.Context, db *gorm.DB, f *Factory, count int, fixed []string) ([]*models.User, error) {
	taken := make(map[string]bool)
	var existing []string
	if err := db.WithContext(ctx).Model(&models.User{}).Pluck("username", &existing).Error; err != nil {
		return nil, fmt.Errorf("load usernames: %w", err)
	}
	for _, u := range existing {
		taken[u] = true
	}

	users := make([]*models.User, 0, count)
	for _, name := range fixed {
		if len(users) >= count {
			break
		}
		if taken[name] {
			middleware.Logger.WarnContext(ctx, "seed user already exists, skipping", "username", name)
			continue
		}
		taken[name] = true
		u, err := f.CreateUser(ctx, name, name)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	for len(users) < count {
		name := f.Username(taken)
		u, err := f.CreateUser(ctx, name, f.fake.Name())
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func seedFollows(ctx context.Context, f *Factory, users []*models.User, rate float64) (int, error) {
	n := 0
	for _, a := range users {
		for _, b := range users {
			if a.ID == b.ID || !f.Chance(rate) {
				continue
			}
			if err := f.Follow(ctx, a, b); err != nil {
				return n, fmt.Errorf("create follow: %w", err)
			}
			n++
		}
	}
	return n, nil
}

func seedPosts(ctx context.Context, f *Factory, users []*models.User, p Preset, sum *Summary) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, p.Posts)
	for i := 0; i < p.Posts; i++ {
		author := users[f.Intn(len(users))]

		if len(posts) > 0 && f.Chance(p.RetweetRate) {
			target := posts[f.Intn(len(posts))]
			quote := ""
			if f.Chance(p.QuoteRate) {
				quote = f.PostText()
			}
			rt, err := f.CreateRetweet(ctx, author, target, quote, f.After(target.Timestamp))
			if err != nil {
				return nil, err
			}
			posts = append(posts, rt)
			sum.Retweets++
			continue
		}

		image := ""
		if f.Chance(p.ImageRate) {
			image = f.ImageURL()
		}
		post, err := f.CreatePost(ctx, author, f.PostText(), image, f.PastTime())
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
		sum.Posts++
	}
	return posts, nil
}

func seedEngagement(ctx context.Context, f *Factory, users []*models.User, post *models.Post, p Preset, sum *Summary) error {
	for _, u := range users {
		if !f.Chance(p.LikeRate) {
			continue
		}
		if err := f.LikePost(ctx, post, u); err != nil {
			return fmt.Errorf("like post: %w", err)
		}
		sum.PostLikes++
	}

	if p.CommentsPerPost == 0 {
		return nil
	}
	for i := f.Intn(p.CommentsPerPost + 1); i > 0; i-- {
		author := users[f.Intn(len(users))]
		c, err := f.CreateComment(ctx, post, author, f.CommentText(), f.After(post.Timestamp))
		if err != nil {
			return err
		}
		sum.Comments++
		for _, u := range users {
			if !f.Chance(p.CommentLikeRate) {
				continue
			}
			if err := f.LikeComment(ctx, c, u); err != nil {
				return fmt.Errorf("like comment: %w", err)
			}
			sum.CommentLikes++
		}
	}
	return nil
}
