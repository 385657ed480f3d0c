package testutil

import (
	"context"
	"testing"
	"time"

	"twitterclone/internal/config"
	"twitterclone/internal/database"
	"twitterclone/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewTestDB opens a fresh in-memory SQLite database with the full schema.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := &config.Config{Env: "test", DBDriver: "sqlite", DBName: ":memory:"}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, database.ApplySchema(context.Background(), db, cfg))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CreateUser inserts a user with the given handle.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:    username,
		ProfileName: username + " display",
		PhotoURL:    "https://img.example/" + username + ".png",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePost inserts an original post by author at ts.
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, text string, ts time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		SenderUID:      author.ID,
		Sender:         author.ProfileName,
		SenderPhotoURL: author.Photo(),
		Text:           text,
		Timestamp:      ts.UTC(),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateComment inserts a comment by author on post at ts.
func CreateComment(t testing.TB, db *gorm.DB, post *models.Post, author *models.User, text string, ts time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{
		PostID:         post.ID,
		SenderUID:      author.ID,
		Sender:         author.ProfileName,
		SenderPhotoURL: author.Photo(),
		Text:           text,
		Timestamp:      ts.UTC(),
	}
	require.NoError(t, db.Create(c).Error)
	return c
}
