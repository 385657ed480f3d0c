package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"twitterclone/internal/feed"
	"twitterclone/internal/models"
	"twitterclone/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPost(t *testing.T, app *fiber.App, token, text string) models.Post {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/posts", token, map[string]string{"text": text})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, readBody(t, resp))
	var post models.Post
	decode(t, resp, &post)
	return post
}

func TestCreatePost(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "alice")

	t.Run("json body", func(t *testing.T) {
		post := createPost(t, app, alice.Token, "hello world")
		assert.Equal(t, "hello world", post.Text)
		assert.Equal(t, alice.UserID, post.SenderUID)
		assert.Equal(t, "alice display", post.Sender)
		assert.Empty(t, post.Likes)
	})

	t.Run("image url only", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", alice.Token, map[string]string{
			"imageUrl": "https://cdn.example.com/a.png",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		var post models.Post
		decode(t, resp, &post)
		assert.Equal(t, "https://cdn.example.com/a.png", post.ImageURL)
	})

	t.Run("empty post", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", alice.Token, map[string]string{"text": "   "})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid image url", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", alice.Token, map[string]string{
			"text":     "x",
			"imageUrl": "not a url",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("anonymous", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", "", map[string]string{"text": "hi"})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("multipart image", func(t *testing.T) {
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		require.NoError(t, w.WriteField("text", "with a picture"))
		part, err := w.CreateFormFile("image", "pic.png")
		require.NoError(t, err)
		_, err = part.Write(testutil.TinyPNG(t, 8, 8))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+alice.Token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, readBody(t, resp))

		var post models.Post
		decode(t, resp, &post)
		assert.Equal(t, "with a picture", post.Text)
		assert.True(t, strings.HasPrefix(post.ImageURL, "https://media.test/posts/"), post.ImageURL)
	})
}

func TestGetAndDeletePost(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "alice")
	bob := signUp(t, app, "bob")
	post := createPost(t, app, alice.Token, "mine")

	resp := doJSON(t, app, http.MethodGet, "/api/posts/"+post.ID, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got models.Post
	decode(t, resp, &got)
	assert.Equal(t, post.ID, got.ID)

	resp = doJSON(t, app, http.MethodGet, "/api/posts/"+uuid.NewString(), "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/api/posts/"+post.ID, bob.Token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/api/posts/"+post.ID, alice.Token, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/posts/"+post.ID, "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLikePost_Toggles(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "alice")
	bob := signUp(t, app, "bob")
	post := createPost(t, app, alice.Token, "like me")

	var res models.LikeResult
	resp := doJSON(t, app, http.MethodPost, "/api/posts/"+post.ID+"/like", bob.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &res)
	assert.True(t, res.Liked)
	assert.Equal(t, int64(1), res.LikeCount)

	resp = doJSON(t, app, http.MethodGet, "/api/posts/"+post.ID, bob.Token, nil)
	var got models.Post
	decode(t, resp, &got)
	assert.True(t, got.Liked)
	assert.Equal(t, []string{bob.UserID}, got.Likes)

	resp = doJSON(t, app, http.MethodPost, "/api/posts/"+post.ID+"/like", bob.Token, nil)
	decode(t, resp, &res)
	assert.False(t, res.Liked)
	assert.Zero(t, res.LikeCount)
}

func TestRetweetPost(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "alice")
	bob := signUp(t, app, "bob")
	original := createPost(t, app, alice.Token, "original thought")

	resp := doJSON(t, app, http.MethodPost, "/api/posts/"+original.ID+"/retweet", bob.Token,
		map[string]string{"comment": "so true"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, readBody(t, resp))
	var rt models.Post
	decode(t, resp, &rt)
	assert.Equal(t, models.PostTypeRetweet, rt.Type)
	assert.Equal(t, original.ID, rt.RetweetOf)
	assert.Equal(t, "original thought", rt.OriginalText)
	assert.Equal(t, alice.UserID, rt.OriginalSenderUID)
	assert.Equal(t, "so true", rt.RetweetComment)

	// no body is a plain retweet
	resp = doJSON(t, app, http.MethodPost, "/api/posts/"+rt.ID+"/retweet", alice.Token, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var again models.Post
	decode(t, resp, &again)
	assert.Equal(t, original.ID, again.RetweetOf)
	assert.Empty(t, again.RetweetComment)
}

func TestGetFeed_NewestFirst(t *testing.T) {
	s, app := newTestServer(t, nil)
	author := testutil.CreateUser(t, s.db, "alice")
	base := time.Now().Add(-time.Hour)
	first := testutil.CreatePost(t, s.db, author, "first", base)
	second := testutil.CreatePost(t, s.db, author, "second", base.Add(time.Minute))

	resp := doJSON(t, app, http.MethodGet, "/api/feed?limit=10", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var res feed.Result
	decode(t, resp, &res)
	require.Len(t, res.Posts, 2)
	assert.Equal(t, feed.KindGlobal, res.Kind)
	assert.Equal(t, second.ID, res.Posts[0].ID)
	assert.Equal(t, first.ID, res.Posts[1].ID)

	resp = doJSON(t, app, http.MethodGet, "/api/feed?limit=1", "", nil)
	decode(t, resp, &res)
	assert.Len(t, res.Posts, 1)
}
