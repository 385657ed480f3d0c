package server

import (
	"net/http"
	"testing"

	"twitterclone/internal/identity"
	"twitterclone/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	_, app := newTestServer(t, nil)

	t.Run("creates account and session", func(t *testing.T) {
		sess := signUp(t, app, "alice")
		assert.NotEmpty(t, sess.Token)
		assert.NotEmpty(t, sess.UserID)
		assert.Equal(t, "alice", sess.Username)
	})

	t.Run("duplicate username", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username":        "alice",
			"profileName":     "Another Alice",
			"password":        "secret123",
			"confirmPassword": "secret123",
		})
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
		var body models.ErrorResponse
		decode(t, resp, &body)
		assert.Equal(t, models.CodeConflict, body.Code)
	})

	t.Run("password mismatch", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username":        "bob",
			"profileName":     "Bob Builder",
			"password":        "secret123",
			"confirmPassword": "secret124",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", "not an object")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	_, app := newTestServer(t, nil)
	created := signUp(t, app, "carol")

	t.Run("valid credentials", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "carol",
			"password": "secret123",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var sess identity.Session
		decode(t, resp, &sess)
		assert.Equal(t, created.UserID, sess.UserID)
		assert.NotEmpty(t, sess.Token)
	})

	t.Run("login by email handle", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": identity.LoginEmail("carol"),
			"password": "secret123",
		})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "carol",
			"password": "wrong-pass",
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "nobody",
			"password": "secret123",
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestLogout_RevokesToken(t *testing.T) {
	_, rdb := newTestRedis(t)
	_, app := newTestServer(t, rdb)
	sess := signUp(t, app, "dave")

	resp := doJSON(t, app, http.MethodGet, "/api/users/me", sess.Token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/logout", sess.Token, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/users/me", sess.Token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_RequiresToken(t *testing.T) {
	_, app := newTestServer(t, nil)
	resp := doJSON(t, app, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
