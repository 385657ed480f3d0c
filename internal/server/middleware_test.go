package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"twitterclone/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_AuthRequired(t *testing.T) {
	s, _ := newTestServer(t, nil)
	sess, err := s.identity.IssueToken("11111111-1111-4111-8111-111111111111", "erin")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendString(middleware.UserID(c))
	})
	app.Get("/api/ws/probe", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendString(middleware.UserID(c))
	})

	tests := []struct {
		name       string
		path       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "/protected", "", fiber.StatusUnauthorized},
		{"malformed header", "/protected", "Token abc", fiber.StatusUnauthorized},
		{"garbage token", "/protected", "Bearer not-a-jwt", fiber.StatusUnauthorized},
		{"valid token", "/protected", "Bearer " + sess.Token, fiber.StatusOK},
		{"query token on http path", "/protected?token=" + sess.Token, "", fiber.StatusOK},
		{"query token on ws path", "/api/ws/probe?token=" + sess.Token, "", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == fiber.StatusOK {
				assert.Equal(t, sess.UserID, readBody(t, resp))
			}
		})
	}
}

func TestServer_OptionalAuth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	sess, err := s.identity.IssueToken("22222222-2222-4222-8222-222222222222", "frank")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/maybe", s.OptionalAuth(), func(c *fiber.Ctx) error {
		return c.SendString("viewer=" + middleware.UserID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "viewer=", readBody(t, resp))

	req = httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "viewer="+sess.UserID, readBody(t, resp))

	req = httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set("Authorization", "Bearer broken")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "viewer=", readBody(t, resp))
}
