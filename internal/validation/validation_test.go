package validation

import (
	"errors"
	"strings"
	"testing"

	"twitterclone/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpRequest(t *testing.T) {
	t.Parallel()
	valid := SignUpRequest{Username: "alice", ProfileName: "Alice", Password: "secret", ConfirmPassword: "secret"}

	tests := []struct {
		name    string
		mutate  func(r *SignUpRequest)
		wantMsg string
	}{
		{"valid", func(*SignUpRequest) {}, ""},
		{"email handle", func(r *SignUpRequest) { r.Username = "alice@example.com" }, ""},
		{"short username", func(r *SignUpRequest) { r.Username = "al" }, "Username must be at least 3 characters"},
		{"short profile name", func(r *SignUpRequest) { r.ProfileName = "Al" }, "Profile name must be at least 3 characters"},
		{"short password", func(r *SignUpRequest) { r.Password, r.ConfirmPassword = "12345", "12345" }, "Password must be at least 6 characters"},
		{"mismatch", func(r *SignUpRequest) { r.ConfirmPassword = "secreT" }, "Passwords do not match"},
		{"illegal chars", func(r *SignUpRequest) { r.Username = "al ice" }, "Username may only contain"},
		{"too long", func(r *SignUpRequest) { r.Username = strings.Repeat("a", 51) }, "Username must be at most 50 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := valid
			tt.mutate(&req)
			err := Struct(req)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Message, tt.wantMsg)
		})
	}
}

func TestLoginRequestRequiresFields(t *testing.T) {
	t.Parallel()
	err := Struct(LoginRequest{Username: "alice"})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Contains(t, err.Error(), "Password is required")
}

func TestCreatePostRequestImageURL(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Struct(CreatePostRequest{Text: "hi"}))
	assert.NoError(t, Struct(CreatePostRequest{ImageURL: "https://img.example/a.jpg"}))
	assert.Error(t, Struct(CreatePostRequest{ImageURL: "not a url"}))
}
