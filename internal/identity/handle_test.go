package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"alice", "alice@twitterclone.com"},
		{"  Alice ", "alice@twitterclone.com"},
		{"alice@example.com", "alice@example.com"},
		{"Bob@Example.COM", "bob@example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, LoginEmail(tt.in))
		})
	}
}

func TestUsernameOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "alice", usernameOf("Alice"))
	assert.Equal(t, "bob", usernameOf("bob@example.com"))
}
