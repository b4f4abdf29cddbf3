package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validUser(username string) *User {
	return &User{
		Username:     username,
		PasswordHash: "hashed",
	}
}

func TestUser_Validate(t *testing.T) {
	for _, username := range []string{"alice", "bob_42", "a.b-c", "abc"} {
		assert.NoError(t, validUser(username).Validate(), username)
	}
}

func TestUser_Validate_BadUsernames(t *testing.T) {
	tests := []struct {
		username string
		wantErr  error
	}{
		{"", ErrUsernameRequired},
		{"ab", ErrUsernameLength},
		{strings.Repeat("a", MaxUsernameLength+1), ErrUsernameLength},
		{"has space", ErrUsernameInvalid},
		{"weird!chars", ErrUsernameInvalid},
		{"émile", ErrUsernameInvalid},
	}

	for _, tt := range tests {
		assert.ErrorIs(t, validUser(tt.username).Validate(), tt.wantErr, tt.username)
	}
}

func TestUser_Validate_MissingPasswordHash(t *testing.T) {
	user := validUser("alice")
	user.PasswordHash = ""
	assert.Error(t, user.Validate())
}
