package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndParseAccessToken(t *testing.T) {
	tok, err := IssueAccessToken(testSecret, "alice", NewRoleSet(RoleManager, RoleUser), 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(120), tok.ExpiresIn)

	id, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
	assert.True(t, id.Roles.Has(RoleManager))
	assert.True(t, id.Roles.Has(RoleUser))
	assert.False(t, id.Roles.Has(RoleAdmin))
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	tok, err := IssueAccessToken(testSecret, "alice", NewRoleSet(RoleUser), time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken("ffffffffffffffffffffffffffffffff", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenExpired(t *testing.T) {
	tok, err := IssueAccessToken(testSecret, "alice", NewRoleSet(RoleUser), -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenGarbage(t *testing.T) {
	_, err := ParseAccessToken(testSecret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken(testSecret, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken(t *testing.T) {
	tok, err := IssueAccessToken(testSecret, "bob", NewRoleSet(RoleUser), time.Minute)
	require.NoError(t, err)

	assert.True(t, ValidateAccessToken(testSecret, tok.Token, "bob"))
	assert.False(t, ValidateAccessToken(testSecret, tok.Token, "alice"))
}

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(30)
	require.NoError(t, err)
	b, err := NewRefreshToken(30)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), a.Exp, time.Minute)
}

func TestHashRefreshRawIsStableAndOpaque(t *testing.T) {
	h1 := HashRefreshRaw("raw-token")
	h2 := HashRefreshRaw("raw-token")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashRefreshRaw("raw-token2"))
	assert.NotContains(t, h1, "raw-token")
}
