package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/aiblog/config"
)

func TestMain(m *testing.M) {
	config.Set(config.AppConfig{JWTSecret: "test-secret"})
	m.Run()
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(7, "alice", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestTokensAreDistinct(t *testing.T) {
	first, err := GenerateToken(7, "alice", time.Hour)
	require.NoError(t, err)
	second, err := GenerateToken(7, "alice", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	BlacklistToken(first, time.Now().Add(time.Hour))
	assert.True(t, IsTokenBlacklisted(first))
	assert.False(t, IsTokenBlacklisted(second))

	a, err := ParseToken(first)
	require.NoError(t, err)
	b, err := ParseToken(second)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken(7, "alice", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", ""))

	_, err = HashPassword(strings.Repeat("x", 73))
	assert.Error(t, err)
}

func TestStateIsSingleUse(t *testing.T) {
	SaveState("abc", time.Minute)
	assert.True(t, ConsumeState("abc"))
	assert.False(t, ConsumeState("abc"))
	assert.False(t, ConsumeState("never-saved"))
}

func TestBlacklistToken(t *testing.T) {
	BlacklistToken("tok", time.Now().Add(time.Minute))
	assert.True(t, IsTokenBlacklisted("tok"))
	assert.True(t, IsTokenBlacklisted("tok"))
	assert.False(t, IsTokenBlacklisted("other"))

	BlacklistToken("expired", time.Now().Add(-time.Minute))
	assert.False(t, IsTokenBlacklisted("expired"))
}
