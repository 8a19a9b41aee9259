package auth

import (
	"testing"
	"time"

	"indico/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "indico-test",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	id := Identity{UserID: "u1", DisplayName: "Ana", Role: "ADMIN"}

	tok, err := GenerateAccessToken(cfg, id)
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, id, claims.Identity())
	assert.True(t, claims.Identity().IsAdmin())
}

func TestParseAccessToken_Rejects(t *testing.T) {
	cfg := testJWTConfig()

	_, err := ParseAccessToken(cfg, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	refresh, err := GenerateRefreshToken(cfg, "u1")
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token is signed with another secret")

	expired := *cfg
	expired.AccessExpiry = -time.Minute
	tok, err := GenerateAccessToken(&expired, Identity{UserID: "u1"})
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateRefreshToken(cfg, "u42")
	require.NoError(t, err)

	sub, err := ParseRefreshToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, "u42", sub)
}
