package service

import (
	"context"
	"testing"
	"time"

	"indico/config"
	"indico/internal/auth"
	"indico/internal/domain"
	"indico/internal/repository"
	"indico/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	cfg := &config.Config{JWT: config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "indico-test",
	}}
	return NewAuthService(cfg, repository.NewUserRepository(testutil.OpenDB(t)))
}

func TestAuthService_RegisterLoginRefresh(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	u, tokens, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: " Ana@Example.com ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NotEmpty(t, tokens.Access)

	claims, err := auth.ParseAccessToken(&svc.cfg.JWT, tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, _, err = svc.Login(ctx, "ANA@example.com", "s3cret-pass")
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, tokens.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Access)
}

func TestAuthService_Rejections(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	_, _, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "ANA@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, _, err = svc.Register(ctx, RegisterInput{Name: "Short", Email: "s@example.com", Password: "123"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = svc.Login(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCreds)
	_, _, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCreds)

	_, err = svc.RefreshToken(ctx, "not-a-token")
	assert.Error(t, err)
}
