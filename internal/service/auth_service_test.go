package service

import (
	"TaskChatAPI/internal/helper"
	"TaskChatAPI/internal/repository"
	"TaskChatAPI/internal/testutil"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Authenticate(t *testing.T) {
	cfg := testutil.NewTestConfig()
	svc := NewAuthService(cfg, nil)
	ctx := context.Background()

	token, err := helper.GenerateJWT(cfg.JWTSecret, cfg.JWTIssuer, 1, "u1")
	require.NoError(t, err)

	identity, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, token, identity.Token)
	assert.NotZero(t, identity.ExpiresAt)

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "  ")
		assertStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		forged, err := helper.GenerateJWT("other-secret", cfg.JWTIssuer, 1, "u1")
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, forged)
		assertStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		foreign, err := helper.GenerateJWT(cfg.JWTSecret, "someone-else", 1, "u1")
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, foreign)
		assertStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := helper.GenerateJWT(cfg.JWTSecret, cfg.JWTIssuer, -1, "u1")
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, expired)
		assertStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("malformed identity", func(t *testing.T) {
		bad, err := helper.GenerateJWT(cfg.JWTSecret, cfg.JWTIssuer, 1, "has space")
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, bad)
		assertStatus(t, err, http.StatusUnauthorized)
	})
}

func TestAuthService_Revocation(t *testing.T) {
	cfg := testutil.NewTestConfig()
	redisAdapter, _ := testutil.NewTestRedis(t)
	sessionRepo := repository.NewSessionRepository(redisAdapter, cfg)
	svc := NewAuthService(cfg, sessionRepo)
	ctx := context.Background()

	token, err := helper.GenerateJWT(cfg.JWTSecret, cfg.JWTIssuer, 1, "u1")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, token)
	require.NoError(t, err)

	require.NoError(t, sessionRepo.BlacklistToken(ctx, token, time.Minute))
	_, err = svc.Authenticate(ctx, token)
	assertStatus(t, err, http.StatusUnauthorized)

	other, err := helper.GenerateJWT(cfg.JWTSecret, cfg.JWTIssuer, 1, "u2")
	require.NoError(t, err)
	require.NoError(t, sessionRepo.RevokeAllSessions(ctx, "u2"))
	_, err = svc.Authenticate(ctx, other)
	assertStatus(t, err, http.StatusUnauthorized)
}
