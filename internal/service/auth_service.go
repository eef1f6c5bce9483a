package service

import (
	"TaskChatAPI/internal/config"
	"TaskChatAPI/internal/helper"
	"TaskChatAPI/internal/model"
	"TaskChatAPI/internal/repository"
	"context"
	"errors"
	"log/slog"
	"strings"
)

// AuthService is the connection gateway's token check. Tokens are minted by
// the identity service; here they are only verified.
type AuthService struct {
	cfg         *config.AppConfig
	sessionRepo *repository.SessionRepository
}

func NewAuthService(cfg *config.AppConfig, sessionRepo *repository.SessionRepository) *AuthService {
	return &AuthService{
		cfg:         cfg,
		sessionRepo: sessionRepo,
	}
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, helper.NewUnauthorizedError("Missing token")
	}

	claims, err := helper.ParseJWT(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
	if err != nil {
		if errors.Is(err, helper.ErrExpiredToken) {
			slog.Debug("Rejected expired token")
			return nil, helper.NewUnauthorizedError("Token has expired")
		}
		slog.Debug("Rejected invalid token", "error", err)
		return nil, helper.NewUnauthorizedError("Invalid token")
	}

	if !config.IsValidIdentity(claims.UserID) {
		slog.Warn("Token carries a malformed identity")
		return nil, helper.NewUnauthorizedError("Invalid token")
	}

	identity := &model.Identity{
		ID:    claims.UserID,
		Token: token,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Unix()
	}

	if s.sessionRepo != nil {
		if s.sessionRepo.IsTokenBlacklisted(ctx, token) {
			return nil, helper.NewUnauthorizedError("Token has been revoked")
		}
		if s.sessionRepo.IsUserRevoked(ctx, identity.ID, identity.IssuedAt) {
			return nil, helper.NewUnauthorizedError("Session has been revoked")
		}
	}

	return identity, nil
}
