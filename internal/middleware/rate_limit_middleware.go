package middleware

import (
	"TaskChatAPI/internal/config"
	"TaskChatAPI/internal/helper"
	"TaskChatAPI/internal/model"
	"TaskChatAPI/internal/repository"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"
)

type RateLimitMiddleware struct {
	repo    *repository.RateLimitRepository
	proxies *proxyResolver
}

func NewRateLimitMiddleware(repo *repository.RateLimitRepository, cfg *config.AppConfig) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		repo:    repo,
		proxies: newProxyResolver(cfg.TrustedProxyCIDRs),
	}
}

// Limit counts requests per identity, or per client IP before
// authentication, in fixed windows. Without Redis it passes everything.
func (m *RateLimitMiddleware) Limit(keyName string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m.repo == nil || limit <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("ratelimit:%s:%s", keyName, m.identifier(r))

			allowed, ttl, err := m.repo.Allow(r.Context(), key, limit, window)
			if err != nil {
				slog.Error("Rate limit check failed", "error", err)
				helper.WriteError(w, helper.NewServiceUnavailableError("Rate limiting service unavailable"))
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", int(ttl.Seconds())))

			if !allowed {
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(math.Ceil(ttl.Seconds()))))

				helper.WriteError(w, helper.NewTooManyRequestsError("Rate limit exceeded. Please try again later."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimitMiddleware) identifier(r *http.Request) string {
	if identity, ok := r.Context().Value(UserContextKey).(*model.Identity); ok && identity != nil {
		return "user:" + identity.ID
	}
	return "ip:" + m.proxies.ClientIP(r)
}
