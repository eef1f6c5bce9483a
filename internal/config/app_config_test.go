package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadAppConfigDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TRUSTED_PROXY_CIDRS", "10.0.0.0/8, ,192.168.0.0/16")
	t.Setenv("WS_EVENT_RATE", "not-a-float")

	cfg := LoadAppConfig()

	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 24, cfg.JWTExp)
	assert.Equal(t, "TaskChatAPI", cfg.JWTIssuer)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.TrustedProxyCIDRs)
	assert.Equal(t, 10.0, cfg.WSEventRate)
	assert.Equal(t, 60*time.Second, cfg.WSPongWait)
	assert.Equal(t, 60, cfg.WSHandshakeRateLimit)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}
