package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiterBurstPerKey(t *testing.T) {
	rl := newRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	defer rl.Stop()

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))

	assert.True(t, rl.Allow("u2"), "buckets are independent per key")
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0, 1, time.Minute)
	defer rl.Stop()

	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("u1"))
	}

	var nilLimiter *RateLimiter
	assert.True(t, nilLimiter.Allow("u1"))
}
