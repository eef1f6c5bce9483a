package helper

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestRetryWithBackoffSucceedsAfterRetries(t *testing.T) {
	calls := 0
	got, err := RetryWithBackoff(func() (string, bool, error) {
		calls++
		if calls < 3 {
			return "", true, errFlaky
		}
		return "ok", false, nil
	}, 3, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := RetryWithBackoff(func() (int, bool, error) {
		calls++
		return 0, false, errFlaky
	}, 3, time.Millisecond)

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffContextCancelsDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	calls := 0
	start := time.Now()
	_, err := RetryWithBackoffContext(ctx, func() (int, bool, error) {
		calls++
		return 0, true, errFlaky
	}, 5, time.Minute)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, BackoffDelay(0, 100*time.Millisecond, 0))
	assert.Equal(t, 400*time.Millisecond, BackoffDelay(2, 100*time.Millisecond, 0))
	assert.Equal(t, time.Second, BackoffDelay(10, 100*time.Millisecond, time.Second))
	assert.Equal(t, 100*time.Millisecond, BackoffDelay(-1, 100*time.Millisecond, 0))
}

func TestShouldRetryHTTP(t *testing.T) {
	assert.True(t, ShouldRetryHTTP(nil, errFlaky))
	assert.True(t, ShouldRetryHTTP(nil, nil))
	assert.True(t, ShouldRetryHTTP(&http.Response{StatusCode: http.StatusBadGateway}, nil))
	assert.True(t, ShouldRetryHTTP(&http.Response{StatusCode: http.StatusTooManyRequests}, nil))
	assert.False(t, ShouldRetryHTTP(&http.Response{StatusCode: http.StatusForbidden}, nil))
}
