package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

var fastOpts = Options{MaxAttempts: 3, InitialDelay: time.Millisecond}

func TestDoWith_RateLimitedThenSuccess(t *testing.T) {
	attempts := 0

	result, err := DoWith(context.Background(), fastOpts, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestDoWith_NonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	permanent := errors.New("invalid request")

	_, err := DoWith(context.Background(), fastOpts, func() (string, error) {
		attempts++
		return "", permanent
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, permanent)
	assert.NotErrorIs(t, err, ErrUpstreamExhausted)
	assert.Equal(t, 1, attempts)
}

func TestDoWith_ExhaustionWrapsLastError(t *testing.T) {
	attempts := 0

	_, err := DoWith(context.Background(), fastOpts, func() (string, error) {
		attempts++
		return "", errors.New("429 too many requests")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamExhausted)
	assert.Equal(t, 3, attempts)
}

func TestIsRateLimit(t *testing.T) {
	assert.True(t, IsRateLimit(errors.New("got 429 from upstream")))
	assert.True(t, IsRateLimit(errors.New("RESOURCE_EXHAUSTED: quota")))
	assert.True(t, IsRateLimit(&googleapi.Error{Code: 429}))
	assert.False(t, IsRateLimit(&googleapi.Error{Code: 400}))
	assert.False(t, IsRateLimit(errors.New("auth failed")))
	assert.False(t, IsRateLimit(nil))
}

func TestDoWith_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DoWith(ctx, Options{MaxAttempts: 3, InitialDelay: time.Minute}, func() (string, error) {
		return "", errors.New("429")
	})

	require.Error(t, err)
}
