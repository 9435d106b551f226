// Package retry wraps outbound model calls with bounded exponential
// backoff. Only rate-limit failures are retried; anything else (bad
// request, auth, schema violation) is assumed non-transient and
// propagates on the first attempt.
package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
)

// ErrUpstreamExhausted wraps the last rate-limit failure once the
// attempt budget is spent.
var ErrUpstreamExhausted = errors.New("upstream retries exhausted")

type Options struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

var defaultOptions = Options{
	MaxAttempts:  3,
	InitialDelay: 1 * time.Second,
}

// IsRateLimit reports whether err is a provider rate-limit failure:
// an HTTP 429 or a RESOURCE_EXHAUSTED marker in the error text.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// Do runs op with the default budget: 3 attempts, 1s initial delay,
// doubling between attempts.
func Do[T any](ctx context.Context, op func() (T, error)) (T, error) {
	return DoWith(ctx, defaultOptions, op)
}

// DoWith runs op under opts. Rate-limited failures are retried after
// InitialDelay * 2^attempt; other failures return immediately. After
// MaxAttempts rate-limited failures the last error is returned wrapped
// in ErrUpstreamExhausted.
func DoWith[T any](ctx context.Context, opts Options, op func() (T, error)) (T, error) {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = opts.InitialDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = 0
	expo.MaxInterval = opts.InitialDelay << 4
	expo.MaxElapsedTime = 0

	policy := backoff.WithContext(
		backoff.WithMaxRetries(expo, uint64(opts.MaxAttempts-1)), ctx)

	var out T
	err := backoff.Retry(func() error {
		v, err := op()
		if err != nil {
			if !IsRateLimit(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = v
		return nil
	}, policy)

	if err != nil {
		if IsRateLimit(err) {
			return out, fmt.Errorf("%w: %w", ErrUpstreamExhausted, err)
		}
		return out, err
	}
	return out, nil
}
