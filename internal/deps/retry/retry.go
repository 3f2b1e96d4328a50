// Package retry wraps network operations with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultMaxTries includes the first attempt.
	DefaultMaxTries        = 3
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 5 * time.Second
)

// StatusError is returned for an HTTP response with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsRetriable reports whether err may succeed on a later attempt.
// Client errors (4xx) are final; server errors and transport failures are retried.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// Config bounds a retried operation.
type Config struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Notify is called before each retry.
	Notify func(err error, wait time.Duration)
}

// DefaultConfig returns the standard retry policy for network requests.
func DefaultConfig() Config {
	return Config{
		MaxTries:        DefaultMaxTries,
		InitialInterval: defaultInitialInterval,
		MaxInterval:     defaultMaxInterval,
	}
}

// Do runs op until it succeeds, fails with a non-retriable error, or MaxTries is reached.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	if cfg.MaxTries == 0 {
		cfg.MaxTries = DefaultMaxTries
	}
	expBackoff := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		expBackoff.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		expBackoff.MaxInterval = cfg.MaxInterval
	}

	operation := func() (T, error) {
		result, err := op(ctx)
		if err != nil && !IsRetriable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(cfg.MaxTries),
		backoff.WithNotify(func(err error, d time.Duration) {
			if cfg.Notify != nil {
				cfg.Notify(err, d)
			}
		}),
	)
}
