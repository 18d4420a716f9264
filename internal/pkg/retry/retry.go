package retry

import (
	"context"
	"strings"
	"time"
)

// Options controls the backoff schedule.
type Options struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor int
}

// DefaultOptions mirrors the upstream clients' defaults: 3 retries, 1s base,
// 30s ceiling, factor 2.
func DefaultOptions() Options {
	return Options{
		MaxRetries:    3,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2,
	}
}

// Do runs fn with bounded exponential backoff. Only retryable errors
// (network/timeout/rate-limit/5xx classes) are retried; anything else
// propagates immediately. The last error is returned once attempts are
// exhausted.
func Do(ctx context.Context, opts Options, fn func() error) error {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BackoffFactor < 2 {
		opts.BackoffFactor = 2
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == opts.MaxRetries {
			break
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}

		delay := opts.BaseDelay
		for i := 0; i < attempt; i++ {
			delay *= time.Duration(opts.BackoffFactor)
			if delay >= opts.MaxDelay {
				break
			}
		}
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// IsRetryable reports whether an error belongs to the retryable classes:
// network failures, timeouts, rate limits and upstream 5xx responses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"network",
		"timeout",
		"rate limit",
		"429",
		"502",
		"503",
		"504",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
