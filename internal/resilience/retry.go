// Package resilience provides retry and transient-error classification for
// calls against the spatial store.
package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls a fixed-interval retry loop.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	// Values below 1 mean a single attempt.
	MaxAttempts int

	// Interval is the delay between attempts. Default: 2s.
	Interval time.Duration

	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error)
}

// FixedInterval returns a config that retries every interval until timeout
// has been spent.
func FixedInterval(interval, timeout time.Duration) RetryConfig {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	attempts := 1
	if timeout > 0 {
		attempts = int(timeout/interval) + 1
	}
	return RetryConfig{MaxAttempts: attempts, Interval: interval}
}

// Do runs fn until it succeeds, exhausts MaxAttempts, or ctx is done. Every
// error is retried; the last one is returned.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil || ctx.Err() != nil || attempt == cfg.MaxAttempts {
			return lastErr
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr)
		}

		timer := time.NewTimer(cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}

	return lastErr
}

// RetryLogger returns an OnRetry callback that logs each attempt.
func RetryLogger(operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
