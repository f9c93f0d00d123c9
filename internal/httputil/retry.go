package httputil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// ErrExhausted is wrapped by Do when every attempt failed.
var ErrExhausted = errors.New("retries exhausted")

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Retryable reports whether a finished attempt should be retried.
	// Nil retries transport errors and 5xx responses.
	Retryable func(resp *resty.Response, err error) bool
	// BeforeRetry runs after a retryable failure, before the delay.
	BeforeRetry func(attempt int, resp *resty.Response)
	// Sleep waits between attempts. Nil waits on a timer or ctx.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *zerolog.Logger
}

var DefaultRetry = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    10 * time.Second,
}

// Fixed returns a config that retries with a constant delay.
func Fixed(attempts int, delay time.Duration) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, BaseDelay: delay, MaxDelay: delay}
}

// Do runs send until it succeeds, a non-retryable result comes back, or
// MaxAttempts is reached. The delay doubles per attempt up to MaxDelay.
// When attempts run out the last response is returned alongside an error
// wrapping ErrExhausted.
func Do(ctx context.Context, cfg RetryConfig, send func(ctx context.Context) (*resty.Response, error)) (*resty.Response, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetry.MaxAttempts
	}
	if cfg.Retryable == nil {
		cfg.Retryable = ServerError
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}

	var (
		resp    *resty.Response
		lastErr error
	)
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		var err error
		resp, err = send(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return resp, ctxErr
		}
		if !cfg.Retryable(resp, err) {
			return resp, err
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode(), truncate(resp.String(), 512))
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.Logger != nil {
			cfg.Logger.Warn().Err(lastErr).
				Int("attempt", attempt).
				Int("max_attempts", cfg.MaxAttempts).
				Dur("delay", delay).
				Msg("retrying request")
		}
		if cfg.BeforeRetry != nil {
			cfg.BeforeRetry(attempt, resp)
		}
		if err := cfg.Sleep(ctx, delay); err != nil {
			return resp, err
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return resp, fmt.Errorf("%w: all %d attempts failed, last error: %v", ErrExhausted, cfg.MaxAttempts, lastErr)
}

// ServerError retries transport failures and 5xx statuses.
func ServerError(resp *resty.Response, err error) bool {
	return err != nil || resp == nil || resp.StatusCode() >= 500
}

// Status retries only the given HTTP status.
func Status(code int) func(*resty.Response, error) bool {
	return func(resp *resty.Response, err error) bool {
		return err == nil && resp != nil && resp.StatusCode() == code
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
