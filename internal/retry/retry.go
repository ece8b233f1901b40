// Package retry re-runs transient source failures with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobtrack/internal/model"
)

// Policy bounds how often and how patiently an operation is retried.
// MaxRetries counts the attempts after the first one.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Do runs fn and retries it while the error is transient. A Retry-After hint
// on a *model.HTTPError replaces the computed backoff.
func Do[T any](ctx context.Context, p Policy, logger *slog.Logger, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || !Retryable(err) {
		return v, err
	}

	lastErr := err
	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		delay := p.delay(attempt, lastErr)

		logger.Warn("retrying after transient error",
			"attempt", attempt,
			"max_retries", p.MaxRetries,
			"delay", delay,
			"error", lastErr,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		v, err = fn(ctx)
		if err == nil || !Retryable(err) {
			return v, err
		}
		lastErr = err
	}

	var zero T
	return zero, lastErr
}

// delay is BaseDelay * 2^(attempt-1) with ±30% jitter.
func (p Policy) delay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
	}

	jitter := float64(d) * 0.3
	return time.Duration(float64(d) + (rand.Float64()*2-1)*jitter)
}

// Retryable reports whether err is worth another attempt: 429, 5xx and
// network errors are; context errors and other 4xx are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	return true
}

// ParseRetryAfter parses a Retry-After header given in seconds. HTTP-date
// values and garbage yield zero.
func ParseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Ensure Scraper implements model.Scraper.
var _ model.Scraper = (*Scraper)(nil)

// Scraper retries a wrapped scraper's transient failures.
type Scraper struct {
	inner  model.Scraper
	policy Policy
	logger *slog.Logger
}

// NewScraper wraps inner with the given retry policy.
func NewScraper(inner model.Scraper, policy Policy, logger *slog.Logger) *Scraper {
	return &Scraper{
		inner:  inner,
		policy: policy,
		logger: logger.With("source", inner.Name()),
	}
}

func (s *Scraper) Name() string { return s.inner.Name() }

func (s *Scraper) Scrape(ctx context.Context) ([]model.RawPosting, error) {
	return Do(ctx, s.policy, s.logger, s.inner.Scrape)
}
