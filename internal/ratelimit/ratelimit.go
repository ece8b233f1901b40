// Package ratelimit spaces out requests that land on the same host.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobtrack/internal/model"
)

// HostLimiter enforces a minimum delay between requests to the same host.
// Sources that share a board host should share one limiter.
type HostLimiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // earliest time the next request may start
	minDelay time.Duration
}

// NewHostLimiter creates a limiter allowing one request per host every minDelay.
func NewHostLimiter(minDelay time.Duration) *HostLimiter {
	return &HostLimiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until host may be called again. Concurrent callers for the
// same host are queued one minDelay apart.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	l.mu.Lock()
	now := time.Now()
	start := now
	if next, ok := l.next[host]; ok && next.After(now) {
		start = next
	}
	l.next[host] = start.Add(l.minDelay)
	l.mu.Unlock()

	remaining := start.Sub(now)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", host, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Ensure Scraper implements model.Scraper.
var _ model.Scraper = (*Scraper)(nil)

// Scraper waits on a shared HostLimiter before delegating to the wrapped
// scraper.
type Scraper struct {
	inner   model.Scraper
	limiter *HostLimiter
	host    string
}

// NewScraper wraps inner so each Scrape first waits for host's turn.
func NewScraper(inner model.Scraper, limiter *HostLimiter, host string) *Scraper {
	return &Scraper{
		inner:   inner,
		limiter: limiter,
		host:    host,
	}
}

func (s *Scraper) Name() string { return s.inner.Name() }

func (s *Scraper) Scrape(ctx context.Context) ([]model.RawPosting, error) {
	if err := s.limiter.Wait(ctx, s.host); err != nil {
		return nil, err
	}
	return s.inner.Scrape(ctx)
}
