package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/jobtrack/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockScraper calls fn on each invocation, tracking call count.
type mockScraper struct {
	calls int
	fn    func(attempt int) ([]model.RawPosting, error)
}

func (m *mockScraper) Name() string { return "mock" }

func (m *mockScraper) Scrape(_ context.Context) ([]model.RawPosting, error) {
	m.calls++
	return m.fn(m.calls)
}

var fast = Policy{MaxRetries: 2, BaseDelay: 10 * time.Millisecond}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := &mockScraper{fn: func(_ int) ([]model.RawPosting, error) {
		return []model.RawPosting{{Title: "Engineer"}}, nil
	}}

	got, err := NewScraper(mock, fast, discardLogger()).Scrape(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Engineer" {
		t.Fatalf("unexpected postings: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	mock := &mockScraper{fn: func(attempt int) ([]model.RawPosting, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return []model.RawPosting{{Title: "x"}}, nil
	}}

	got, err := NewScraper(mock, fast, discardLogger()).Scrape(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockScraper{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}
	}}

	_, err := NewScraper(mock, fast, discardLogger()).Scrape(context.Background())
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected HTTPError with status 404, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockScraper{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	_, err := NewScraper(mock, fast, discardLogger()).Scrape(context.Background())
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockScraper{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScraper(mock, Policy{MaxRetries: 2, BaseDelay: time.Second}, discardLogger()).Scrape(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}

func TestDo_HonoursRetryAfter(t *testing.T) {
	p := Policy{MaxRetries: 1, BaseDelay: time.Hour}
	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), p, discardLogger(), func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, &model.HTTPError{StatusCode: 429, RetryAfter: 20 * time.Millisecond}
		}
		return 1, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("Retry-After should replace the hour-long base delay")
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"429", &model.HTTPError{StatusCode: 429}, true},
		{"502", &model.HTTPError{StatusCode: 502}, true},
		{"403", &model.HTTPError{StatusCode: 403}, false},
		{"network", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"120", 2 * time.Minute},
		{" 5 ", 5 * time.Second},
		{"", 0},
		{"-3", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		if got := ParseRetryAfter(tt.in); got != tt.want {
			t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
