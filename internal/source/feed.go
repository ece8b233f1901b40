// Package source reads the postings that per-board scrapers publish and maps
// each board's record shape onto model.RawPosting.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/amishk599/jobtrack/internal/model"
	"github.com/amishk599/jobtrack/internal/retry"
)

// Ensure FeedSource implements model.Scraper.
var _ model.Scraper = (*FeedSource)(nil)

const maxFeedBytes = 32 << 20

// FeedSource loads one board's scraped records from an http(s) URL or a
// local file.
type FeedSource struct {
	name     string
	kind     Kind
	location string
	client   *http.Client
}

// NewFeedSource creates a source named name reading records of kind from
// location.
func NewFeedSource(name string, kind Kind, location string, client *http.Client) *FeedSource {
	return &FeedSource{
		name:     name,
		kind:     kind,
		location: location,
		client:   client,
	}
}

// Name returns the configured source name.
func (s *FeedSource) Name() string { return s.name }

// Location returns where the feed is read from.
func (s *FeedSource) Location() string { return s.location }

// Scrape fetches the feed and converts every record to a RawPosting.
func (s *FeedSource) Scrape(ctx context.Context) ([]model.RawPosting, error) {
	data, err := s.read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s feed: %w", s.name, err)
	}

	records, err := Decode(s.kind, data)
	if err != nil {
		return nil, fmt.Errorf("%s feed: %w", s.name, err)
	}

	postings := make([]model.RawPosting, 0, len(records))
	for _, r := range records {
		p := r.RawPosting()
		p.Source = s.name
		postings = append(postings, p)
	}
	return postings, nil
}

// Host returns the feed's host, or "file" for local feeds. Rate limiting is
// keyed on it.
func (s *FeedSource) Host() string {
	if !isHTTP(s.location) {
		return "file"
	}
	rest := s.location[strings.Index(s.location, "://")+3:]
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func (s *FeedSource) read(ctx context.Context) ([]byte, error) {
	if !isHTTP(s.location) {
		data, err := os.ReadFile(s.location)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.location, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}

func isHTTP(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
