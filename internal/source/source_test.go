package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/jobtrack/internal/model"
)

func TestRecordExternalIDs(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		payload string
		wantID  string
	}{
		{"seek from url", KindSeek, `[{"title":"Dev","url":"https://www.seek.co.nz/job/81234567?type=standard"}]`, "81234567"},
		{"seek keeps given id", KindSeek, `[{"title":"Dev","external_id":"999","url":"https://www.seek.co.nz/job/1"}]`, "999"},
		{"linkedin numeric", KindLinkedIn, `[{"title":"Dev","url":"https://nz.linkedin.com/jobs/view/3912345678"}]`, "linkedin_3912345678"},
		{"linkedin slug", KindLinkedIn, `[{"title":"Dev","url":"https://nz.linkedin.com/jobs/view/go-developer-at-acme-3912345678?trk=x"}]`, "linkedin_3912345678"},
		{"trademe", KindTradeMe, `[{"title":"Dev","url":"https://www.trademe.co.nz/a/jobs/it/listing/4455667"}]`, "trademe_4455667"},
		{"indeed jk param", KindIndeed, `[{"title":"Dev","url":"https://nz.indeed.com/viewjob?jk=ab12cd34"}]`, "indeed_ab12cd34"},
		{"indeed jk field", KindIndeed, `[{"title":"Dev","jk":"ff00","url":"https://nz.indeed.com/viewjob?jk=ff00&from=serp"}]`, "indeed_ff00"},
		{"no id derivable", KindTradeMe, `[{"title":"Dev","url":"https://www.trademe.co.nz/a/jobs"}]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Decode(tt.kind, []byte(tt.payload))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("got %d records", len(records))
			}
			if got := records[0].RawPosting().ExternalID; got != tt.wantID {
				t.Errorf("ExternalID = %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestIndeedIdentityURLKeepsJobsApart(t *testing.T) {
	records, err := Decode(KindIndeed, []byte(`[
		{"title":"A","url":"https://nz.indeed.com/viewjob?jk=aaa"},
		{"title":"B","url":"https://nz.indeed.com/viewjob?jk=bbb&from=serp"}
	]`))
	if err != nil {
		t.Fatal(err)
	}
	a, b := records[0].RawPosting(), records[1].RawPosting()
	if a.IdentityURL != "https://nz.indeed.com/viewjob/aaa" || b.IdentityURL != "https://nz.indeed.com/viewjob/bbb" {
		t.Errorf("identity urls = %q, %q", a.IdentityURL, b.IdentityURL)
	}
	if a.URL != "https://nz.indeed.com/viewjob?jk=aaa" {
		t.Errorf("URL should be kept as seen, got %q", a.URL)
	}
}

func TestDecodeWrappedAndHTML(t *testing.T) {
	records, err := Decode(KindSeek, []byte(`{"jobs":[{
		"title":"Dev","company":"Acme","location":"Auckland","salary_range":"$100k",
		"job_type":"Full time","url":"https://www.seek.co.nz/job/1",
		"description":"<p>Go &amp; <b>Postgres</b></p>\n<ul><li>Remote</li></ul>"
	}]}`))
	if err != nil {
		t.Fatal(err)
	}
	p := records[0].RawPosting()
	if p.Source != "seek" || p.Company != "Acme" || p.SalaryRange != "$100k" || p.JobType != "Full time" {
		t.Errorf("fields not mapped: %+v", p)
	}
	if p.Description != "Go & Postgres Remote" {
		t.Errorf("Description = %q", p.Description)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode(KindSeek, []byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := Decode(Kind("monster"), []byte(`[]`)); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" LinkedIn "); err != nil || k != KindLinkedIn {
		t.Errorf("ParseKind = %q, %v", k, err)
	}
	if _, err := ParseKind("monster"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestFeedSourceHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"title":"Dev","url":"https://www.seek.co.nz/job/1"},{"title":"Ops","source":"Seek NZ","url":"https://www.seek.co.nz/job/2"}]`))
	}))
	defer srv.Close()

	s := NewFeedSource("seek-akl", KindSeek, srv.URL+"/feed.json", srv.Client())
	postings, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("got %d postings, want 2", len(postings))
	}
	for _, p := range postings {
		if p.Source != "seek-akl" {
			t.Errorf("Source = %q, want configured name", p.Source)
		}
	}
	if s.Host() != srv.Listener.Addr().String() {
		t.Errorf("Host = %q", s.Host())
	}
}

func TestFeedSourceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewFeedSource("seek", KindSeek, srv.URL, srv.Client()).Scrape(context.Background())
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != 429 || httpErr.RetryAfter != 30*time.Second {
		t.Errorf("got %+v", httpErr)
	}
}

func TestFeedSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trademe.json")
	if err := os.WriteFile(path, []byte(`[{"title":"Dev","url":"https://www.trademe.co.nz/a/jobs/listing/5"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFeedSource("trademe", KindTradeMe, path, nil)
	postings, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(postings) != 1 || postings[0].ExternalID != "trademe_5" {
		t.Errorf("postings = %+v", postings)
	}
	if s.Host() != "file" {
		t.Errorf("Host = %q", s.Host())
	}

	if _, err := NewFeedSource("x", KindSeek, filepath.Join(t.TempDir(), "missing.json"), nil).Scrape(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}
