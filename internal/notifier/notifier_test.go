package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobtrack/internal/model"
	"github.com/amishk599/jobtrack/internal/retry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleJob(id int64, title, company string) model.Job {
	return model.Job{
		ID:        id,
		Company:   company,
		Title:     title,
		Location:  "Auckland",
		URL:       "https://www.seek.co.nz/job/123",
		Category:  "Backend Developer",
		Source:    "seek",
		FirstSeen: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func fastSlack(url string, client *http.Client) *SlackNotifier {
	n := NewSlackNotifier(url, client, discardLogger())
	n.policy = retry.Policy{MaxRetries: 1, BaseDelay: time.Millisecond}
	n.pause = 0
	return n
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Notify(context.Background(), nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify(context.Background(), []model.Job{sampleJob(7, "Go Developer", "Acme")}); err != nil {
		t.Errorf("Notify = %v, want nil", err)
	}
	out := buf.String()
	for _, want := range []string{"new job", "job_id=7", `title="Go Developer"`, `category="Backend Developer"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestSlackNotifier_EmptyJobs(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	if err := fastSlack(srv.URL, srv.Client()).Notify(context.Background(), nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestSlackNotifier_Digest(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	jobs := []model.Job{sampleJob(1, "Backend Engineer", "Acme & Co"), sampleJob(2, "SRE", "Beta")}
	if err := fastSlack(srv.URL, srv.Client()).Notify(context.Background(), jobs); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Blocks[0].Text.Text != "🆕 2 new jobs" {
		t.Errorf("header = %q", payload.Blocks[0].Text.Text)
	}
	// header + 2 blocks per job + divider
	if len(payload.Blocks) != 6 {
		t.Fatalf("got %d blocks, want 6", len(payload.Blocks))
	}
	first := payload.Blocks[1]
	if first.Text.Text != "*Backend Engineer*\nAcme &amp; Co · Auckland" {
		t.Errorf("job text = %q", first.Text.Text)
	}
	if first.Accessory == nil || first.Accessory.URL != "https://www.seek.co.nz/job/123" {
		t.Errorf("accessory = %+v", first.Accessory)
	}
	if got := payload.Blocks[2].Elements[0].Text; got != "Backend Developer · seek" {
		t.Errorf("context = %q", got)
	}
}

func TestSlackNotifier_SplitsLargeDigests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	jobs := make([]model.Job, jobsPerMessage+1)
	for i := range jobs {
		jobs[i] = sampleJob(int64(i+1), "Dev", "Acme")
	}
	if err := fastSlack(srv.URL, srv.Client()).Notify(context.Background(), jobs); err != nil {
		t.Fatalf("Notify() = %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 messages, got %d", c)
	}
}

func TestSlackNotifier_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := fastSlack(srv.URL, srv.Client()).Notify(context.Background(), []model.Job{sampleJob(1, "A", "X")}); err == nil {
		t.Error("expected error when all messages fail, got nil")
	}
}

func TestSlackNotifier_PartialFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The first digest fails on both attempts, the second succeeds.
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	jobs := make([]model.Job, jobsPerMessage+1)
	for i := range jobs {
		jobs[i] = sampleJob(int64(i+1), "Dev", "Acme")
	}
	if err := fastSlack(srv.URL, srv.Client()).Notify(context.Background(), jobs); err != nil {
		t.Errorf("expected nil (partial success), got %v", err)
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	if err := fastSlack(srv.URL, srv.Client()).Notify(context.Background(), []model.Job{sampleJob(1, "Rate Limited", "Test")}); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}

func TestSlackNotifier_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if err := fastSlack(srv.URL, srv.Client()).Notify(context.Background(), []model.Job{sampleJob(1, "x", "y")}); err == nil {
		t.Fatal("expected error for 404")
	}
	if c := calls.Load(); c != 1 {
		t.Errorf("expected 1 call, got %d", c)
	}
}

// fakePublisher records published messages, failing on the listed calls.
type fakePublisher struct {
	channels []string
	messages [][]byte
	failOn   map[int]bool
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	n := len(f.channels)
	f.channels = append(f.channels, channel)
	f.messages = append(f.messages, message.([]byte))
	if f.failOn[n] {
		cmd.SetErr(errors.New("connection reset"))
		return cmd
	}
	cmd.SetVal(1)
	return cmd
}

func TestRedisNotifier_PublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	n := NewRedisNotifier(pub, "jobtrack:new-jobs", discardLogger())

	jobs := []model.Job{sampleJob(1, "Go Developer", "Acme"), sampleJob(2, "SRE", "Beta")}
	if err := n.Notify(context.Background(), jobs); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(pub.messages) != 2 || pub.channels[0] != "jobtrack:new-jobs" {
		t.Fatalf("published %d messages on %v", len(pub.messages), pub.channels)
	}

	var ev jobEvent
	if err := json.Unmarshal(pub.messages[0], &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.Type != EventNewJob || ev.JobID != 1 || ev.Title != "Go Developer" || ev.Source != "seek" {
		t.Errorf("event = %+v", ev)
	}
}

func TestRedisNotifier_ContinuesAfterFailure(t *testing.T) {
	pub := &fakePublisher{failOn: map[int]bool{0: true}}
	n := NewRedisNotifier(pub, "c", discardLogger())

	err := n.Notify(context.Background(), []model.Job{sampleJob(1, "a", "b"), sampleJob(2, "c", "d")})
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("err = %v, want 1 of 2 failed", err)
	}
	if len(pub.messages) != 2 {
		t.Errorf("second job should still be published, got %d publishes", len(pub.messages))
	}
}

func TestSendTestMessage(t *testing.T) {
	pub := &fakePublisher{}
	if err := SendTestMessage(context.Background(), NewRedisNotifier(pub, "c", discardLogger())); err != nil {
		t.Fatalf("SendTestMessage: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Errorf("published %d messages, want 1", len(pub.messages))
	}
}
