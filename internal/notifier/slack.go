package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobtrack/internal/model"
	"github.com/amishk599/jobtrack/internal/retry"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// jobsPerMessage keeps each digest well under Slack's 50-block limit.
const jobsPerMessage = 20

// SlackNotifier posts a digest of new jobs to a Slack channel via an
// Incoming Webhook.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	policy     retry.Policy
	pause      time.Duration // between digest messages
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts digests to webhookURL.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		policy:     retry.Policy{MaxRetries: 1, BaseDelay: time.Second},
		pause:      500 * time.Millisecond,
		logger:     logger,
	}
}

// Notify sends the jobs in digests of up to jobsPerMessage. It returns an
// error only if every message fails; individual failures are logged.
func (s *SlackNotifier) Notify(ctx context.Context, jobs []model.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	var batches [][]model.Job
	for start := 0; start < len(jobs); start += jobsPerMessage {
		end := min(start+jobsPerMessage, len(jobs))
		batches = append(batches, jobs[start:end])
	}

	failures := 0
	for i, batch := range batches {
		if i > 0 && s.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pause):
			}
		}

		payload := buildPayload(batch, len(jobs), i+1, len(batches))
		_, err := retry.Do(ctx, s.policy, s.logger, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.send(ctx, payload)
		})
		if err != nil {
			s.logger.Error("slack notification failed", "batch", i+1, "jobs", len(batch), "error", err)
			failures++
		}
	}

	if failures == len(batches) {
		return fmt.Errorf("all %d slack messages failed", failures)
	}
	s.logger.Info("slack notifications complete", "jobs", len(jobs), "messages", len(batches), "failed", failures)
	return nil
}

func (s *SlackNotifier) send(ctx context.Context, payload slackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("slack returned %d", resp.StatusCode),
		}
	}
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"` // notification fallback
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type      string        `json:"type"`
	Text      *slackText    `json:"text,omitempty"`
	Fields    []slackText   `json:"fields,omitempty"`
	Elements  []slackText   `json:"elements,omitempty"`
	Accessory *slackElement `json:"accessory,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style,omitempty"`
}

// SendTestMessage sends a dummy job to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	now := time.Now()
	testJob := model.Job{
		Company:   "jobtrack",
		Title:     "Test notification: integration verified",
		Location:  "Auckland",
		URL:       "https://www.seek.co.nz/jobs",
		Category:  "Other IT roles",
		Source:    "test",
		FirstSeen: now,
		LastSeen:  now,
		IsActive:  true,
	}
	return n.Notify(ctx, []model.Job{testJob})
}

func buildPayload(jobs []model.Job, total, part, parts int) slackPayload {
	title := fmt.Sprintf("🆕 %d new job", total)
	if total != 1 {
		title += "s"
	}
	if parts > 1 {
		title += fmt.Sprintf(" (%d/%d)", part, parts)
	}

	blocks := []slackBlock{{
		Type: "header",
		Text: &slackText{Type: "plain_text", Text: title},
	}}

	for _, j := range jobs {
		var b strings.Builder
		fmt.Fprintf(&b, "*%s*\n%s", escape(j.Title), escape(j.Company))
		if j.Location != "" {
			b.WriteString(" · " + escape(j.Location))
		}
		if j.SalaryRange != "" {
			b.WriteString(" · " + escape(j.SalaryRange))
		}

		block := slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: b.String()},
		}
		if j.URL != "" {
			block.Accessory = &slackElement{
				Type: "button",
				Text: slackText{Type: "plain_text", Text: "View"},
				URL:  j.URL,
			}
		}
		blocks = append(blocks, block)

		meta := j.Source
		if j.Category != "" {
			meta = j.Category + " · " + meta
		}
		blocks = append(blocks, slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: escape(meta)}},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Text: title, Blocks: blocks}
}

// escape applies Slack's mrkdwn control character escaping.
func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
