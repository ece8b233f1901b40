package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobtrack/internal/model"
)

// Ensure RedisNotifier implements model.Notifier.
var _ model.Notifier = (*RedisNotifier)(nil)

// EventNewJob is the type of every event RedisNotifier publishes.
const EventNewJob = "EVENT_JOB_CREATED"

// Publisher is the subset of *redis.Client used for pub/sub.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publishes one JSON event per new job on a pub/sub channel.
type RedisNotifier struct {
	pub     Publisher
	channel string
	logger  *slog.Logger
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedisNotifier publishes on channel through pub.
func NewRedisNotifier(pub Publisher, channel string, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{pub: pub, channel: channel, logger: logger}
}

// jobEvent is the wire format of a published job.
type jobEvent struct {
	Type        string    `json:"type"`
	JobID       int64     `json:"jobId"`
	ExternalID  string    `json:"externalId,omitempty"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location,omitempty"`
	SalaryRange string    `json:"salaryRange,omitempty"`
	JobType     string    `json:"jobType,omitempty"`
	Category    string    `json:"category,omitempty"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	FirstSeen   time.Time `json:"firstSeen"`
}

// Notify publishes every job. A failed publish is logged and the rest are
// still attempted; the error reports how many failed.
func (n *RedisNotifier) Notify(ctx context.Context, jobs []model.Job) error {
	failures := 0
	for _, j := range jobs {
		event, err := json.Marshal(jobEvent{
			Type:        EventNewJob,
			JobID:       j.ID,
			ExternalID:  j.ExternalID,
			Title:       j.Title,
			Company:     j.Company,
			Location:    j.Location,
			SalaryRange: j.SalaryRange,
			JobType:     j.JobType,
			Category:    j.Category,
			Source:      j.Source,
			URL:         j.URL,
			FirstSeen:   j.FirstSeen,
		})
		if err != nil {
			return fmt.Errorf("marshal job event: %w", err)
		}
		if err := n.pub.Publish(ctx, n.channel, event).Err(); err != nil {
			n.logger.Error("publish new job failed", "job_id", j.ID, "channel", n.channel, "error", err)
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d job events failed to publish", failures, len(jobs))
	}
	if len(jobs) > 0 {
		n.logger.Info("published new jobs", "channel", n.channel, "jobs", len(jobs))
	}
	return nil
}
