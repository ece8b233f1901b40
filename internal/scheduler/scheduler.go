// Package scheduler fires ingestion cycles on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work, normally a full cycle.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron spec in a fixed timezone. A tick that fires
// while the previous run is still going is skipped, so at most one cycle runs
// at a time.
type Scheduler struct {
	spec       string
	loc        *time.Location
	runOnStart bool
	job        Job
	logger     *slog.Logger
}

// New creates a scheduler for a standard five-field cron spec (or a
// descriptor such as "@daily"). When runOnStart is set, one run starts
// immediately.
func New(spec string, loc *time.Location, runOnStart bool, job Job, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		spec:       spec,
		loc:        loc,
		runOnStart: runOnStart,
		job:        job,
		logger:     logger,
	}
}

// Run starts the schedule and blocks until ctx is cancelled. It waits for an
// in-flight run to return before returning nil.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(cron.WithLocation(s.loc), cron.WithLogger(cl))

	schedule, err := cron.ParseStandard(s.spec)
	if err != nil {
		return fmt.Errorf("parsing schedule %q: %w", s.spec, err)
	}
	job := s.wrap(ctx)
	c.Schedule(schedule, job)
	c.Start()

	s.logger.Info("starting scheduler",
		"schedule", s.spec,
		"timezone", s.loc.String(),
		"next_run", schedule.Next(time.Now().In(s.loc)),
	)

	var wg sync.WaitGroup
	if s.runOnStart {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Run()
		}()
	}

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	wg.Wait()
	return nil
}

// wrap turns the Job into a cron job that skips overlapping runs.
func (s *Scheduler) wrap(ctx context.Context) cron.Job {
	chain := cron.NewChain(cron.Recover(cronLogger{s.logger}), cron.SkipIfStillRunning(cronLogger{s.logger}))
	return chain.Then(cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		if err := s.job(ctx); err != nil {
			s.logger.Error("scheduled run failed", "error", err, "duration", time.Since(start))
			return
		}
		s.logger.Info("scheduled run finished", "duration", time.Since(start))
	}))
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
