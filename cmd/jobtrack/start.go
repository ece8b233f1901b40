package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobtrack/internal/api"
	"github.com/amishk599/jobtrack/internal/cycle"
	"github.com/amishk599/jobtrack/internal/metrics"
	"github.com/amishk599/jobtrack/internal/scheduler"
)

var (
	startNoAPI   bool
	startNoFirst bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ingestion daemon",
	Long:  "Runs a cycle now and then on the configured cron schedule, serving the read API alongside; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().BoolVar(&startNoAPI, "no-api", false, "do not serve the read API")
	startCmd.Flags().BoolVar(&startNoFirst, "no-initial-run", false, "wait for the first scheduled tick instead of running a cycle at start")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	logger.Info("config loaded",
		"schedule", cfg.Schedule,
		"timezone", cfg.Timezone.String(),
		"sources", len(cfg.EnabledSources()),
		"database", string(cfg.Database.Driver),
		"classifier", cfg.Classifier.Type,
		"notification", cfg.Notification.Type,
	)

	st, err := openStore(cfg, false)
	if err != nil {
		exitf(logger, "failed to open store", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n, closeNotifier, err := setupNotifier(ctx, cfg, httpClient, logger)
	if err != nil {
		exitf(logger, "failed to set up notifier", err)
	}
	defer closeNotifier()

	sources := buildSources(cfg, httpClient, logger)
	runner := newCycleRunner(st, sources, setupClassifier(cfg, logger), n, cycle.Options{
		Concurrency:       cfg.Concurrency,
		SkipFailedSources: cfg.Sweep.SkipFailedSources,
	}, logger)

	sched := scheduler.New(cfg.Schedule, cfg.Timezone, !startNoFirst, func(ctx context.Context) error {
		_, err := runner.run(ctx)
		return err
	}, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	if !startNoAPI {
		mw := metrics.NewMiddleware()
		registerCollectors(mw, logger)
		srv := api.NewServer(cfg.API.ListenAddr, api.NewRouter(st, mw, logger), logger)
		g.Go(func() error { return srv.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		exitf(logger, "daemon error", err)
	}
	logger.Info("goodbye")
	return nil
}
