package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobtrack/internal/cycle"
	"github.com/amishk599/jobtrack/internal/model"
	"github.com/amishk599/jobtrack/internal/notifier"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one ingestion cycle and exit",
	Long:  "Runs a single cycle over every enabled source and prints a summary. With --dry-run the cycle runs against a throwaway in-memory store and new jobs are only logged.",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "use an in-memory store and the log notifier")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	if runDryRun {
		logger.Info("dry-run mode: nothing is persisted")
	}
	st, err := openStore(cfg, runDryRun)
	if err != nil {
		exitf(logger, "failed to open store", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	var n model.Notifier = notifier.NewLogNotifier(logger)
	if !runDryRun {
		var closeNotifier func()
		n, closeNotifier, err = setupNotifier(ctx, cfg, httpClient, logger)
		if err != nil {
			exitf(logger, "failed to set up notifier", err)
		}
		defer closeNotifier()
	}

	runner := newCycleRunner(st, buildSources(cfg, httpClient, logger), setupClassifier(cfg, logger), n, cycle.Options{
		Concurrency:       cfg.Concurrency,
		SkipFailedSources: cfg.Sweep.SkipFailedSources,
	}, logger)

	report, err := runner.run(ctx)
	printReport(cmd, report)
	if err != nil {
		exitf(logger, "cycle aborted", err)
	}
	return nil
}

func printReport(cmd *cobra.Command, r model.CycleReport) {
	printf(cmd, "\n%-18s %-8s %6s %5s %8s %9s %8s %7s %11s\n",
		"Source", "State", "Found", "New", "Touched", "Unchanged", "Invalid", "Failed", "Deactivated")
	printf(cmd, "%s\n", strings.Repeat("─", 90))
	for _, s := range r.Sources {
		printf(cmd, "%-18s %-8s %6d %5d %8d %9d %8d %7d %11d\n",
			s.Name, s.State, s.Found, s.New, s.Touched, s.Unchanged, s.Invalid, s.Failed, s.Deactivated)
	}
	printf(cmd, "%s\n", strings.Repeat("─", 90))
	printf(cmd, "%-18s %-8s %6s %5d %8d %9d %8d %7d %11d\n",
		"total", sweepState(r), "", r.New, r.Touched, r.Unchanged, r.Invalid, r.Failed, r.Deactivated)

	for _, s := range r.Sources {
		if s.Err != nil {
			printf(cmd, "  %s: %v\n", s.Name, s.Err)
		}
	}
}

func sweepState(r model.CycleReport) string {
	if r.Swept {
		return "swept"
	}
	return "aborted"
}
