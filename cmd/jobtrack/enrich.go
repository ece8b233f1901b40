package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobtrack/internal/techstack"
)

var enrichLimit int

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Extract tech-stack skills from stored job descriptions",
	Long:  "Scans jobs that have a description but no skills yet and stores the technologies mentioned in them.",
	RunE:  runEnrich,
}

func init() {
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "maximum jobs to process (0 = all pending)")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	st, err := openStore(cfg, false)
	if err != nil {
		exitf(logger, "failed to open store", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := techstack.NewEnricher(st, techstack.NewExtractor(), logger).Run(ctx, enrichLimit)
	if err != nil {
		exitf(logger, "enrichment failed", err)
	}
	printf(cmd, "scanned %d, enriched %d, failed %d\n", res.Scanned, res.Enriched, res.Failed)
	return nil
}
