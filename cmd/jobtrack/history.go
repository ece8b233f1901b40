package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scrape history",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "rows to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	st, err := openStore(cfg, false)
	if err != nil {
		exitf(logger, "failed to open store", err)
	}
	defer st.Close()

	logs, err := st.ListCycles(context.Background(), historyLimit)
	if err != nil {
		exitf(logger, "failed to list history", err)
	}
	if len(logs) == 0 {
		printf(cmd, "No cycles recorded yet.\n")
		return nil
	}

	printf(cmd, "%-16s %-18s %-8s %6s %5s %8s %8s %9s\n",
		"Started", "Source", "Status", "Found", "New", "Updated", "Removed", "Duration")
	printf(cmd, "%s\n", strings.Repeat("─", 86))
	for _, l := range logs {
		printf(cmd, "%-16s %-18s %-8s %6d %5d %8d %8d %9s\n",
			l.StartedAt.In(cfg.Timezone).Format("2006-01-02 15:04"),
			l.Source, l.Status, l.Found, l.New, l.Updated, l.Removed, l.Duration.Round(10*time.Millisecond))
		if l.Error != "" {
			printf(cmd, "  └ %s\n", l.Error)
		}
	}
	return nil
}
