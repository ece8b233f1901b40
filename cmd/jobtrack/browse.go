package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobtrack/internal/browse"
	"github.com/amishk599/jobtrack/internal/filter"
	"github.com/amishk599/jobtrack/internal/model"
)

// browseLimit caps how many active jobs the TUI loads at once.
const browseLimit = 2000

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse active jobs interactively (TUI)",
	Long:  "Shows the category picker, then the two-pane view of active jobs and today's new jobs.",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	st, err := openStore(cfg, false)
	if err != nil {
		exitf(logger, "failed to open store", err)
	}
	defer st.Close()

	ctx := context.Background()
	categories, err := st.Categories(ctx)
	if err != nil {
		exitf(logger, "failed to list categories", err)
	}
	stats, err := st.Stats(ctx)
	if err != nil {
		exitf(logger, "failed to load stats", err)
	}
	counts := make(map[string]int, len(stats.ByCategory)+1)
	for _, c := range stats.ByCategory {
		counts[c.Label] = c.Count
	}
	counts[browse.AllCategories] = stats.TotalActive

	for {
		category, ok, err := browse.RunCategoryPicker(categories, counts)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		label := "active jobs"
		if category != "" {
			label = fmt.Sprintf("%s jobs", category)
		}
		jobs, err := browse.RunLoader(label, func(ctx context.Context) ([]model.Job, error) {
			jobs, _, err := st.ListActive(ctx, filter.ActiveJobs{Category: category}, browseLimit, 0)
			return jobs, err
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Printf("Error loading jobs: %v\n", err)
			continue
		}

		if err := browse.Run(jobs, category, cfg.Timezone); err != nil {
			return err
		}
	}
}
