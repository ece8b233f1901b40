package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured sources",
	Long:  "Reads the config and prints a table of all configured job board feeds.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	printf(cmd, "%-20s %-10s %-9s %s\n", "Source", "Kind", "Status", "Feed")
	printf(cmd, "%s\n", strings.Repeat("─", 70))

	enabled, disabled := 0, 0
	for _, s := range cfg.Sources {
		status := "enabled"
		if !s.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		printf(cmd, "%-20s %-10s %-9s %s\n", s.Name, s.Kind, status, s.URL)
	}

	printf(cmd, "\n%d sources (%d enabled, %d disabled)\n", enabled+disabled, enabled, disabled)
	return nil
}
