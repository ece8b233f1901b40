package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobtrack/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a test notification using the configured notifier.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n, closeNotifier, err := setupNotifier(ctx, cfg, httpClient, logger)
	if err != nil {
		exitf(logger, "failed to set up notifier", err)
	}
	defer closeNotifier()

	if err := notifier.SendTestMessage(ctx, n); err != nil {
		exitf(logger, "test notification failed", err)
	}
	logger.Info("test notification sent successfully")
	return nil
}
