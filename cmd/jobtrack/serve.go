package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobtrack/internal/api"
	"github.com/amishk599/jobtrack/internal/metrics"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read API without ingesting",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: api.listen_addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	st, err := openStore(cfg, false)
	if err != nil {
		exitf(logger, "failed to open store", err)
	}
	defer st.Close()

	addr := cfg.API.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mw := metrics.NewMiddleware()
	registerCollectors(mw, logger)
	if err := api.NewServer(addr, api.NewRouter(st, mw, logger), logger).Run(ctx); err != nil {
		exitf(logger, "api server error", err)
	}
	return nil
}

func registerCollectors(mw *metrics.Middleware, logger *slog.Logger) {
	for _, c := range mw.Collectors() {
		if err := prometheus.Register(c); err != nil {
			logger.Warn("registering request metrics", "error", err)
		}
	}
}
