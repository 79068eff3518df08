package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one ingestion pass and exit",
	Long:  "Fetches every enabled source once, reconciles the results into the database, and exits.",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	s := openStore(cfg, logger)
	defer s.Close()

	httpClient := &http.Client{Timeout: cfg.Fetch.Timeout}
	n := setupNotifier(cfg, httpClient, logger)
	coordinator := buildCoordinator(cfg, s, n, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary := coordinator.Run(ctx, cfg.Sources)
	if failed := summary.FailedSources(); len(failed) > 0 {
		for _, r := range failed {
			logger.Error("source failed", "source", r.Source, "error", r.Err)
		}
	}
	return nil
}
