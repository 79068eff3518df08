package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmallari/jobmill/internal/config"
	"github.com/jmallari/jobmill/internal/fetch"
	"github.com/jmallari/jobmill/internal/model"
	"github.com/jmallari/jobmill/internal/notifier"
	"github.com/jmallari/jobmill/internal/reconcile"
	"github.com/jmallari/jobmill/internal/runner"
	"github.com/jmallari/jobmill/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobmill",
	Short: "Job-posting ingestion pipeline",
	Long:  "Jobmill pulls postings from configured job boards, normalizes them, and keeps a local database of companies and jobs.",
	// Default to `start` so that `jobmill` with no args runs the daemon.
	// This preserves compatibility with systemd unit files that invoke the binary directly.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBMILL_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBMILL_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBMILL_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func setupFetcher(cfg *config.Config, logger *slog.Logger) *fetch.Client {
	httpClient := &http.Client{Timeout: cfg.Fetch.Timeout}
	return fetch.NewClient(httpClient, fetch.Options{
		MaxRetries: cfg.Fetch.MaxRetries,
		BaseDelay:  cfg.Fetch.RetryBaseDelay,
		PerHostRPS: cfg.Fetch.PerHostRPS,
		Burst:      cfg.Fetch.Burst,
	}, logger)
}

// buildCoordinator wires the full ingestion pipeline over the given store.
func buildCoordinator(cfg *config.Config, s *store.SQLiteStore, n model.Notifier, logger *slog.Logger) *runner.Coordinator {
	fetcher := setupFetcher(cfg, logger)
	rec := reconcile.New(s, logger)
	sr := runner.NewSourceRunner(fetcher, rec, logger)
	return runner.NewCoordinator(sr, n, cfg.Fetch.Concurrency, logger)
}

func openStore(cfg *config.Config, logger *slog.Logger) *store.SQLiteStore {
	s, err := store.NewSQLiteStore(cfg.Database)
	if err != nil {
		logger.Error("failed to open store", "error", err, "path", cfg.Database)
		os.Exit(1)
	}
	return s
}
