package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmallari/jobmill/internal/adapter"
	"github.com/jmallari/jobmill/internal/runner"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch and parse every source, exit",
	Long:  "One-shot dry run: fetches each enabled source, parses the payload, prints the record counts, exits. Does not write to the database.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("check mode: nothing will be written to the database")

	fetcher := setupFetcher(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := 0
	for _, src := range cfg.Sources {
		if !src.Enabled {
			continue
		}

		ad, err := adapter.New(src.Kind)
		if err != nil {
			logger.Error("source misconfigured", "source", src.Name, "error", err)
			failed++
			continue
		}

		payload, err := fetcher.Fetch(ctx, src.URL)
		if err != nil {
			logger.Error("fetch failed", "source", src.Name, "error", err)
			failed++
			continue
		}

		records, err := ad.Parse(payload, runner.SourceMetaFor(src))
		if err != nil {
			logger.Error("parse failed", "source", src.Name, "error", err)
			failed++
			continue
		}

		logger.Info("source ok", "source", src.Name, "kind", src.Kind, "records", len(records))
		for _, rec := range records {
			logger.Debug("record", "title", rec.Title, "company", rec.CompanyName, "url", rec.JobURL)
		}
	}

	if failed > 0 {
		logger.Warn("check complete with failures", "failed_sources", failed)
	} else {
		logger.Info("check complete")
	}
	return nil
}
