package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmallari/jobmill/internal/browse"
	"github.com/jmallari/jobmill/internal/model"
	"github.com/jmallari/jobmill/internal/store"
)

var browseSearch string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored jobs interactively (TUI)",
	Long:  "Shows the company picker TUI, then a scrollable list of the active jobs on file.",
	RunE:  runBrowse,
}

func init() {
	browseCmd.Flags().StringVarP(&browseSearch, "search", "s", "", "filter jobs by title or location substring")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	s := openStore(cfg, logger)
	defer s.Close()

	companies, err := s.ListCompanies(context.Background())
	if err != nil {
		logger.Error("failed to list companies", "error", err)
		os.Exit(1)
	}
	if len(companies) == 0 {
		fmt.Println("No companies on file yet. Run `jobmill run` first.")
		return nil
	}

	for {
		choice, err := browse.RunCompanyPicker(companies)
		if err != nil {
			if err == browse.ErrPickerQuit {
				return nil
			}
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}

		title := "All Jobs"
		opts := store.ListJobsOptions{Search: browseSearch, Size: 500}
		if choice != browse.PickAll {
			company := companies[choice]
			title = company.Name
			opts.CompanyID = company.ID
		}

		jobs, err := browse.RunLoader(title, func(ctx context.Context) ([]model.Job, error) {
			jobs, _, err := s.ListJobs(ctx, opts)
			return jobs, err
		})
		if err != nil {
			fmt.Printf("Error loading jobs: %v\n", err)
			continue
		}

		wantQuit, err := browse.RunBrowseTUI(title, jobs)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}
