package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devarsh10/javasync/application"
	"github.com/devarsh10/javasync/config"
	"github.com/devarsh10/javasync/domain"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	workersFlag int
	reportFlag  string
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var runCmd = &cobra.Command{
	Use:   "run [repository-list]",
	Short: "Update the CircleCI image across every listed repository",
	Long: `Walk the repository list, detect each project's Java version,
rewrite its CircleCI build image, and push the change.

This is the main command intended to be used from a cronjob. Each
repository is processed independently: a broken clone, an unreadable
build file, or a rejected push never stops the rest of the batch.
The repository list argument overrides the path from the config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpdate,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	runCmd.Flags().IntVar(&workersFlag, "workers", 0,
		"Concurrent pipelines (overrides config; 1 = sequential)")
	runCmd.Flags().StringVar(&reportFlag, "report", "",
		"Write a JSON report of all results to this path")
	rootCmd.AddCommand(runCmd)
}

func runUpdate(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Repositories = args[0]
	}
	if workersFlag > 0 {
		cfg.Workers = workersFlag
	}
	if reportFlag != "" {
		cfg.Report = reportFlag
	}

	entries, err := config.LoadRepositoryList(cfg.Repositories)
	if err != nil {
		return fmt.Errorf("failed to load repository list: %w", err)
	}
	logger.Infof("Loaded %d repositories from %s", len(entries), cfg.Repositories)

	service, err := buildService(cfg)
	if err != nil {
		return err
	}

	logger.Info("Starting javasync run...")

	results := service.Run(ctx, entries, application.RunOptions{
		DryRun:         dryRun,
		Verbose:        verbose,
		Workers:        cfg.Workers,
		CleanWorkspace: cfg.CleanWorkspace,
	})

	printSummary(results)

	if cfg.Report != "" {
		if reportErr := writeReport(cfg.Report, results); reportErr != nil {
			return reportErr
		}
		logger.Infof("Report written to %s", cfg.Report)
	}

	if summary := domain.Summarize(results); summary.Failed > 0 {
		return fmt.Errorf("%d of %d repositories failed", summary.Failed, len(results))
	}
	return nil
}

// loadConfig resolves the config file, parses it, and applies flag and
// environment overrides on top.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.FindConfigFile()
		if err != nil {
			return nil, fmt.Errorf(
				"no config file found: %w\nSpecify one with --config or create .javasync.yaml",
				err,
			)
		}
	}

	logger.Infof("Using config file: %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if tokenFlag != "" {
		cfg.Token = config.ResolveToken(tokenFlag)
	}
	if cfg.Token == "" {
		cfg.Token = config.TokenFromEnv()
	}
	if workspace != "" {
		cfg.Workspace = workspace
	}

	return cfg, nil
}

func printSummary(results []domain.RunResult) {
	for _, result := range results {
		line := fmt.Sprintf("%-9s %s@%s", result.Status, result.Repository, result.Branch)
		if result.Reason != "" {
			line += " (" + result.Reason + ")"
		}
		switch result.Status {
		case domain.StatusFailed:
			logger.Error(line)
		case domain.StatusSkipped:
			logger.Warn(line)
		default:
			logger.Info(line)
		}
	}

	summary := domain.Summarize(results)
	logger.Infof("Done: %d updated, %d unchanged, %d skipped, %d failed",
		summary.Updated, summary.Unchanged, summary.Skipped, summary.Failed)
}

// report is the JSON document written by --report.
type report struct {
	Summary domain.Summary     `json:"summary"`
	Results []domain.RunResult `json:"results"`
}

func writeReport(path string, results []domain.RunResult) error {
	data, err := json.MarshalIndent(report{
		Summary: domain.Summarize(results),
		Results: results,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if writeErr := os.WriteFile(path, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write report %q: %w", path, writeErr)
	}
	return nil
}
