package cmd

import (
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	// Global flags
	configPath string
	tokenFlag  string
	workspace  string
	dryRun     bool
	verbose    bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "javasync",
	Short: "Bulk CircleCI image updater for Java repositories",
	Long: `A CLI tool that walks a list of Git repositories, detects each
project's Java version from its Gradle build, and rewrites the CircleCI
build image to the one matching that version.

This tool keeps CI configuration consistent across a fleet by:
- Cloning or refreshing a working copy of every listed repository
- Reading sourceCompatibility from build.gradle / build.gradle.kts
- Picking the right Docker image for the detected Java version
- Committing and pushing the rewritten .circleci/config.yml`,
}

func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "",
		"GitHub token for clone and push (overrides config and env)")
	rootCmd.PersistentFlags().StringVar(&workspace, "workspace", "",
		"Root directory for working copies (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false,
		"Show what would be done without writing or pushing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
}
