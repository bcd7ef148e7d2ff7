package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devarsh10/javasync/config"
	"github.com/devarsh10/javasync/infrastructure/gitrepo"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var outputFormat string

//nolint:gochecknoglobals // required by cobra CLI pattern
var listCmd = &cobra.Command{
	Use:   "list [repository-list]",
	Short: "Show the parsed repository list",
	Long: `Parse the repository list (.csv or .ini) and print every entry the
way the run command would see it, including resolved branch columns.
Useful for checking a list before pointing a batch run at it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	listCmd.Flags().StringVar(&outputFormat, "output", "table", "Output format: table or json")
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, args []string) error {
	if outputFormat != "table" && outputFormat != "json" {
		return fmt.Errorf("unsupported output format %q (want table or json)", outputFormat)
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Repositories
	}

	entries, err := config.LoadRepositoryList(path)
	if err != nil {
		return fmt.Errorf("failed to load repository list: %w", err)
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	nameW := len("Repository")
	urlW := len("URL")
	for _, entry := range entries {
		if n := len(gitrepo.RepositoryName(entry.URL)); n > nameW {
			nameW = n
		}
		if n := len(entry.URL); n > urlW {
			urlW = n
		}
	}

	fmt.Printf("%-*s  %-*s  %s\n", nameW, "Repository", urlW, "URL", "Branch")
	for _, entry := range entries {
		branch := entry.Branch
		if branch == "" {
			branch = "(default)"
		}
		fmt.Printf("%-*s  %-*s  %s\n",
			nameW, gitrepo.RepositoryName(entry.URL),
			urlW, entry.URL,
			branch)
	}
	fmt.Printf("\nTotal: %d repositories\n", len(entries))
	return nil
}
