package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/devtrack/internal/collector"
	"github.com/fakeyudi/devtrack/internal/report"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [dir]",
	Short: "Show language and dependency stats for a project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(projectDir(args))
		if err != nil {
			return err
		}
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return fmt.Errorf("not a directory: %s", root)
		}

		cfg := GetConfig()
		filter, err := collector.NewIgnoreFilter(root, cfg.SnapshotDir, cfg.IgnorePatterns)
		if err != nil {
			return err
		}
		result := collector.CollectAll(cmd.Context(), root,
			&collector.LanguageCollector{Filter: filter, Top: cfg.TopLanguages},
			&collector.DependencyCollector{},
		)
		for _, w := range result.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
		report.PrintProject(cmd.OutOrStdout(), root, result.Languages, result.Dependencies)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
