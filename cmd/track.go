package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/devtrack/internal/collector"
	"github.com/fakeyudi/devtrack/internal/config"
	"github.com/fakeyudi/devtrack/internal/report"
	"github.com/fakeyudi/devtrack/internal/session"
	"github.com/fakeyudi/devtrack/internal/watcher"
)

var trackFormat string
var trackOutput string

var trackCmd = &cobra.Command{
	Use:   "track [dir]",
	Short: "Watch a project directory and write a report when interrupted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runTrack(ctx, cmd, projectDir(args))
	},
}

// runTrack watches dir until ctx is done, then builds, saves and prints the
// session report.
func runTrack(ctx context.Context, cmd *cobra.Command, dir string) error {
	cfg := GetConfig()
	format := trackFormat
	if format == "" {
		format = cfg.DefaultFormat
	}
	if !config.ValidFormat(format) {
		return fmt.Errorf("unknown format %q (want one of json, markdown, yaml)", format)
	}
	outputDir := trackOutput
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	sess, err := session.New(dir, session.Options{
		SnapshotDir: cfg.SnapshotDir,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	filter, err := collector.NewIgnoreFilter(sess.Root, cfg.SnapshotDir, cfg.IgnorePatterns)
	if err != nil {
		return err
	}

	w, err := watcher.New(sess.Root, filter, logger)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	files, err := w.AddTree(sess.Root)
	if err != nil {
		return err
	}

	handle := func(ev session.Event) {
		if err := sess.Handle(ev); err != nil {
			logger.Warn("event not fully recorded", "kind", ev.Kind, "path", ev.Path, "error", err)
		}
	}

	// Seed baselines for what is already on disk.
	bar := newProgressBar(len(files), cmd.ErrOrStderr())
	for _, f := range files {
		handle(session.Event{Kind: session.Add, Path: f})
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	logger.Debug("initial scan complete", "files", len(files), "root", sess.Root)

	cmd.Println("Tracking started... Press Ctrl+C to generate report")
	if err := w.Run(ctx, handle); err != nil {
		return err
	}

	cmd.Println()
	cmd.Println("Generating report...")
	result := collector.CollectAll(context.Background(), sess.Root,
		&collector.LanguageCollector{Filter: filter, Top: cfg.TopLanguages},
		&collector.DependencyCollector{},
	)
	r := report.Build(report.Meta{
		SessionID: sess.ID,
		Root:      sess.Root,
		Warnings:  result.Warnings,
	}, sess.Ledger(), sess.Clock(), result.Languages, result.Dependencies)

	path, err := report.Save(r, outputDir, cfg.ReportName, format)
	if err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}
	cmd.Printf("Report saved to %s\n", path)
	report.Print(cmd.OutOrStdout(), r, cfg.TopFiles)
	return nil
}

func newProgressBar(total int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("scanning"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{Saucer: "#", SaucerPadding: " ", BarStart: "|", BarEnd: "|"}),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionFullWidth(),
	)
}

func init() {
	trackCmd.Flags().StringVar(&trackFormat, "format", "", "Report format: json, markdown or yaml (overrides config)")
	trackCmd.Flags().StringVarP(&trackOutput, "output", "o", "", "Directory the report is written to (overrides config)")
	rootCmd.AddCommand(trackCmd)
}
