package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/devtrack/internal/report"
	"github.com/fakeyudi/devtrack/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "View a saved session report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		r, err := report.Load(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		if plainOutput || !term.IsTerminal(os.Stdout.Fd()) {
			report.Print(cmd.OutOrStdout(), r, GetConfig().TopFiles)
			return nil
		}
		return tui.Run(r, path)
	},
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain table output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
