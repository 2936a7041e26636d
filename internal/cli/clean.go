// Package cli provides the command-line interface for bdrun.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bdrun/bdrun/internal/config"
	"github.com/bdrun/bdrun/internal/results"
	"github.com/bdrun/bdrun/internal/tui"
)

// AddCleanCommand adds the clean command to the root command.
func AddCleanCommand(root *cobra.Command) {
	root.AddCommand(newCleanCmd())
}

// newCleanCmd creates the clean command for removing run output.
func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove result and report directories",
		Long: `Remove the per-worker result directory, the merged result directory,
and the generated report directory. Missing directories are skipped.

The run command's --clean flag does the same thing before a run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClean(cmd.Context(), cmd, os.Stdout)
		},
	}

	return cmd
}

// runClean executes the clean command.
func runClean(ctx context.Context, cmd *cobra.Command, w io.Writer) error {
	outputFormat := cmd.Flag("output").Value.String()
	out := tui.NewOutput(w, outputFormat)
	logger := GetLogger()

	cfg, err := config.Load(logger.WithContext(ctx))
	if err != nil {
		return err
	}

	if err := results.New(logger).Clean(cfg.Paths.ResultsDir, cfg.Paths.MergedDir, cfg.Paths.ReportDir); err != nil {
		return err
	}

	out.Success("removed result and report directories")
	return nil
}
