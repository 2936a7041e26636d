// Package cli provides the command-line interface for bdrun.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bdrun/bdrun/internal/config"
	"github.com/bdrun/bdrun/internal/results"
	"github.com/bdrun/bdrun/internal/tui"
)

// AddMergeCommand adds the merge command to the root command.
func AddMergeCommand(root *cobra.Command) {
	root.AddCommand(newMergeCmd())
}

// newMergeCmd creates the merge command for consolidating result
// artifacts without running anything.
func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge per-worker result artifacts into one directory",
		Long: `Merge the per-worker result artifact subdirectories into the unified
result directory the report tool reads. The run command does this
automatically; merge exists to redo it by hand, for example after
copying result directories from another machine.

Exit codes:
  0: artifacts merged
  1: general error
  3: no result artifacts found`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMerge(cmd.Context(), cmd, os.Stdout)
		},
	}

	return cmd
}

// runMerge executes the merge command.
func runMerge(ctx context.Context, cmd *cobra.Command, w io.Writer) error {
	outputFormat := cmd.Flag("output").Value.String()
	out := tui.NewOutput(w, outputFormat)
	logger := GetLogger()

	cfg, err := config.Load(logger.WithContext(ctx))
	if err != nil {
		return err
	}

	count, err := results.New(logger).Merge(cfg.Paths.ResultsDir, cfg.Paths.MergedDir)
	if err != nil {
		return err
	}

	if outputFormat == OutputJSON {
		return out.JSON(map[string]any{
			"merged_files": count,
			"merged_dir":   cfg.Paths.MergedDir,
		})
	}
	out.Success(fmt.Sprintf("merged %d result files into %s", count, cfg.Paths.MergedDir))
	return nil
}
