// Package cli provides the command-line interface for bdrun.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bdrun/bdrun/internal/config"
	"github.com/bdrun/bdrun/internal/selector"
	"github.com/bdrun/bdrun/internal/tui"
)

// AddListCommand adds the list command to the root command.
func AddListCommand(root *cobra.Command) {
	root.AddCommand(newListCmd())
}

// newListCmd creates the list command for previewing a run's work items.
func newListCmd() *cobra.Command {
	var mode string
	var file string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the work items a run would execute",
		Long: `List the work items a run would schedule, without executing anything.
Useful for checking how a suite partitions before committing to a run.

Examples:
  bdrun list                       # one item per feature file
  bdrun list --mode scenarios      # one item per scenario
  bdrun list --file login.feature`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), cmd, os.Stdout, mode, file)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "work item granularity (features|scenarios)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "list only this feature file")

	return cmd
}

// runList executes the list command.
func runList(ctx context.Context, cmd *cobra.Command, w io.Writer, mode, file string) error {
	outputFormat := cmd.Flag("output").Value.String()
	out := tui.NewOutput(w, outputFormat)
	logger := GetLogger()

	cfg, err := config.LoadWithOverrides(logger.WithContext(ctx), &config.Config{
		Runner: config.RunnerConfig{Mode: mode},
	})
	if err != nil {
		return err
	}

	items, err := selector.New(logger).Select(cfg.Runner.Mode, cfg.Paths.FeaturesDir, file)
	if err != nil {
		return err
	}

	if outputFormat == OutputJSON {
		locations := make([]string, 0, len(items))
		for _, item := range items {
			locations = append(locations, item.Location())
		}
		return out.JSON(map[string]any{
			"mode":  cfg.Runner.Mode,
			"count": len(items),
			"items": locations,
		})
	}

	for _, item := range items {
		_, _ = fmt.Fprintln(w, item.String())
	}
	out.Info(fmt.Sprintf("%d work items in %s mode", len(items), cfg.Runner.Mode))
	return nil
}
