// Package cli provides the command-line interface for bdrun.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bdrun/bdrun/internal/config"
	"github.com/bdrun/bdrun/internal/report"
	"github.com/bdrun/bdrun/internal/tui"
)

// AddReportCommand adds the report command to the root command.
func AddReportCommand(root *cobra.Command) {
	root.AddCommand(newReportCmd())
}

// newReportCmd creates the report command for (re)generating the HTML
// report from already-merged results.
func newReportCmd() *cobra.Command {
	var serve bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the HTML report from merged results",
		Long: `Generate the HTML report from the merged result directory, replacing
any previous report. With --serve the report tool's embedded web server
is started instead and blocks until interrupted.

The report tool must be on PATH; if it is missing, the merged result
directory location is printed so results can be rendered elsewhere.

Examples:
  bdrun report           # write the static report
  bdrun report --serve   # serve it on a local port`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), cmd, os.Stdout, serve)
		},
	}

	cmd.Flags().BoolVar(&serve, "serve", false, "serve the report instead of writing a static one")

	return cmd
}

// runReport executes the report command.
func runReport(ctx context.Context, cmd *cobra.Command, w io.Writer, serve bool) error {
	outputFormat := cmd.Flag("output").Value.String()
	out := tui.NewOutput(w, outputFormat)
	logger := GetLogger()

	cfg, err := config.Load(logger.WithContext(ctx))
	if err != nil {
		return err
	}

	generator := report.New(cfg.Report.Tool, report.WithLogger(logger))

	if serve {
		return generator.Serve(ctx, cfg.Paths.MergedDir)
	}

	if err := generator.Generate(ctx, cfg.Paths.MergedDir, cfg.Paths.ReportDir); err != nil {
		return err
	}
	if !generator.Available() {
		out.Warning(fmt.Sprintf("report tool %q not found, raw results are in %s", cfg.Report.Tool, cfg.Paths.MergedDir))
		return nil
	}
	out.Success(fmt.Sprintf("report written to %s", cfg.Paths.ReportDir))
	return nil
}
