// Package cli provides the command-line interface for bdrun.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bdrun/bdrun/internal/config"
	"github.com/bdrun/bdrun/internal/domain"
	"github.com/bdrun/bdrun/internal/errors"
	"github.com/bdrun/bdrun/internal/invoker"
	"github.com/bdrun/bdrun/internal/report"
	"github.com/bdrun/bdrun/internal/results"
	"github.com/bdrun/bdrun/internal/runner"
	"github.com/bdrun/bdrun/internal/selector"
	"github.com/bdrun/bdrun/internal/signal"
	"github.com/bdrun/bdrun/internal/tui"
)

// runOptions holds the per-invocation flags of the run command.
type runOptions struct {
	Mode    string
	File    string
	Workers int
	Tags    string
	Timeout time.Duration
	Report  bool
	Serve   bool
	Clean   bool
}

// AddRunCommand adds the run command to the root command.
func AddRunCommand(root *cobra.Command) {
	root.AddCommand(newRunCmd())
}

// newRunCmd creates the run command, the main entry point of bdrun.
func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the test suite in parallel",
		Long: `Run the test suite through the external engine, one engine process
per work item, at most --workers processes at a time.

With --mode features (the default) each feature file is one work item;
with --mode scenarios each scenario is, including every Examples row of
a Scenario Outline. Per-worker result artifacts are merged into one
directory after the run.

Examples:
  bdrun run                              # all features
  bdrun run --mode scenarios --workers 8
  bdrun run --file login.feature --tags @smoke
  bdrun run --clean --report --serve

Exit codes:
  0: every work item passed
  1: at least one work item failed
  2: invalid flags or arguments
  3: items ran but produced no result artifacts`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd.Context(), cmd, os.Stdout, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "work item granularity (features|scenarios)")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "run only this feature file (relative to the features dir)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "maximum concurrent engine processes")
	cmd.Flags().StringVarP(&opts.Tags, "tags", "t", "", "engine tag expression, passed through opaquely")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-item timeout (0 uses the configured default)")
	cmd.Flags().BoolVar(&opts.Report, "report", false, "generate the HTML report after the run")
	cmd.Flags().BoolVar(&opts.Serve, "serve", false, "serve the report after the run (implies --report)")
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "remove previous results and reports before the run")

	return cmd
}

// runRun executes the run command: select, execute, merge, report.
func runRun(ctx context.Context, cmd *cobra.Command, w io.Writer, opts *runOptions) error {
	tui.CheckNoColor()
	outputFormat := cmd.Flag("output").Value.String()
	out := tui.NewOutput(w, outputFormat)
	logger := GetLogger()

	cfg, err := config.LoadWithOverrides(logger.WithContext(ctx), &config.Config{
		Engine: config.EngineConfig{Tags: opts.Tags},
		Runner: config.RunnerConfig{
			Workers: opts.Workers,
			Timeout: opts.Timeout,
			Mode:    opts.Mode,
		},
	})
	if err != nil {
		return err
	}

	// Ctrl+C cancels the run context; running workers are SIGTERMed and
	// whatever completed is still merged below.
	handler := signal.NewHandler(ctx)
	defer handler.Stop()
	ctx = handler.Context()

	aggregator := results.New(logger)
	if opts.Clean {
		if err := aggregator.Clean(cfg.Paths.ResultsDir, cfg.Paths.MergedDir, cfg.Paths.ReportDir); err != nil {
			return err
		}
	}

	items, err := selector.New(logger).Select(cfg.Runner.Mode, cfg.Paths.FeaturesDir, opts.File)
	if err != nil {
		return err
	}
	out.Info(fmt.Sprintf("running %d work items with %d workers", len(items), cfg.Runner.Workers))

	coordinator := runner.New(
		invoker.New(cfg, invoker.WithLogger(logger)),
		cfg.Runner.Workers,
		runner.WithLogger(logger),
	)
	outcome, err := coordinator.Run(ctx, items)
	if err != nil {
		return err
	}

	// Merge even after an interrupted run so partial results survive.
	mergedCount, mergeErr := aggregator.Merge(cfg.Paths.ResultsDir, cfg.Paths.MergedDir)

	generator := report.New(cfg.Report.Tool, report.WithLogger(logger))
	if (opts.Report || opts.Serve) && mergeErr == nil {
		// Report generation is best-effort and never changes the verdict.
		if genErr := generator.Generate(ctx, cfg.Paths.MergedDir, cfg.Paths.ReportDir); genErr != nil {
			out.Warning(genErr.Error())
		}
	}

	renderOutcome(w, out, outputFormat, outcome, mergedCount)

	if opts.Serve && mergeErr == nil {
		if serveErr := generator.Serve(ctx, cfg.Paths.MergedDir); serveErr != nil {
			out.Warning(serveErr.Error())
		}
	}

	if mergeErr != nil {
		out.Error(mergeErr)
		return mergeErr
	}

	passed, failed := outcome.Counts()
	if !outcome.Success() {
		return errors.Wrapf(errors.ErrRunFailed, "%d of %d work items failed", failed, len(outcome.Results))
	}
	out.Success(fmt.Sprintf("all %d work items passed", passed))
	return nil
}

// runSummary is the JSON shape of a finished run.
type runSummary struct {
	RunID       string          `json:"run_id"`
	Passed      int             `json:"passed"`
	Failed      int             `json:"failed"`
	Total       int             `json:"total"`
	Duration    string          `json:"duration"`
	MergedFiles int             `json:"merged_files"`
	Results     []runItemResult `json:"results"`
}

// runItemResult is one work item's outcome in the JSON summary.
type runItemResult struct {
	Item     string `json:"item"`
	Passed   bool   `json:"passed"`
	ExitCode int    `json:"exit_code"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// renderOutcome writes the per-item summary in the selected format.
func renderOutcome(w io.Writer, out tui.Output, format string, outcome *domain.RunOutcome, mergedCount int) {
	if format != OutputJSON {
		tui.NewSummary(w).Render(outcome)
		return
	}

	passed, failed := outcome.Counts()
	summary := runSummary{
		RunID:       outcome.RunID,
		Passed:      passed,
		Failed:      failed,
		Total:       len(outcome.Results),
		Duration:    outcome.Duration.String(),
		MergedFiles: mergedCount,
		Results:     make([]runItemResult, 0, len(outcome.Results)),
	}
	for _, res := range outcome.Results {
		summary.Results = append(summary.Results, runItemResult{
			Item:     res.Item.Location(),
			Passed:   res.Passed(),
			ExitCode: res.ExitCode,
			Duration: res.Duration.String(),
			Error:    res.ErrMessage,
		})
	}
	_ = out.JSON(summary)
}
