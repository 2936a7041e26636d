// Package report drives the external report tool over a merged result
// directory.
//
// The tool is optional tooling on the host: a missing binary downgrades
// report generation to a notice pointing at the raw results, it never
// fails a test run that already produced artifacts.
package report

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/bdrun/bdrun/internal/constants"
	"github.com/bdrun/bdrun/internal/errors"
)

// CommandRunner abstracts report tool execution for testing.
type CommandRunner interface {
	// Run executes the command and returns combined output and any error.
	Run(ctx context.Context, cmd *exec.Cmd) ([]byte, error)
}

// DefaultRunner is the production implementation of CommandRunner.
type DefaultRunner struct{}

// Run executes the command and captures its combined output.
func (r *DefaultRunner) Run(_ context.Context, cmd *exec.Cmd) ([]byte, error) {
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// lookPath is swappable in tests.
//
//nolint:gochecknoglobals // Test seam for binary discovery
var lookPath = exec.LookPath

// Generator produces and serves reports from merged results.
type Generator struct {
	tool   string
	runner CommandRunner
	logger zerolog.Logger
}

// Option is a functional option for configuring a Generator.
type Option func(*Generator)

// WithLogger sets the logger for the Generator.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithRunner sets the command runner (tests use a mock).
func WithRunner(runner CommandRunner) Option {
	return func(g *Generator) {
		g.runner = runner
	}
}

// New creates a Generator for the given report tool binary.
func New(tool string, opts ...Option) *Generator {
	if tool == "" {
		tool = constants.DefaultReportTool
	}
	g := &Generator{
		tool:   tool,
		runner: &DefaultRunner{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Available reports whether the report tool binary is on PATH.
func (g *Generator) Available() bool {
	_, err := lookPath(g.tool)
	return err == nil
}

// Generate renders a static report from mergedDir into reportDir,
// replacing any previous report.
//
// A missing tool binary is not an error: the merged directory location is
// logged so results can be inspected or rendered elsewhere. A tool that
// runs and fails returns an error wrapping errors.ErrReportGeneration;
// callers decide whether that fails the overall command.
func (g *Generator) Generate(ctx context.Context, mergedDir, reportDir string) error {
	if !g.Available() {
		g.logger.Warn().
			Str("tool", g.tool).
			Str("merged_dir", mergedDir).
			Msg("report tool not found on PATH, raw results are available in the merged directory")
		return nil
	}

	cmd := exec.CommandContext(ctx, g.tool, "generate", mergedDir, "--clean", "-o", reportDir) //nolint:gosec // tool binary comes from validated config
	out, err := g.runner.Run(ctx, cmd)
	if err != nil {
		return errors.Wrapf(errors.ErrReportGeneration, "%s generate: %v: %s", g.tool, err, truncate(string(out), 512))
	}

	g.logger.Info().
		Str("report_dir", reportDir).
		Msg("report generated")
	return nil
}

// Serve starts the report tool's embedded web server over mergedDir and
// blocks until the server exits or ctx is canceled. The tool's output is
// passed through so the user sees the local URL it prints.
func (g *Generator) Serve(ctx context.Context, mergedDir string) error {
	if !g.Available() {
		g.logger.Warn().
			Str("tool", g.tool).
			Str("merged_dir", mergedDir).
			Msg("report tool not found on PATH, cannot serve report")
		return errors.Wrapf(errors.ErrReportGeneration, "%s not found on PATH", g.tool)
	}

	cmd := exec.CommandContext(ctx, g.tool, "serve", mergedDir) //nolint:gosec // tool binary comes from validated config
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	g.logger.Info().
		Str("merged_dir", mergedDir).
		Msg("serving report, press Ctrl+C to stop")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			// User stopped the server; that is the normal way out.
			return nil
		}
		return errors.Wrapf(errors.ErrReportGeneration, "%s serve: %v", g.tool, err)
	}
	return nil
}

// truncate shortens s to at most n bytes for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
