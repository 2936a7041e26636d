// Package invoker launches the external test engine for one work item.
//
// Each invocation is an isolated OS process: the browser driver inside the
// engine is not safely shared across concurrent logical test runs, so a
// crash or hang in one unit cannot corrupt another's state. The engine's
// result writer is pointed at a subdirectory unique to the invocation, so
// concurrently running workers never write to the same files.
//
// IMPORTANT: This package may import internal/clock, internal/config,
// internal/constants, internal/domain, internal/errors, and
// internal/logging. It MUST NOT import internal/runner or internal/cli.
package invoker

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bdrun/bdrun/internal/clock"
	"github.com/bdrun/bdrun/internal/config"
	"github.com/bdrun/bdrun/internal/constants"
	"github.com/bdrun/bdrun/internal/domain"
	bdrunerrors "github.com/bdrun/bdrun/internal/errors"
	"github.com/bdrun/bdrun/internal/logging"
)

// CommandExecutor abstracts command execution for testing.
// The production implementation uses exec.Cmd to run subprocesses,
// while tests can provide a mock implementation.
//
// The ctx parameter is included for interface consistency; the production
// implementation embeds context via exec.CommandContext(). Mock
// implementations may use ctx to simulate cancellation behavior.
type CommandExecutor interface {
	// Execute runs the command and returns stdout, stderr, and any error.
	Execute(ctx context.Context, cmd *exec.Cmd) (stdout, stderr []byte, err error)
}

// DefaultExecutor is the production implementation of CommandExecutor.
type DefaultExecutor struct{}

// Execute runs the command and captures its output.
func (e *DefaultExecutor) Execute(_ context.Context, cmd *exec.Cmd) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Invoker executes work items via the external test engine.
type Invoker struct {
	cfg      *config.Config
	executor CommandExecutor
	clk      clock.Clock
	logger   zerolog.Logger
	seq      atomic.Int64
}

// Option is a functional option for configuring an Invoker.
type Option func(*Invoker)

// WithLogger sets the logger for the Invoker.
func WithLogger(logger zerolog.Logger) Option {
	return func(i *Invoker) {
		i.logger = logger
	}
}

// WithClock sets the clock used for duration measurement.
func WithClock(clk clock.Clock) Option {
	return func(i *Invoker) {
		i.clk = clk
	}
}

// WithExecutor sets the command executor (tests use a mock).
func WithExecutor(executor CommandExecutor) Option {
	return func(i *Invoker) {
		i.executor = executor
	}
}

// New creates an Invoker with the given configuration.
func New(cfg *config.Config, opts ...Option) *Invoker {
	inv := &Invoker{
		cfg:      cfg,
		executor: &DefaultExecutor{},
		clk:      clock.RealClock{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Execute runs one work item to completion and returns its result.
//
// A failing test is a non-zero ExitCode in the result, not an error.
// An error is returned only when the engine process could not be started
// at all; such errors wrap errors.ErrWorkerLaunch. A timed-out worker is
// force-terminated and recorded as a failed result with the
// errors.ErrWorkerTimeout cause.
func (i *Invoker) Execute(ctx context.Context, item domain.WorkItem) (domain.WorkerResult, error) {
	workerID := i.nextWorkerID()
	result := domain.WorkerResult{
		Item:      item,
		WorkerID:  workerID,
		ResultDir: i.resultDir(workerID),
	}

	if err := os.MkdirAll(result.ResultDir, 0o750); err != nil {
		return result, bdrunerrors.Wrapf(bdrunerrors.ErrWorkerLaunch, "cannot create result dir %s: %v", result.ResultDir, err)
	}

	runCtx := ctx
	if i.cfg.Runner.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, i.cfg.Runner.Timeout)
		defer cancel()
	}

	cmd := i.buildCommand(runCtx, item, workerID, result.ResultDir)
	i.logger.Debug().
		Str("worker_id", workerID).
		Str("item", item.Location()).
		Str("command", logging.FilterCredentials(strings.Join(cmd.Args, " "))).
		Msg("launching worker")

	start := i.clk.Now()
	_, stderr, err := i.executor.Execute(runCtx, cmd)
	result.Duration = i.clk.Since(start)

	return i.classify(ctx, runCtx, result, cmd, stderr, err)
}

// classify maps the executor outcome onto the result state machine:
// completed(ok), completed(failed), timeout, or launch failure.
func (i *Invoker) classify(ctx, runCtx context.Context, result domain.WorkerResult, cmd *exec.Cmd, stderr []byte, err error) (domain.WorkerResult, error) {
	if cmd.Process != nil {
		i.logger.Debug().
			Str("worker_id", result.WorkerID).
			Int("pid", cmd.Process.Pid).
			Dur("duration", result.Duration).
			Msg("worker exited")
	}

	switch {
	case err == nil:
		result.ExitCode = 0
		return result, nil

	case runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
		// The per-item timeout fired; the process was SIGTERMed and, after
		// the kill delay, killed. Recorded as failed, never retried.
		result.ExitCode = constants.LaunchFailureExitCode
		result.Err = bdrunerrors.ErrWorkerTimeout
		result.ErrMessage = bdrunerrors.ErrWorkerTimeout.Error()
		i.logger.Warn().
			Str("item", result.Item.Location()).
			Dur("timeout", i.cfg.Runner.Timeout).
			Msg("worker timed out")
		return result, nil

	case ctx.Err() != nil:
		// User abort: the run context was canceled and the process
		// terminated. Preserved as a failed result for partial aggregation.
		result.ExitCode = constants.LaunchFailureExitCode
		result.Err = ctx.Err()
		result.ErrMessage = ctx.Err().Error()
		return result, nil

	default:
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			// The engine ran and reported failing scenarios.
			result.ExitCode = exitErr.ExitCode()
			i.logger.Debug().
				Str("item", result.Item.Location()).
				Int("exit_code", result.ExitCode).
				Str("stderr", truncate(string(stderr), 512)).
				Msg("worker completed with failures")
			return result, nil
		}

		// The process never started (binary missing, bad arguments).
		result.ExitCode = constants.LaunchFailureExitCode
		launchErr := bdrunerrors.Wrapf(bdrunerrors.ErrWorkerLaunch, "%s: %v", i.cfg.Engine.Binary, err)
		result.Err = launchErr
		result.ErrMessage = launchErr.Error()
		return result, launchErr
	}
}

// buildCommand constructs the engine command for one work item.
// Browser choice, headless flag, and grid settings are engine concerns
// that travel through the inherited environment untouched; the only
// variable bdrun adds is the worker identity.
func (i *Invoker) buildCommand(ctx context.Context, item domain.WorkItem, workerID, resultDir string) *exec.Cmd {
	args := []string{item.Location()}
	args = append(args, i.cfg.Engine.BaseArgs...)
	if i.cfg.Engine.Tags != "" {
		args = append(args, "--tags", i.cfg.Engine.Tags)
	}
	args = append(args, "--format", i.cfg.Engine.Formatter, "-o", resultDir)

	cmd := exec.CommandContext(ctx, i.cfg.Engine.Binary, args...) //nolint:gosec // engine binary comes from validated config
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%s", constants.WorkerIDEnvVar, workerID))

	// SIGTERM first so the engine can shut its browser down, kill after
	// the delay if it does not exit.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = constants.WorkerKillDelay

	return cmd
}

// nextWorkerID returns a result-directory-safe unique invocation ID.
// The sequence keeps directories listable in dispatch order; the UUID
// suffix guarantees uniqueness across runs sharing a result root.
func (i *Invoker) nextWorkerID() string {
	seq := i.seq.Add(1)
	return fmt.Sprintf("worker-%03d-%s", seq, uuid.NewString()[:8])
}

// resultDir returns the artifact directory for one invocation.
func (i *Invoker) resultDir(workerID string) string {
	return filepath.Join(i.cfg.Paths.ResultsDir, workerID)
}

// truncate shortens s to at most n bytes for log output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
