// Package runner schedules work items across a bounded pool of worker
// processes and aggregates their outcomes.
//
// The coordinator is plain control logic: the pool is an errgroup with a
// concurrency limit, dispatch is FIFO over the input sequence, and each
// completion slot is owned by exactly one goroutine, so no locking is
// needed beyond the group itself.
package runner

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bdrun/bdrun/internal/clock"
	"github.com/bdrun/bdrun/internal/constants"
	"github.com/bdrun/bdrun/internal/domain"
	"github.com/bdrun/bdrun/internal/errors"
)

// Invoker executes a single work item end-to-end.
// It is implemented by invoker.Invoker; tests provide stubs.
type Invoker interface {
	// Execute runs one work item and returns its result. An error is
	// returned only for launch failures; the returned result still
	// carries the synthetic exit code for recording.
	Execute(ctx context.Context, item domain.WorkItem) (domain.WorkerResult, error)
}

// Coordinator owns a fixed-size pool of concurrent worker slots.
type Coordinator struct {
	invoker Invoker
	workers int
	clk     clock.Clock
	logger  zerolog.Logger
}

// Option is a functional option for configuring a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger for the Coordinator.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithClock sets the clock used for run duration measurement.
func WithClock(clk clock.Clock) Option {
	return func(c *Coordinator) {
		c.clk = clk
	}
}

// New creates a Coordinator running at most workers items concurrently.
// A workers value below 1 is clamped to 1.
func New(invoker Invoker, workers int, opts ...Option) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	c := &Coordinator{
		invoker: invoker,
		workers: workers,
		clk:     clock.RealClock{},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes every work item and blocks until each has produced a
// WorkerResult: no duplicates, no silently dropped items.
//
// Items are dispatched in input order as slots free up; completion order
// is unconstrained, so results are recorded by item index rather than
// completion order. A launch failure for one item is recorded as a failed
// result and never aborts the rest of the batch. There is no retry: a
// failed scenario is a recorded outcome.
//
// On context cancellation, running workers are terminated by the invoker
// and remaining items are recorded as canceled failures, preserving the
// one-result-per-item invariant for partial aggregation.
func (c *Coordinator) Run(ctx context.Context, items []domain.WorkItem) (*domain.RunOutcome, error) {
	outcome := &domain.RunOutcome{
		RunID:   uuid.NewString(),
		Results: make([]domain.WorkerResult, len(items)),
	}
	if len(items) == 0 {
		return outcome, errors.ErrNoUnitsFound
	}

	c.logger.Info().
		Str("run_id", outcome.RunID).
		Int("items", len(items)).
		Int("workers", c.workers).
		Msg("starting run")

	start := c.clk.Now()

	var g errgroup.Group
	g.SetLimit(c.workers)

	for idx, item := range items {
		// Go blocks while all slots are busy; this is the FIFO dispatch
		// point ("wait for a free slot").
		g.Go(func() error {
			outcome.Results[idx] = c.runOne(ctx, item)
			return nil
		})
	}

	// Goroutines never return errors; failures live in the results.
	_ = g.Wait()

	outcome.Duration = c.clk.Since(start)

	passed, failed := outcome.Counts()
	c.logger.Info().
		Str("run_id", outcome.RunID).
		Int("passed", passed).
		Int("failed", failed).
		Dur("duration", outcome.Duration).
		Msg("run finished")

	return outcome, nil
}

// runOne executes a single item and classifies the outcome for recording.
func (c *Coordinator) runOne(ctx context.Context, item domain.WorkItem) domain.WorkerResult {
	c.logger.Info().
		Str("item", item.Location()).
		Msg("running")

	result, err := c.invoker.Execute(ctx, item)
	if err != nil {
		// Launch failure: record a synthetic failed result, surface it in
		// the summary, keep scheduling the rest.
		result.Item = item
		if result.ExitCode == 0 {
			result.ExitCode = constants.LaunchFailureExitCode
		}
		if result.Err == nil {
			result.Err = err
			result.ErrMessage = err.Error()
		}
		c.logger.Error().
			Err(err).
			Str("item", item.Location()).
			Msg("worker launch failed")
		return result
	}

	event := c.logger.Info()
	if !result.Passed() {
		event = c.logger.Warn()
	}
	event.
		Str("item", item.Location()).
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration).
		Bool("passed", result.Passed()).
		Msg("completed")

	return result
}
