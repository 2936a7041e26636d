package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdrun/bdrun/internal/constants"
	"github.com/bdrun/bdrun/internal/domain"
	"github.com/bdrun/bdrun/internal/errors"
)

// stubInvoker runs a configurable function per item and tracks the number
// of concurrently active executions.
type stubInvoker struct {
	fn func(ctx context.Context, item domain.WorkItem) (domain.WorkerResult, error)

	mu            sync.Mutex
	active        int
	maxActive     int
	executedItems []domain.WorkItem
}

func (s *stubInvoker) Execute(ctx context.Context, item domain.WorkItem) (domain.WorkerResult, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.executedItems = append(s.executedItems, item)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	if s.fn != nil {
		return s.fn(ctx, item)
	}
	return domain.WorkerResult{Item: item, ExitCode: 0}, nil
}

func items(n int) []domain.WorkItem {
	out := make([]domain.WorkItem, n)
	for i := range out {
		out[i] = domain.WorkItem{
			Kind:    domain.KindFeature,
			Feature: fmt.Sprintf("features/f%02d.feature", i),
		}
	}
	return out
}

func TestRunProducesExactlyOneResultPerItem(t *testing.T) {
	stub := &stubInvoker{}
	c := New(stub, 3)

	input := items(7)
	outcome, err := c.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, outcome.Results, 7)

	// Results are keyed by item identity in input order, independent of
	// completion order.
	for i, res := range outcome.Results {
		assert.Equal(t, input[i], res.Item)
	}
	assert.True(t, outcome.Success())
	assert.NotEmpty(t, outcome.RunID)
}

func TestRunRespectsWorkerLimit(t *testing.T) {
	started := make(chan string, 3)
	release := make(chan struct{})
	stub := &stubInvoker{
		fn: func(_ context.Context, item domain.WorkItem) (domain.WorkerResult, error) {
			started <- item.Feature
			<-release
			return domain.WorkerResult{Item: item, ExitCode: 0}, nil
		},
	}
	c := New(stub, 2)

	done := make(chan *domain.RunOutcome, 1)
	go func() {
		outcome, _ := c.Run(context.Background(), items(3))
		done <- outcome
	}()

	// 3 items, 2 workers: exactly 2 start immediately.
	waitForStart(t, started)
	waitForStart(t, started)

	// The 3rd must not start while both slots are busy.
	select {
	case item := <-started:
		t.Fatalf("third item %s started before a slot freed", item)
	case <-time.After(100 * time.Millisecond):
	}

	// Free the slots; the 3rd item now runs.
	close(release)
	waitForStart(t, started)

	outcome := <-done
	require.Len(t, outcome.Results, 3)
	assert.Equal(t, 2, stub.maxActive)
	assert.True(t, outcome.Success())
}

// waitForStart receives one start notification or fails the test.
func waitForStart(t *testing.T, started <-chan string) {
	t.Helper()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a worker to start")
	}
}

func TestRunOutcomeIndependentOfWorkerCount(t *testing.T) {
	// The set of per-item outcomes must not change with parallelism
	// degree, only wall-clock duration.
	failing := map[string]bool{
		"features/f01.feature": true,
		"features/f04.feature": true,
	}
	newStub := func() *stubInvoker {
		return &stubInvoker{
			fn: func(_ context.Context, item domain.WorkItem) (domain.WorkerResult, error) {
				code := 0
				if failing[item.Feature] {
					code = 1
				}
				return domain.WorkerResult{Item: item, ExitCode: code}, nil
			},
		}
	}

	input := items(6)
	for _, workers := range []int{1, 2, 6} {
		outcome, err := New(newStub(), workers).Run(context.Background(), input)
		require.NoError(t, err)
		require.Len(t, outcome.Results, 6)

		for _, res := range outcome.Results {
			assert.Equal(t, failing[res.Item.Feature], !res.Passed(),
				"workers=%d item=%s", workers, res.Item.Feature)
		}
		assert.False(t, outcome.Success())
	}
}

func TestRunLaunchFailureDoesNotAbortBatch(t *testing.T) {
	stub := &stubInvoker{
		fn: func(_ context.Context, item domain.WorkItem) (domain.WorkerResult, error) {
			if item.Feature == "features/f01.feature" {
				return domain.WorkerResult{Item: item}, errors.Wrap(errors.ErrWorkerLaunch, "engine missing")
			}
			return domain.WorkerResult{Item: item, ExitCode: 0}, nil
		},
	}
	c := New(stub, 2)

	outcome, err := c.Run(context.Background(), items(4))
	require.NoError(t, err)
	require.Len(t, outcome.Results, 4)

	assert.False(t, outcome.Success())

	launchFailed := outcome.Results[1]
	assert.Equal(t, constants.LaunchFailureExitCode, launchFailed.ExitCode)
	assert.ErrorIs(t, launchFailed.Err, errors.ErrWorkerLaunch)

	// Every other item still ran and passed.
	for _, idx := range []int{0, 2, 3} {
		assert.True(t, outcome.Results[idx].Passed(), "item %d", idx)
	}
}

func TestRunEmptyItems(t *testing.T) {
	c := New(&stubInvoker{}, 2)

	outcome, err := c.Run(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoUnitsFound)
	assert.False(t, outcome.Success())
}

func TestRunDispatchesInInputOrder(t *testing.T) {
	stub := &stubInvoker{}
	c := New(stub, 1)

	input := items(5)
	_, err := c.Run(context.Background(), input)
	require.NoError(t, err)

	// With a single worker, execution order equals input order.
	require.Len(t, stub.executedItems, 5)
	assert.Equal(t, input, stub.executedItems)
}

func TestRunCancellationPreservesCompletedResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var started atomic.Int64
	stub := &stubInvoker{
		fn: func(ctx context.Context, item domain.WorkItem) (domain.WorkerResult, error) {
			if started.Add(1) == 2 {
				// Simulate a user abort while the second item runs.
				cancel()
			}
			if ctx.Err() != nil {
				return domain.WorkerResult{
					Item:     item,
					ExitCode: constants.LaunchFailureExitCode,
					Err:      ctx.Err(),
				}, nil
			}
			return domain.WorkerResult{Item: item, ExitCode: 0}, nil
		},
	}
	c := New(stub, 1)

	outcome, err := c.Run(ctx, items(4))
	require.NoError(t, err)

	// One result per item even under cancellation.
	require.Len(t, outcome.Results, 4)
	assert.True(t, outcome.Results[0].Passed())
	assert.False(t, outcome.Success())
}

func TestNewClampsWorkers(t *testing.T) {
	c := New(&stubInvoker{}, 0)
	assert.Equal(t, 1, c.workers)
}
