package domain

import "time"

// WorkerResult captures the outcome of one work item's execution.
// It is produced by the invoker when the worker process terminates and
// owned by the coordinator until aggregation.
type WorkerResult struct {
	// Item is the work item that was executed.
	Item WorkItem `json:"item"`

	// WorkerID is the unique identifier of the invocation that ran the
	// item. It is also the name of the item's result subdirectory.
	WorkerID string `json:"worker_id"`

	// ExitCode is the engine process exit code. Zero means every scenario
	// in the unit passed. A synthetic -1 is recorded for launch failures
	// and timeouts.
	ExitCode int `json:"exit_code"`

	// Duration is the wall-clock time of the invocation.
	Duration time.Duration `json:"duration"`

	// ResultDir is the directory the engine wrote its result artifacts to.
	ResultDir string `json:"result_dir"`

	// Err classifies abnormal completion (launch failure, timeout).
	// Nil for a worker that ran to completion, even with failing tests.
	Err error `json:"-"`

	// ErrMessage mirrors Err for serialized output.
	ErrMessage string `json:"error,omitempty"`
}

// Passed reports whether the item completed with a zero exit code.
func (r WorkerResult) Passed() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// RunOutcome is the aggregate of all worker results for one run.
// Results are keyed by work item identity (input order), not completion
// order, so the outcome is independent of scheduling non-determinism.
type RunOutcome struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`

	// Results holds exactly one entry per work item, in input order.
	Results []WorkerResult `json:"results"`

	// Duration is the wall-clock time of the whole run.
	Duration time.Duration `json:"duration"`
}

// Success reports whether the run as a whole passed: at least one item
// ran and every worker exited with code zero.
func (o *RunOutcome) Success() bool {
	if len(o.Results) == 0 {
		return false
	}
	for _, r := range o.Results {
		if !r.Passed() {
			return false
		}
	}
	return true
}

// Counts returns the number of passed and failed items.
func (o *RunOutcome) Counts() (passed, failed int) {
	for _, r := range o.Results {
		if r.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// Failed returns the results for items that did not pass, in input order.
func (o *RunOutcome) Failed() []WorkerResult {
	var failed []WorkerResult
	for _, r := range o.Results {
		if !r.Passed() {
			failed = append(failed, r)
		}
	}
	return failed
}
