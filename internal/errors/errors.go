// Package errors provides centralized error handling for bdrun.
//
// This package defines sentinel errors used for programmatic error
// categorization throughout the application. All error types can be
// checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrNoUnitsFound indicates that work item selection produced zero
	// items. This is fatal to the invocation, never treated as success.
	ErrNoUnitsFound = errors.New("no work items found")

	// ErrWorkerLaunch indicates that a worker process could not be started
	// at all (engine binary missing, invalid arguments). A failing test is
	// a non-zero exit code, not a launch error.
	ErrWorkerLaunch = errors.New("worker launch failed")

	// ErrWorkerTimeout indicates that a worker exceeded its allotted time
	// and was force-terminated.
	ErrWorkerTimeout = errors.New("worker timed out")

	// ErrRunFailed indicates that at least one work item failed. The
	// per-item outcomes are in the run summary; this sentinel only carries
	// the overall verdict to the exit code.
	ErrRunFailed = errors.New("test run failed")

	// ErrNoResults indicates that aggregation found zero result artifacts
	// although work items were executed. This signals a defect in the
	// engine/report wiring rather than a test failure.
	ErrNoResults = errors.New("no result artifacts found")

	// ErrReportGeneration indicates that the external report tool failed.
	// Report generation is best-effort and never changes the run's
	// pass/fail exit code.
	ErrReportGeneration = errors.New("report generation failed")

	// ErrFeatureParse indicates that a feature file could not be parsed
	// during scenario enumeration.
	ErrFeatureParse = errors.New("feature file parse failed")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrInvalidMode indicates an unknown selection mode.
	ErrInvalidMode = errors.New("invalid selection mode")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrValueOutOfRange indicates that a configuration value is outside
	// the allowed range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrEmptyValue indicates that a required configuration value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")
)
