// Package constants provides shared constant values for bdrun.
//
// This package MUST NOT import any other internal packages.
package constants

import "time"

// Application identity.
const (
	// AppName is the CLI binary name.
	AppName = "bdrun"

	// BdrunHome is the default home directory name (under $HOME).
	BdrunHome = ".bdrun"

	// EnvPrefix is the environment variable prefix for configuration.
	EnvPrefix = "BDRUN"
)

// Logging constants.
const (
	// LogsDir is the directory for log files under the bdrun home.
	LogsDir = "logs"

	// CLILogFileName is the filename for the rotating CLI log.
	CLILogFileName = "bdrun.log"

	// LogMaxSizeMB is the maximum size of a log file before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to keep.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age of rotated log files.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated log files.
	LogCompress = true
)

// Engine defaults. The test-execution engine is an opaque external
// collaborator; bdrun only launches it and observes its exit status.
const (
	// DefaultEngineBinary is the external Gherkin test engine.
	DefaultEngineBinary = "behave"

	// DefaultAllureFormatter is the engine formatter that writes structured
	// result artifacts consumable by the report tool.
	DefaultAllureFormatter = "allure_behave.formatter:AllureFormatter"

	// DefaultReportTool generates the HTML report from merged artifacts.
	DefaultReportTool = "allure"
)

// Path defaults, relative to the working directory.
const (
	// DefaultFeaturesDir holds the .feature files.
	DefaultFeaturesDir = "features"

	// DefaultResultsDir receives per-worker result artifact subdirectories.
	DefaultResultsDir = "allure-results"

	// DefaultMergedDir receives the unified result artifact set.
	DefaultMergedDir = "reports/allure-results"

	// DefaultReportDir receives the generated HTML report.
	DefaultReportDir = "reports/allure-report"

	// FeatureFileExt is the extension of Gherkin feature files.
	FeatureFileExt = ".feature"
)

// Selection modes for partitioning the test suite into work items.
const (
	// ModeFeatures schedules one work item per feature file.
	ModeFeatures = "features"

	// ModeScenarios schedules one work item per scenario, including each
	// Examples row of a Scenario Outline.
	ModeScenarios = "scenarios"
)

// Runner defaults.
const (
	// DefaultWorkers is the default parallel worker count.
	DefaultWorkers = 4

	// DefaultWorkerTimeout bounds a single work item's execution. A hung
	// engine process (stuck browser dialog) must not stall the whole run.
	DefaultWorkerTimeout = 5 * time.Minute

	// WorkerKillDelay is how long a worker gets to exit after SIGTERM
	// before it is killed outright.
	WorkerKillDelay = 3 * time.Second

	// LaunchFailureExitCode is the synthetic exit code recorded when a
	// worker process could not be started at all.
	LaunchFailureExitCode = -1
)

// Exit codes for the CLI.
const (
	// ExitSuccess indicates every work item passed.
	ExitSuccess = 0

	// ExitFailure indicates at least one work item failed, or a general error.
	ExitFailure = 1

	// ExitInvalidInput indicates invalid flags or arguments.
	ExitInvalidInput = 2

	// ExitNoResults indicates the run executed items but produced zero
	// result artifacts, which signals broken engine/report wiring rather
	// than a test failure.
	ExitNoResults = 3
)

// WorkerIDEnvVar is exported into each engine process's environment so
// step code can namespace per-worker state (ports, profiles, downloads).
const WorkerIDEnvVar = "BDRUN_WORKER_ID"
