// Package config provides configuration loading and validation for bdrun.
//
// Configuration is resolved from (highest precedence first) environment
// variables with the BDRUN_ prefix, the project config file
// (.bdrun/config.yaml), the global config file (~/.bdrun/config.yaml),
// and built-in defaults. CLI flags are applied on top via
// LoadWithOverrides.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bdrun/bdrun/internal/constants"
)

// Config is the root configuration for bdrun.
type Config struct {
	// Engine configures the external test-execution engine.
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`

	// Runner configures parallel execution.
	Runner RunnerConfig `mapstructure:"runner" yaml:"runner"`

	// Paths configures the directory layout.
	Paths PathsConfig `mapstructure:"paths" yaml:"paths"`

	// Report configures report generation.
	Report ReportConfig `mapstructure:"report" yaml:"report"`
}

// EngineConfig describes how to invoke the external test engine.
// The engine is opaque to bdrun: browser choice, headless flag, and grid
// settings travel through its inherited environment, not through here.
type EngineConfig struct {
	// Binary is the engine executable name or path.
	Binary string `mapstructure:"binary" yaml:"binary"`

	// BaseArgs are passed to the engine on every invocation, before the
	// formatter and location arguments.
	BaseArgs []string `mapstructure:"base_args" yaml:"base_args"`

	// Formatter is the engine formatter that writes result artifacts.
	Formatter string `mapstructure:"formatter" yaml:"formatter"`

	// Tags is an engine tag expression passed through opaquely.
	Tags string `mapstructure:"tags" yaml:"tags"`
}

// RunnerConfig configures the parallel coordinator.
type RunnerConfig struct {
	// Workers is the maximum number of concurrently running engine
	// processes.
	Workers int `mapstructure:"workers" yaml:"workers"`

	// Timeout bounds a single work item's execution. Zero disables the
	// per-item timeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// Mode selects the work item granularity (features or scenarios).
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// PathsConfig configures the directory layout, relative to the working
// directory unless absolute.
type PathsConfig struct {
	// FeaturesDir holds the .feature files.
	FeaturesDir string `mapstructure:"features_dir" yaml:"features_dir"`

	// ResultsDir receives per-worker result artifact subdirectories.
	ResultsDir string `mapstructure:"results_dir" yaml:"results_dir"`

	// MergedDir receives the unified result artifact set.
	MergedDir string `mapstructure:"merged_dir" yaml:"merged_dir"`

	// ReportDir receives the generated HTML report.
	ReportDir string `mapstructure:"report_dir" yaml:"report_dir"`
}

// ReportConfig configures the external report tool.
type ReportConfig struct {
	// Tool is the report generator executable name or path.
	Tool string `mapstructure:"tool" yaml:"tool"`
}

// DefaultConfig returns a Config populated with built-in defaults.
// These values mirror setDefaults in load.go.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Binary:    constants.DefaultEngineBinary,
			BaseArgs:  []string{"--no-capture", "--no-color"},
			Formatter: constants.DefaultAllureFormatter,
		},
		Runner: RunnerConfig{
			Workers: constants.DefaultWorkers,
			Timeout: constants.DefaultWorkerTimeout,
			Mode:    constants.ModeFeatures,
		},
		Paths: PathsConfig{
			FeaturesDir: constants.DefaultFeaturesDir,
			ResultsDir:  constants.DefaultResultsDir,
			MergedDir:   constants.DefaultMergedDir,
			ReportDir:   constants.DefaultReportDir,
		},
		Report: ReportConfig{
			Tool: constants.DefaultReportTool,
		},
	}
}

// GlobalConfigDir returns the global configuration directory (~/.bdrun).
// The BDRUN_HOME environment variable overrides the default location.
func GlobalConfigDir() (string, error) {
	if bdrunHome := os.Getenv("BDRUN_HOME"); bdrunHome != "" {
		return bdrunHome, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.BdrunHome), nil
}

// ProjectConfigPath returns the project-level config file path, relative
// to the current working directory.
func ProjectConfigPath() string {
	return filepath.Join("."+constants.AppName, "config.yaml")
}
