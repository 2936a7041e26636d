package config

import (
	"github.com/bdrun/bdrun/internal/constants"
	"github.com/bdrun/bdrun/internal/errors"
)

// maxWorkers caps the worker pool. Each worker drives a full browser
// session; anything beyond this exhausts a single machine long before it
// speeds up a run.
const maxWorkers = 64

// Validate checks a Config for invalid values.
// It returns a sentinel error (wrapped with context) for the first
// problem found, or nil if the configuration is valid.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateEngine(&cfg.Engine); err != nil {
		return err
	}
	if err := validateRunner(&cfg.Runner); err != nil {
		return err
	}
	if err := validatePaths(&cfg.Paths); err != nil {
		return err
	}
	if cfg.Report.Tool == "" {
		return errors.Wrap(errors.ErrEmptyValue, "report.tool")
	}
	return nil
}

func validateEngine(e *EngineConfig) error {
	if e.Binary == "" {
		return errors.Wrap(errors.ErrEmptyValue, "engine.binary")
	}
	if e.Formatter == "" {
		return errors.Wrap(errors.ErrEmptyValue, "engine.formatter")
	}
	return nil
}

func validateRunner(r *RunnerConfig) error {
	if r.Workers < 1 || r.Workers > maxWorkers {
		return errors.Wrapf(errors.ErrValueOutOfRange, "runner.workers must be between 1 and %d, got %d", maxWorkers, r.Workers)
	}
	if r.Timeout < 0 {
		return errors.Wrap(errors.ErrValueOutOfRange, "runner.timeout must not be negative")
	}
	if r.Mode != constants.ModeFeatures && r.Mode != constants.ModeScenarios {
		return errors.Wrapf(errors.ErrInvalidMode, "runner.mode must be %q or %q, got %q", constants.ModeFeatures, constants.ModeScenarios, r.Mode)
	}
	return nil
}

func validatePaths(p *PathsConfig) error {
	if p.FeaturesDir == "" {
		return errors.Wrap(errors.ErrEmptyValue, "paths.features_dir")
	}
	if p.ResultsDir == "" {
		return errors.Wrap(errors.ErrEmptyValue, "paths.results_dir")
	}
	if p.MergedDir == "" {
		return errors.Wrap(errors.ErrEmptyValue, "paths.merged_dir")
	}
	if p.ReportDir == "" {
		return errors.Wrap(errors.ErrEmptyValue, "paths.report_dir")
	}
	return nil
}
