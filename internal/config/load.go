package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/bdrun/bdrun/internal/constants"
	"github.com/bdrun/bdrun/internal/errors"
)

// newViperInstance creates a new Viper instance with standard bdrun
// configuration: environment variable prefix (BDRUN_), key replacer, and
// defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the mapstructure tag names exactly.
func setDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("engine.binary", constants.DefaultEngineBinary)
	v.SetDefault("engine.base_args", []string{"--no-capture", "--no-color"})
	v.SetDefault("engine.formatter", constants.DefaultAllureFormatter)
	v.SetDefault("engine.tags", "")

	// Runner defaults
	v.SetDefault("runner.workers", constants.DefaultWorkers)
	v.SetDefault("runner.timeout", constants.DefaultWorkerTimeout.String())
	v.SetDefault("runner.mode", constants.ModeFeatures)

	// Paths defaults
	v.SetDefault("paths.features_dir", constants.DefaultFeaturesDir)
	v.SetDefault("paths.results_dir", constants.DefaultResultsDir)
	v.SetDefault("paths.merged_dir", constants.DefaultMergedDir)
	v.SetDefault("paths.report_dir", constants.DefaultReportDir)

	// Report defaults
	v.SetDefault("report.tool", constants.DefaultReportTool)
}

// isConfigNotFoundError returns true if the error is a viper config file
// not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from
// strings like "5m".
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}

// unmarshalAndValidate unmarshals viper config into Config and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper
// precedence. Configuration is loaded in the following order (highest
// precedence first):
//  1. Environment variables (BDRUN_* prefix)
//  2. Project config (.bdrun/config.yaml)
//  3. Global config (~/.bdrun/config.yaml)
//  4. Built-in defaults
//
// For CLI flag overrides, use LoadWithOverrides instead.
//
// The function returns an error only for actual configuration problems,
// not for missing config files (which are expected in many setups).
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	// Global config provides user-wide defaults, overridden per-project
	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("engine", cfg.Engine.Binary).
		Int("workers", cfg.Runner.Workers).
		Dur("timeout", cfg.Runner.Timeout).
		Str("mode", cfg.Runner.Mode).
		Msg("configuration loaded")

	return cfg, nil
}

// loadGlobalConfig attempts to load the global config file
// (~/.bdrun/config.yaml). Returns nil if the file doesn't exist or the
// home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := getGlobalConfigPathIfExists()
	if !ok {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// getGlobalConfigPathIfExists returns the global config path if it exists.
func getGlobalConfigPathIfExists() (string, bool) {
	globalDir, err := GlobalConfigDir()
	if err != nil {
		return "", false
	}

	globalConfigPath := filepath.Join(globalDir, "config.yaml")
	if _, err := os.Stat(globalConfigPath); err != nil {
		return "", false
	}

	return globalConfigPath, true
}

// loadProjectConfig attempts to load the project config file
// (.bdrun/config.yaml). Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied, allowing partial
// overrides. Boolean run options (report, serve, clean) are per-command
// flags handled by the CLI, not configuration.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}

	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
// projectConfigPath is the higher-priority path; globalConfigPath is the
// lower-priority one. Either path can be empty to skip that level.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// applyOverrides merges non-zero override values into the config.
func applyOverrides(cfg, overrides *Config) {
	// Engine overrides
	if overrides.Engine.Binary != "" {
		cfg.Engine.Binary = overrides.Engine.Binary
	}
	if len(overrides.Engine.BaseArgs) > 0 {
		cfg.Engine.BaseArgs = overrides.Engine.BaseArgs
	}
	if overrides.Engine.Formatter != "" {
		cfg.Engine.Formatter = overrides.Engine.Formatter
	}
	if overrides.Engine.Tags != "" {
		cfg.Engine.Tags = overrides.Engine.Tags
	}

	// Runner overrides
	if overrides.Runner.Workers != 0 {
		cfg.Runner.Workers = overrides.Runner.Workers
	}
	if overrides.Runner.Timeout != 0 {
		cfg.Runner.Timeout = overrides.Runner.Timeout
	}
	if overrides.Runner.Mode != "" {
		cfg.Runner.Mode = overrides.Runner.Mode
	}

	// Paths overrides
	if overrides.Paths.FeaturesDir != "" {
		cfg.Paths.FeaturesDir = overrides.Paths.FeaturesDir
	}
	if overrides.Paths.ResultsDir != "" {
		cfg.Paths.ResultsDir = overrides.Paths.ResultsDir
	}
	if overrides.Paths.MergedDir != "" {
		cfg.Paths.MergedDir = overrides.Paths.MergedDir
	}
	if overrides.Paths.ReportDir != "" {
		cfg.Paths.ReportDir = overrides.Paths.ReportDir
	}

	// Report overrides
	if overrides.Report.Tool != "" {
		cfg.Report.Tool = overrides.Report.Tool
	}
}
