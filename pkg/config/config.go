// Package config loads the settings of a training run from a YAML file,
// SKBATCH_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"

	"github.com/YuminosukeSato/skbatch/pkg/errors"
)

// EnvPrefix is prepended to environment variable names, e.g. SKBATCH_LABEL_SIZE.
const EnvPrefix = "SKBATCH"

// Keys shared by the loader and command-line flag bindings.
const (
	KeyInput       = "input"
	KeyOutput      = "output"
	KeyLabelSize   = "label_size"
	KeyBatchSize   = "batch_size"
	KeyLabelColumn = "label_column"
	KeyHeader      = "header"
	KeyDelimiter   = "delimiter"
	KeyLogLevel    = "log_level"
	KeyS3Region    = "s3_region"
	KeyParams      = "params"
	KeyDrift       = "drift.enabled"
	KeyDetector    = "drift.detector"
)

// DriftConfig controls prequential drift monitoring.
type DriftConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Detector string `mapstructure:"detector"` // "ddm" or "adwin"
}

// RunConfig is the complete description of one training run.
type RunConfig struct {
	// Input is the CSV file holding labeled rows.
	Input string `mapstructure:"input"`
	// Output is where the trained model is written: a path or s3://bucket/key.
	Output string `mapstructure:"output"`
	// LabelSize declares the label space [0, LabelSize).
	LabelSize int `mapstructure:"label_size"`
	// BatchSize is the number of rows per incremental fit.
	BatchSize int `mapstructure:"batch_size"`
	// LabelColumn is the zero-based label column; negative counts from the end.
	LabelColumn int `mapstructure:"label_column"`
	// Header skips the first CSV record.
	Header bool `mapstructure:"header"`
	// Delimiter is a single-character field separator.
	Delimiter string `mapstructure:"delimiter"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// S3Region is used for s3:// outputs.
	S3Region string `mapstructure:"s3_region"`
	// Params are learner hyperparameters, applied before the first batch.
	Params map[string]interface{} `mapstructure:"params"`

	Drift DriftConfig `mapstructure:"drift"`
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyInput, "")
	v.SetDefault(KeyOutput, "")
	v.SetDefault(KeyLabelSize, 0)
	v.SetDefault(KeyBatchSize, 1000)
	v.SetDefault(KeyLabelColumn, -1)
	v.SetDefault(KeyHeader, false)
	v.SetDefault(KeyDelimiter, ",")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyS3Region, "us-east-1")
	v.SetDefault(KeyDrift, false)
	v.SetDefault(KeyDetector, "ddm")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if not empty) into v and returns the validated config.
func Load(v *viper.Viper, path string) (*RunConfig, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks for invalid configuration values.
func (c *RunConfig) Validate() error {
	if c.Input == "" {
		return errors.NewValidationError(KeyInput, "must not be empty", c.Input)
	}
	if c.Output == "" {
		return errors.NewValidationError(KeyOutput, "must not be empty", c.Output)
	}
	if c.LabelSize <= 0 {
		return errors.NewValidationError(KeyLabelSize, "must be greater than 0", c.LabelSize)
	}
	if c.BatchSize <= 0 {
		return errors.NewValidationError(KeyBatchSize, "must be greater than 0", c.BatchSize)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return errors.NewValidationError(KeyDelimiter, "must be a single character", c.Delimiter)
	}
	switch c.Drift.Detector {
	case "", "ddm", "adwin":
	default:
		return errors.NewValidationError(KeyDetector, "must be ddm or adwin", c.Drift.Detector)
	}
	return nil
}

// Comma returns the delimiter as a rune.
func (c *RunConfig) Comma() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// MergeParams returns the file params overlaid with overrides given as
// key=value pairs.
func (c *RunConfig) MergeParams(overrides []string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(c.Params)+len(overrides))
	for k, v := range c.Params {
		out[k] = v
	}
	for _, kv := range overrides {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.NewValidationError("param", "must be key=value", kv)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
