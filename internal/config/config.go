package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/specialistvlad/orgaudit/internal/metrics"
	"github.com/specialistvlad/orgaudit/internal/roster"
)

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "ORGAUDIT_"

// Config holds everything an audit run needs.
type Config struct {
	// Input is the roster location: a file path or s3://bucket/key.
	Input string `env:"-"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Workers sizes the worker pool. 0 means one worker per CPU.
	Workers   int `env:"WORKERS" envDefault:"0"`
	BatchSize int `env:"BATCH_SIZE" envDefault:"10000"`

	PolicyFile string `env:"POLICY_FILE"`

	// MetricsPort serves /health and /metrics while the run is active. 0 is disabled.
	MetricsPort int `env:"METRICS_PORT" envDefault:"0"`
	// MetricsFile receives the run metrics in text exposition format when set.
	MetricsFile string `env:"METRICS_FILE"`

	S3 S3Config `envPrefix:"S3_"`

	Policy metrics.Policy `env:"-"`
}

// S3Config holds the S3 client settings used for s3:// inputs.
type S3Config struct {
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"ENDPOINT"`
	PathStyle bool   `env:"PATH_STYLE" envDefault:"false"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		BatchSize: roster.DefaultBatchSize,
		S3:        S3Config{Region: "us-east-1"},
		Policy:    metrics.DefaultPolicy(),
	}
}

// FromEnv returns the defaults overridden by ORGAUDIT_* process environment variables.
func FromEnv() (Config, error) {
	return parseEnv(env.Options{Prefix: EnvPrefix})
}

// FromEnvironment is FromEnv over an explicit variable set instead of the process environment.
func FromEnvironment(vars map[string]string) (Config, error) {
	return parseEnv(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func parseEnv(opts env.Options) (Config, error) {
	cfg := Default()
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Input == "" {
		errs = append(errs, errors.New("input is a required configuration field and cannot be empty"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", c.LogFormat))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metrics port out of range: %d", c.MetricsPort))
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("invalid policy: %w", err))
	}
	return errors.Join(errs...)
}
