package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/orgaudit/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments on top of the ORGAUDIT_* process
// environment. It returns a populated Config, a boolean indicating if the
// program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*config.Config, bool, error) {
	base, err := config.FromEnv()
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return parse(args, output, base)
}

// ParseWithEnvironment is Parse with an explicit environment instead of the process one.
func ParseWithEnvironment(args []string, output io.Writer, vars map[string]string) (*config.Config, bool, error) {
	base, err := config.FromEnvironment(vars)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return parse(args, output, base)
}

func parse(args []string, output io.Writer, cfg config.Config) (*config.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("orgaudit", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
orgaudit - Organizational compliance report for an employee roster.

Usage:
  orgaudit [options] INPUT

Arguments:
  INPUT
    Path to the roster CSV file, or s3://bucket/key for a roster stored in S3.
    The first line is a header: Id,firstName,lastName,salary,managerId

Options:
`)
		flagSet.PrintDefaults()
		fmt.Fprintf(output, "\nEvery option can also be set through %s* environment variables.\n", config.EnvPrefix)
	}

	logLevelFlag := flagSet.String("log-level", cfg.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := flagSet.String("log-format", cfg.LogFormat, "Log output format. Options: 'text' or 'json'.")
	workersFlag := flagSet.Int("workers", cfg.Workers, "Number of concurrent workers. 0 uses one per CPU.")
	batchFlag := flagSet.Int("batch-size", cfg.BatchSize, "Largest number of lines parsed sequentially by one task.")
	policyFlag := flagSet.String("policy", cfg.PolicyFile, "Path to an HCL policy file overriding thresholds and analysis settings.")
	metricsPortFlag := flagSet.Int("metrics-port", cfg.MetricsPort, "Port for the HTTP /health and /metrics server. 0 is disabled.")
	metricsFileFlag := flagSet.String("metrics-file", cfg.MetricsFile, "Write run metrics to this file in Prometheus text format.")
	s3RegionFlag := flagSet.String("s3-region", cfg.S3.Region, "AWS region for s3:// inputs.")
	s3EndpointFlag := flagSet.String("s3-endpoint", cfg.S3.Endpoint, "Custom S3 endpoint (e.g. MinIO) for s3:// inputs.")
	s3PathStyleFlag := flagSet.Bool("s3-path-style", cfg.S3.PathStyle, "Use path-style addressing for s3:// inputs.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	switch flagSet.NArg() {
	case 0:
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "missing INPUT: please provide a roster file path"}
	case 1:
		cfg.Input = flagSet.Arg(0)
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("expected a single INPUT, got %d arguments", flagSet.NArg())}
	}
	slog.Debug("Input determined.", "input", cfg.Input)

	// The policy file sits between the environment and explicit flags.
	cfg.PolicyFile = *policyFlag
	if cfg.PolicyFile != "" {
		if err := config.LoadPolicyFile(context.Background(), cfg.PolicyFile, &cfg); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}

	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = *logLevelFlag
		case "log-format":
			cfg.LogFormat = *logFormatFlag
		case "workers":
			cfg.Workers = *workersFlag
		case "batch-size":
			cfg.BatchSize = *batchFlag
		case "metrics-port":
			cfg.MetricsPort = *metricsPortFlag
		case "metrics-file":
			cfg.MetricsFile = *metricsFileFlag
		case "s3-region":
			cfg.S3.Region = *s3RegionFlag
		case "s3-endpoint":
			cfg.S3.Endpoint = *s3EndpointFlag
		case "s3-path-style":
			cfg.S3.PathStyle = *s3PathStyleFlag
		}
	})
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return &cfg, false, nil
}
