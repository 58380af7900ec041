package flint

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kzs0/flint/config"
	"github.com/kzs0/flint/id"
	"github.com/kzs0/flint/trace"
)

// Config configures the Flint instance.
type Config struct {
	// Service is the name of the service.
	Service string `env:"FLINT_SERVICE" envDefault:"unknown"`

	// TraceURL is the OTLP HTTP endpoint for traces. Empty disables export.
	TraceURL string `env:"FLINT_TRACE_URL"`
	// TraceSampleRate controls trace sampling (0.0 to 1.0). Sampling is
	// deterministic on the trace ID.
	TraceSampleRate float64 `env:"FLINT_TRACE_SAMPLE_RATE" envDefault:"1.0"`
	// TraceSampler controls trace sampling (overrides TraceSampleRate if set).
	TraceSampler trace.Sampler `env:"-"`
	// IDGenerator supplies trace and span IDs. Nil selects a
	// crypto-seeded generator.
	IDGenerator *id.Generator `env:"-"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `env:"FLINT_LOG_LEVEL" envDefault:"info"`
	// LogFormat is "json" or "text".
	LogFormat string `env:"FLINT_LOG_FORMAT" envDefault:"json"`
	// LogOutput is the log output writer. Defaults to os.Stderr.
	LogOutput io.Writer `env:"-"`

	// MetricPrefix is prepended to all metric names.
	MetricPrefix string `env:"FLINT_METRIC_PREFIX"`

	// ShutdownTimeout is the timeout for shutdown operations.
	ShutdownTimeout time.Duration `env:"FLINT_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Service:         "unknown",
		TraceSampleRate: 1.0,
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 30 * time.Second,
	}
}

// FromEnv loads configuration from environment variables.
func FromEnv() (Config, error) {
	cfg, err := config.Parse[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("flint: failed to parse config from env: %w", err)
	}
	return cfg, nil
}

// MustFromEnv loads configuration from environment variables, panicking on error.
func MustFromEnv() Config {
	cfg, err := FromEnv()
	if err != nil {
		panic(err)
	}
	return cfg
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// logLevel returns the parsed slog.Level from the string LogLevel field.
func (c Config) logLevel() slog.Level {
	return parseLogLevel(c.LogLevel)
}
