// Package flint is a tracing kit built around W3C Trace Context: 16-byte
// trace IDs, 8-byte span IDs, propagation over HTTP and gRPC, and OTLP
// export, with slog-based logging that stamps trace context onto records.
package flint

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kzs0/flint/attr"
	flog "github.com/kzs0/flint/log"
	"github.com/kzs0/flint/metric"
	"github.com/kzs0/flint/trace"
	"github.com/kzs0/flint/trace/otlp"
)

// Flint is the main entry point for tracing and logging.
type Flint struct {
	config     Config
	logger     *slog.Logger
	logBridge  *flog.Bridge
	tracer     *trace.Tracer
	metrics    *metric.Registry
	staticAttr attr.Set

	exporter       *otlp.Exporter
	batchProcessor *otlp.BatchProcessor

	isNoop bool
}

// New creates a new Flint instance with the given configuration.
func New(cfg Config, staticAttrs ...attr.Attr) (*Flint, error) {
	if cfg.Service == "" {
		cfg.Service = "unknown"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}
	if cfg.LogOutput == nil {
		cfg.LogOutput = os.Stderr
	}

	f := &Flint{
		config:     cfg,
		staticAttr: attr.NewSet(staticAttrs...),
		metrics:    metric.NewRegistry(cfg.MetricPrefix),
	}

	handler := flog.NewHandler(&flog.HandlerOptions{
		Level:  cfg.logLevel(),
		Output: cfg.LogOutput,
		Format: cfg.LogFormat,
	})

	slogAttrs := make([]slog.Attr, 0, f.staticAttr.Len())
	f.staticAttr.Range(func(a attr.Attr) bool {
		slogAttrs = append(slogAttrs, flog.AttrToSlog(a))
		return true
	})

	var loggerHandler slog.Handler = handler
	if len(slogAttrs) > 0 {
		loggerHandler = handler.WithAttrs(slogAttrs)
	}

	f.logger = slog.New(loggerHandler)
	f.logBridge = flog.NewBridge(f.logger)

	var exporter trace.Exporter
	if cfg.TraceURL != "" {
		f.exporter = otlp.NewExporter(otlp.ExporterConfig{
			Endpoint:    cfg.TraceURL,
			ServiceName: cfg.Service,
			Resource:    f.staticAttr,
		})
		batchCfg := otlp.DefaultBatchConfig()
		batchCfg.Metrics = f.metrics
		f.batchProcessor = otlp.NewBatchProcessor(f.exporter, batchCfg)
		// Spans flow through the batch processor, not straight to the
		// wire exporter.
		exporter = f.batchProcessor
	}

	sampler := cfg.TraceSampler
	if sampler == nil {
		if cfg.TraceSampleRate > 0 && cfg.TraceSampleRate < 1.0 {
			// Deterministic on trace ID so every service in a trace
			// makes the same decision.
			sampler = trace.NewIDRatioSampler(cfg.TraceSampleRate)
		} else {
			sampler = trace.AlwaysSampler{}
		}
	}

	f.tracer = trace.NewTracer(trace.TracerConfig{
		ServiceName: cfg.Service,
		Resource:    f.staticAttr,
		Sampler:     sampler,
		Exporter:    exporter,
		IDGenerator: cfg.IDGenerator,
	})

	return f, nil
}

// Logger returns the underlying slog.Logger.
func (f *Flint) Logger() *slog.Logger {
	return f.logger
}

// Metrics returns the metric registry.
func (f *Flint) Metrics() *metric.Registry {
	return f.metrics
}

// Tracer returns the tracer.
func (f *Flint) Tracer() *trace.Tracer {
	return f.tracer
}

// IsNoop returns true if this is a noop flint instance.
func (f *Flint) IsNoop() bool {
	return f.isNoop
}

// Shutdown gracefully shuts down all components.
func (f *Flint) Shutdown(ctx context.Context) error {
	if f.batchProcessor != nil {
		if err := f.batchProcessor.Shutdown(ctx); err != nil {
			return err
		}
	}
	if f.tracer != nil {
		if err := f.tracer.Shutdown(ctx); err != nil {
			return err
		}
	}
	if f.exporter != nil {
		if err := f.exporter.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// InitOption configures initialization.
type InitOption func(*initConfig)

type initConfig struct {
	config      *Config
	staticAttrs []attr.Attr
}

// WithConfig provides an explicit configuration.
func WithConfig(cfg Config) InitOption {
	return func(c *initConfig) {
		c.config = &cfg
	}
}

// WithStaticAttrs sets static attributes attached to the logger and to
// exported trace resources.
func WithStaticAttrs(attrs ...attr.Attr) InitOption {
	return func(c *initConfig) {
		c.staticAttrs = append(c.staticAttrs, attrs...)
	}
}

// Init initializes flint in the context and returns a context with flint
// attached and a cleanup function. If no config is provided, it loads
// from environment variables.
//
// Usage:
//
//	ctx, done := flint.Init(ctx, flint.WithConfig(cfg))
//	defer done()
func Init(ctx context.Context, opts ...InitOption) (context.Context, func()) {
	var cfg initConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.config == nil {
		envCfg, err := FromEnv()
		if err != nil {
			envCfg = DefaultConfig()
		}
		cfg.config = &envCfg
	}

	f, err := New(*cfg.config, cfg.staticAttrs...)
	if err != nil {
		panic(fmt.Errorf("flint: failed to initialize: %w", err))
	}

	ctx = WithFlint(ctx, f)

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.config.ShutdownTimeout)
		defer cancel()
		_ = f.Shutdown(shutdownCtx)
	}

	return ctx, cleanup
}
