package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kzs0/flint"
	"github.com/kzs0/flint/attr"
	"github.com/kzs0/flint/config"
)

type Config struct {
	Flint    flint.Config
	LoopTerm time.Duration `env:"LOOP_TERM" envDefault:"10s"`
}

func main() {
	ctx := context.Background()
	cfg, err := config.Parse[Config]()
	if err != nil {
		cfg = Config{
			Flint:    flint.DefaultConfig(),
			LoopTerm: 10 * time.Second,
		}
	}

	cfg.Flint.Service = "example-service"
	cfg.Flint.LogFormat = "text"

	ctx, done := flint.Init(ctx,
		flint.WithConfig(cfg.Flint),
		flint.WithStaticAttrs(
			attr.String("env", "development"),
			attr.String("flint.version", "0.1.0"),
		),
	)
	defer done()

	mux := http.NewServeMux()
	mux.HandleFunc("/users", handleUsers)

	handler := flint.HTTPMiddleware(ctx, mux)

	appServer := &http.Server{
		Addr:              ":8080",
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	go func() {
		if err := loop(ctx, cfg.LoopTerm); err != nil {
			flint.Error(ctx, "Loop error", attr.Error(err))
		}
	}()

	go func() {
		flint.Info(ctx, "Application server listening on :8080",
			attr.String("server.address", ":8080"))
		if err := appServer.ListenAndServe(); err != http.ErrServerClosed {
			flint.Error(ctx, "Application server error", attr.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	flint.Info(ctx, "Received shutdown signal",
		attr.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := appServer.Shutdown(shutdownCtx); err != nil {
		flint.Error(ctx, "Application server shutdown error", attr.Error(err))
	}

	flint.Info(ctx, "Shutdown complete")
}

func handleUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// The middleware already started a server span; logs here carry its
	// trace and span IDs automatically.
	flint.Info(ctx, "processing user request", attr.String("path", r.URL.Path))

	result, err := doWork(ctx)
	if err != nil {
		flint.Error(ctx, "request failed", attr.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	flint.Info(ctx, "request completed successfully", attr.String("result", result))
	_, _ = fmt.Fprintf(w, "Result: %s\n", result)
}

func doWork(ctx context.Context) (string, error) {
	ctx, span := flint.StartSpan(ctx, "do_work")
	defer span.End()

	span.SetAttr(attr.Int("user_count", 42))
	time.Sleep(5 * time.Millisecond)
	return "ok", nil
}

func loop(ctx context.Context, term time.Duration) error {
	loopCounter := flint.Counter(ctx, "background_loop_iterations", "Total loop iterations")

	ticker := time.NewTicker(term)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flint.Info(ctx, "background loop stopping")
			return nil
		case <-ticker.C:
			loopCounter.Inc()
			flint.Debug(ctx, "background loop tick", attr.Duration("interval", term))

			tickCtx, span := flint.StartSpan(ctx, "loop.tick")
			flint.Info(tickCtx, "tick")
			span.End()
		}
	}
}
