package flint

import (
	"io"
	"log/slog"
	"sync"

	"github.com/kzs0/flint/attr"
	flog "github.com/kzs0/flint/log"
	"github.com/kzs0/flint/metric"
	"github.com/kzs0/flint/trace"
)

var (
	noopInstance *Flint
	noopOnce     sync.Once
)

// noopFlint returns a singleton no-op Flint instance that discards logs
// and never exports spans. Used when no Flint instance is found in the
// context.
func noopFlint() *Flint {
	noopOnce.Do(func() {
		handler := flog.NewHandler(&flog.HandlerOptions{
			Level:  slog.LevelInfo,
			Output: io.Discard,
			Format: "json",
		})

		noopInstance = &Flint{
			config: Config{
				Service: "noop",
			},
			logger:     slog.New(handler),
			logBridge:  flog.NewBridge(slog.New(handler)),
			tracer:     trace.NewTracer(trace.TracerConfig{ServiceName: "noop"}),
			metrics:    metric.NewRegistry(""),
			staticAttr: attr.NewSet(),
			isNoop:     true,
		}
	})
	return noopInstance
}
