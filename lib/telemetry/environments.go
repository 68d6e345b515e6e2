package telemetry

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"ao3-go/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// InitSlog installs a text handler on stderr as the default logger.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// searches up the filesystem from the cwd to find a file
// called telemetry.json5, once found it will then use it
// as a config to setup telemetry
func SetupFromEnv(ctx context.Context, serviceName string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if err != nil {
		return Telemetry{}, err
	}
	return Setup(ctx, serviceName, config)
}

var (
	testOnce     sync.Once
	testExporter *tracetest.InMemoryExporter
)

// sets up telemetry in a testing environment, ensuring that it isn't
// set up more than once. spans are exported synchronously to the
// returned in-memory exporter, which is reset for every caller.
func SetupForTesting(t testing.TB) *tracetest.InMemoryExporter {
	testOnce.Do(func() {
		InitSlog(testing.Verbose())
		testExporter = tracetest.NewInMemoryExporter()
		otel.SetTracerProvider(trace.NewTracerProvider(trace.WithSyncer(testExporter)))
		otel.SetMeterProvider(metric.NewMeterProvider())
	})
	testExporter.Reset()
	t.Cleanup(testExporter.Reset)
	return testExporter
}
