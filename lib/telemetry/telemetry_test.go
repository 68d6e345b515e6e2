package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupForTesting(t *testing.T) {
	exporter := SetupForTesting(t)

	_, span := otel.Tracer("ao3.lib.telemetry.test").Start(context.Background(), "fetch")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "fetch", spans[0].Name)

	// a second setup shares the providers but starts from a clean slate
	exporter = SetupForTesting(t)
	require.Empty(t, exporter.GetSpans())
}

func TestSetupFromEnvMissingConfig(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	_, err = os.Stat(filepath.Join(dir, "telemetry.json5"))
	require.True(t, os.IsNotExist(err))

	_, err = SetupFromEnv(context.Background(), "test:telemetry")
	require.ErrorIs(t, err, os.ErrNotExist)
}

// keepGlobals puts back the providers installed before the test.
func keepGlobals(t *testing.T) {
	tracerProvider, meterProvider := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tracerProvider)
		otel.SetMeterProvider(meterProvider)
	})
}

func TestSetupExportsToCollector(t *testing.T) {
	keepGlobals(t)

	var mu sync.Mutex
	hits := map[string]int{}
	var keys []string
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		hits[r.URL.Path]++
		keys = append(keys, r.Header.Get("X-Api-Key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	headers := map[string]string{"x-api-key": "collector-key"}
	ctx := context.Background()
	tel, err := Setup(ctx, "test:telemetry", Config{
		Traces:                Exporter{Endpoint: collector.URL + "/v1/traces", Headers: headers},
		Metrics:               Exporter{Protocol: "HTTP", Endpoint: collector.URL + "/v1/metrics", Headers: headers},
		MetricIntervalSeconds: 60,
	})
	require.NoError(t, err)

	_, span := otel.Tracer("ao3.lib.telemetry.test").Start(ctx, "work:Reload")
	span.End()
	retries, err := otel.Meter("ao3.lib.telemetry.test").Int64Counter("ao3.http.retries")
	require.NoError(t, err)
	retries.Add(ctx, 1)

	require.NoError(t, tel.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, hits["/v1/traces"])
	require.GreaterOrEqual(t, hits["/v1/metrics"], 1)
	for _, key := range keys {
		require.Equal(t, "collector-key", key)
	}
}

func TestSetupWithoutEndpoints(t *testing.T) {
	keepGlobals(t)

	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	_, span := otel.Tracer("ao3.lib.telemetry.test").Start(context.Background(), "client:Do")
	span.End()
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestSetupUnknownProtocol(t *testing.T) {
	keepGlobals(t)

	_, err := Setup(context.Background(), "test:telemetry", Config{
		Traces: Exporter{Protocol: "zipkin", Endpoint: "http://localhost:9411"},
	})
	require.ErrorContains(t, err, `unknown otlp protocol "zipkin"`)
}
