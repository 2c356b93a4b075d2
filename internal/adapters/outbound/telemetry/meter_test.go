package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInitMeterProviderWithoutEndpoint(t *testing.T) {
	shutdown, err := InitMeterProvider(context.Background(), MeterConfig{
		ServiceName: "test",
	})
	if err != nil {
		t.Fatalf("expected no error without an endpoint, got: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected a shutdown function")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestMetricsExportThroughInstalledProvider(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Errorf("provider shutdown failed: %v", err)
		}
	}()

	metrics, err := NewMetrics("test")
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	metrics.RecordCacheLookup(context.Background(), "hit")
	metrics.RecordCacheLookup(context.Background(), "miss")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "cache_lookups_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T for cache_lookups_total", m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 2 {
		t.Errorf("expected 2 recorded lookups, got %d", total)
	}
}
