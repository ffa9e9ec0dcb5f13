package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"student-sandbox/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Telemetry struct {
	MeterProvider *sdkmetric.MeterProvider
	Metrics       *metrics.Metrics
	reader        *sdkmetric.ManualReader
}

// Init installs an in-process meter provider. Nothing is exported over the
// network; Shutdown logs a per-operation query summary instead.
func Init(ctx context.Context, serviceName, serviceVersion string, logger *slog.Logger) (*Telemetry, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(meterProvider)

	m, err := metrics.New(meterProvider.Meter(serviceName), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return &Telemetry{
		MeterProvider: meterProvider,
		Metrics:       m,
		reader:        reader,
	}, nil
}

// QuerySummary returns the number of recorded queries per operation.
func (t *Telemetry) QuerySummary(ctx context.Context) (map[string]uint64, error) {
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("failed to collect metrics: %w", err)
	}

	summary := map[string]uint64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "db.query.duration" {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[float64])
			if !ok {
				continue
			}
			for _, dp := range hist.DataPoints {
				op, _ := dp.Attributes.Value(attribute.Key("operation"))
				summary[op.AsString()] += dp.Count
			}
		}
	}
	return summary, nil
}

func Shutdown(ctx context.Context, t *Telemetry, logger *slog.Logger) error {
	if t == nil {
		return nil
	}

	summary, err := t.QuerySummary(ctx)
	if err != nil {
		logger.Warn("failed to summarize queries", "error", err)
	} else {
		ops := make([]string, 0, len(summary))
		for op := range summary {
			ops = append(ops, op)
		}
		sort.Strings(ops)
		attrs := make([]any, 0, len(ops)*2)
		for _, op := range ops {
			attrs = append(attrs, op, summary[op])
		}
		logger.Info("database queries", attrs...)
	}

	logger.Debug("shutting down OTel meter provider")
	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
