package multipart

import (
	"context"

	// Packages
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	attribute "go.opentelemetry.io/otel/attribute"
	metric "go.opentelemetry.io/otel/metric"
	noop "go.opentelemetry.io/otel/metric/noop"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type metrics struct {
	parts    metric.Int64Counter
	bytes    metric.Int64Counter
	failures metric.Int64Counter
	inflight metric.Int64UpDownCounter
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newMetrics(meter metric.Meter) (*metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(schema.SchemaName)
	}

	m := new(metrics)
	if counter, err := meter.Int64Counter("uploader.parts", metric.WithDescription("Parts stored")); err != nil {
		return nil, err
	} else {
		m.parts = counter
	}
	if counter, err := meter.Int64Counter("uploader.bytes", metric.WithDescription("Bytes stored"), metric.WithUnit("By")); err != nil {
		return nil, err
	} else {
		m.bytes = counter
	}
	if counter, err := meter.Int64Counter("uploader.failures", metric.WithDescription("Failed uploads")); err != nil {
		return nil, err
	} else {
		m.failures = counter
	}
	if counter, err := meter.Int64UpDownCounter("uploader.parts.inflight", metric.WithDescription("Part uploads in flight")); err != nil {
		return nil, err
	} else {
		m.inflight = counter
	}

	return m, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (m *metrics) partStarted(ctx context.Context) {
	m.inflight.Add(ctx, 1)
}

// partFinished is called for every started part; part is nil on failure
func (m *metrics) partFinished(ctx context.Context, part *schema.CompletedPart) {
	m.inflight.Add(ctx, -1)
	if part != nil {
		m.parts.Add(ctx, 1)
		m.bytes.Add(ctx, part.Size)
	}
}

func (m *metrics) failed(ctx context.Context, kind Kind) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind.String())))
}
