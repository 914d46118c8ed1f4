package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys of the import instruments.
var (
	AttrEntity    = attribute.Key("entity")
	AttrSubtype   = attribute.Key("subtype")
	AttrProcedure = attribute.Key("procedure")
	AttrOutcome   = attribute.Key("outcome")
)

// remoteCallBuckets are histogram boundaries in seconds for Magento API
// round trips, which include login and session teardown.
var remoteCallBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// ImportMetrics records what connector runs create and how the Magento
// API behaves. A nil *ImportMetrics records nothing.
type ImportMetrics struct {
	created       metric.Int64Counter
	fetchDuration metric.Float64Histogram
	fetchFailures metric.Int64Counter
}

// NewImportMetrics registers the import instruments on meter.
func NewImportMetrics(meter metric.Meter) (*ImportMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	created, err := meter.Int64Counter("magento_import_created_total",
		metric.WithDescription("Local records created from Magento documents"),
		metric.WithUnit("{records}"),
	)
	if err != nil {
		return nil, &MetricsError{Op: "magento_import_created_total", Err: err.Error()}
	}

	fetchDuration, err := meter.Float64Histogram("magento_remote_fetch_duration_seconds",
		metric.WithDescription("Duration of Magento API fetches including session setup"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(remoteCallBuckets...),
	)
	if err != nil {
		return nil, &MetricsError{Op: "magento_remote_fetch_duration_seconds", Err: err.Error()}
	}

	fetchFailures, err := meter.Int64Counter("magento_remote_fetch_failures_total",
		metric.WithDescription("Magento API fetches that returned an error"),
		metric.WithUnit("{fetches}"),
	)
	if err != nil {
		return nil, &MetricsError{Op: "magento_remote_fetch_failures_total", Err: err.Error()}
	}

	return &ImportMetrics{
		created:       created,
		fetchDuration: fetchDuration,
		fetchFailures: fetchFailures,
	}, nil
}

// RecordCategoriesCreated counts categories created by one committed import.
func (m *ImportMetrics) RecordCategoriesCreated(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.created.Add(ctx, int64(n), metric.WithAttributes(AttrEntity.String("category")))
}

// RecordTemplateCreated counts one committed product template of subtype.
func (m *ImportMetrics) RecordTemplateCreated(ctx context.Context, subtype string) {
	if m == nil {
		return
	}
	m.created.Add(ctx, 1, metric.WithAttributes(AttrEntity.String("product"), AttrSubtype.String(subtype)))
}

// RecordFetch records the outcome and latency of one remote procedure call.
func (m *ImportMetrics) RecordFetch(ctx context.Context, procedure string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.fetchFailures.Add(ctx, 1, metric.WithAttributes(AttrProcedure.String(procedure)))
	}
	m.fetchDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(AttrProcedure.String(procedure), AttrOutcome.String(outcome)))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewImportMetrics", Err: "meter cannot be nil"}

// MetricsError reports a failure to register an instrument.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
