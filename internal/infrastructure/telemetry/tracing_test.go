package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// useRecorder installs a recording provider as the global provider for one test.
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	recorder := useRecorder(t)

	_, span := StartServiceSpan(context.Background(), "category_importer", "import_tree")
	span.End()
	_, client := StartServiceSpan(context.Background(), "magento_api", "call", trace.SpanKindClient)
	client.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "category_importer.import_tree", ended[0].Name())
	assert.Equal(t, trace.SpanKindInternal, ended[0].SpanKind())
	assert.Equal(t, "magento_api.call", ended[1].Name())
	assert.Equal(t, trace.SpanKindClient, ended[1].SpanKind())
	assert.Equal(t, TracerName, ended[0].InstrumentationScope().Name)
}

func TestSetAttributes(t *testing.T) {
	recorder := useRecorder(t)
	id := uuid.New()

	_, span := StartServiceSpan(context.Background(), "product_importer", "find_or_create")
	SetAttributes(span,
		SpanAttrMagentoID, int64(135),
		SpanAttrSubtype, "configurable",
		SpanAttrTemplateID, id,
		SpanAttrCreated, true,
		"linked", []int64{1, 2},
		42, "ignored key",
		"dangling",
	)
	span.End()

	attrs := attrMap(recorder.Ended()[0].Attributes())
	assert.Len(t, attrs, 5)
	assert.Equal(t, int64(135), attrs[SpanAttrMagentoID].AsInt64())
	assert.Equal(t, "configurable", attrs[SpanAttrSubtype].AsString())
	assert.Equal(t, id.String(), attrs[SpanAttrTemplateID].AsString())
	assert.True(t, attrs[SpanAttrCreated].AsBool())
	assert.Equal(t, []int64{1, 2}, attrs["linked"].AsInt64Slice())
}

func TestRecordError(t *testing.T) {
	recorder := useRecorder(t)

	_, span := StartServiceSpan(context.Background(), "product_importer", "update_from_remote")
	RecordError(span, nil)
	RecordError(span, errors.New("remote unavailable"))
	AddEvent(span, "retry", "attempt", 1)
	span.End()

	ended := recorder.Ended()[0]
	assert.Equal(t, codes.Error, ended.Status().Code)
	assert.Equal(t, "remote unavailable", ended.Status().Description)

	names := make([]string, 0, len(ended.Events()))
	for _, ev := range ended.Events() {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, "exception")
	assert.Contains(t, names, "retry")
}

func TestHelpers_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttributes(nil, "k", "v")
		AddEvent(nil, "e")
		RecordError(nil, errors.New("x"))
	})
}
