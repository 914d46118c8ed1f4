package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of connector spans
const TracerName = "github.com/erp/magento-connector"

// Span attribute keys shared by the importers and the API client
const (
	SpanAttrInstanceID = "magento.instance_id"
	SpanAttrWebsiteID  = "magento.website_id"
	SpanAttrMagentoID  = "magento.entity_id"
	SpanAttrEntity     = "magento.entity"
	SpanAttrSubtype    = "magento.product_type"
	SpanAttrRPCMethod  = "rpc.method"
	SpanAttrCategoryID = "erp.category_id"
	SpanAttrTemplateID = "erp.template_id"
	SpanAttrCreated    = "erp.created"
)

// StartServiceSpan starts a span named {service}.{method}, e.g. "product_importer.find_or_create".
// The caller must end the returned span.
func StartServiceSpan(ctx context.Context, service, method string, kind ...trace.SpanKind) (context.Context, trace.Span) {
	spanKind := trace.SpanKindInternal
	if len(kind) > 0 {
		spanKind = kind[0]
	}
	return otel.GetTracerProvider().Tracer(TracerName).
		Start(ctx, fmt.Sprintf("%s.%s", service, method), trace.WithSpanKind(spanKind))
}

// SetAttributes adds key/value pairs to a span. Keys must be strings;
// malformed pairs are skipped.
//
//	telemetry.SetAttributes(span,
//	    telemetry.SpanAttrMagentoID, doc.ProductID.Int64(),
//	    telemetry.SpanAttrSubtype, string(subtype),
//	)
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(toAttributes(keyValues)...)
}

// AddEvent adds a timestamped event with attributes to the span.
func AddEvent(span trace.Span, name string, keyValues ...any) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(toAttributes(keyValues)...))
}

// RecordError records err on the span and marks the span failed.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func toAttributes(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	return attrs
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case []int64:
		return attribute.Int64Slice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
