package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// contextKey es el tipo para las claves de contexto
type contextKey string

const (
	commonAttrsKey contextKey = "telemetry_common_attrs"
	eventAttrsKey  contextKey = "telemetry_event_attrs"
)

// AppendCommonAttrs añade atributos comunes al contexto (logs y spans de toda la operación)
func AppendCommonAttrs(ctx context.Context, attrs ...attribute.KeyValue) context.Context {
	return appendAttrs(ctx, commonAttrsKey, attrs...)
}

// AppendEventAttrs añade atributos específicos para logs y spans
func AppendEventAttrs(ctx context.Context, attrs ...attribute.KeyValue) context.Context {
	return appendAttrs(ctx, eventAttrsKey, attrs...)
}

// GetCommonAttrs extrae atributos comunes del contexto
func GetCommonAttrs(ctx context.Context) []attribute.KeyValue {
	return getAttrs(ctx, commonAttrsKey)
}

// GetEventAttrs extrae atributos de eventos del contexto
func GetEventAttrs(ctx context.Context) []attribute.KeyValue {
	return getAttrs(ctx, eventAttrsKey)
}

// appendAttrs es un helper interno para añadir atributos al contexto
func appendAttrs(ctx context.Context, key contextKey, attrs ...attribute.KeyValue) context.Context {
	existing := getAttrs(ctx, key)
	merged := make([]attribute.KeyValue, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, key, merged)
}

// getAttrs es un helper interno para extraer atributos del contexto
func getAttrs(ctx context.Context, key contextKey) []attribute.KeyValue {
	val := ctx.Value(key)
	if val == nil {
		return []attribute.KeyValue{}
	}

	attrs, ok := val.([]attribute.KeyValue)
	if !ok {
		return []attribute.KeyValue{}
	}

	return attrs
}
