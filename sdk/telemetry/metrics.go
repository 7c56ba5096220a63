package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RecordCounter suma value al contador name, creado bajo demanda. Sirve para
// contadores puntuales que no tienen sitio en ProxyMetrics.
func (c *Client) RecordCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue) {
	if c == nil || c.meter == nil {
		return
	}
	counter, err := c.GetOrCreateCounter(name, "")
	if err != nil {
		c.Error(ctx, "Failed to get counter", err, attribute.String("counter_name", name))
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// RecordHistogram registra value en el histograma name, creado bajo demanda.
func (c *Client) RecordHistogram(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue) {
	if c == nil || c.meter == nil {
		return
	}
	histogram, err := c.GetOrCreateHistogram(name, "")
	if err != nil {
		c.Error(ctx, "Failed to get histogram", err, attribute.String("histogram_name", name))
		return
	}
	histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// RecordLatency registra una latencia en milisegundos en <operation>.latency_ms.
//
// Example:
//
//	client.RecordLatency(ctx, "proxy.http.request", 12.5, semconv.HTTP.Route.String("/get-data"))
func (c *Client) RecordLatency(ctx context.Context, operation string, latencyMs float64, attrs ...attribute.KeyValue) {
	c.RecordHistogram(ctx, operation+".latency_ms", latencyMs, attrs...)
}
