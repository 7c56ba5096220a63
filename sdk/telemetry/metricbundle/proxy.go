package metricbundle

import (
	"context"
	"strings"

	"github.com/xKoRx/openapi-proxy/sdk/telemetry/semconv"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const namespace = "proxy"

// ProxyMetrics bundle de métricas del proxy de Open API.
//
// # Métricas de Conteo
//
//   - proxy.command.dispatched: peticiones enviadas al venue
//   - proxy.command.completed: peticiones resueltas (status=ok/error/timeout)
//   - proxy.session.transition: cambios de fase de la sesión
//   - proxy.http.requests: peticiones HTTP atendidas
//   - proxy.events.unsolicited: mensajes del venue sin petición pendiente
//   - proxy.transport.reconnects: reconexiones del transporte
//
// # Métricas de Latencia
//
//   - proxy.command.latency_ms: desde el envío hasta la resolución
type ProxyMetrics struct {
	CommandDispatched  metric.Int64Counter
	CommandCompleted   metric.Int64Counter
	SessionTransition  metric.Int64Counter
	HTTPRequests       metric.Int64Counter
	UnsolicitedEvents  metric.Int64Counter
	TransportReconnect metric.Int64Counter

	CommandLatency metric.Float64Histogram
}

// NewProxyMetrics crea el bundle a partir de un meter.
func NewProxyMetrics(meter metric.Meter) (*ProxyMetrics, error) {
	m := &ProxyMetrics{}
	var err error

	counters := []struct {
		dst         *metric.Int64Counter
		entity, typ string
		description string
		unit        string
	}{
		{&m.CommandDispatched, "command", "dispatched", "Peticiones enviadas al venue", "{request}"},
		{&m.CommandCompleted, "command", "completed", "Peticiones resueltas por estado", "{request}"},
		{&m.SessionTransition, "session", "transition", "Transiciones de fase de la sesión", "{transition}"},
		{&m.HTTPRequests, "http", "requests", "Peticiones HTTP atendidas", "{request}"},
		{&m.UnsolicitedEvents, "events", "unsolicited", "Mensajes del venue sin petición pendiente", "{message}"},
		{&m.TransportReconnect, "transport", "reconnects", "Reconexiones del transporte", "{attempt}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(
			MetricName(namespace, c.entity, c.typ),
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, err
		}
	}

	m.CommandLatency, err = meter.Float64Histogram(
		MetricName(namespace, "command", "latency_ms"),
		metric.WithDescription("Latencia desde el envío hasta la resolución"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordDispatched registra una petición enviada.
func (m *ProxyMetrics) RecordDispatched(ctx context.Context, command string, attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	attrs = append(attrs, semconv.Proxy.Command.String(command))
	m.CommandDispatched.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCompleted registra la resolución de una petición y su latencia.
func (m *ProxyMetrics) RecordCompleted(ctx context.Context, command, status string, latencyMs float64, attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	attrs = append(attrs,
		semconv.Proxy.Command.String(command),
		semconv.Proxy.Status.String(status),
	)
	m.CommandCompleted.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.CommandLatency.Record(ctx, latencyMs, metric.WithAttributes(attrs...))
}

// RecordTransition registra el paso a una nueva fase de sesión.
func (m *ProxyMetrics) RecordTransition(ctx context.Context, phase string) {
	if m == nil {
		return
	}
	m.SessionTransition.Add(ctx, 1, metric.WithAttributes(semconv.Proxy.Phase.String(phase)))
}

// RecordHTTPRequest registra una petición HTTP atendida.
func (m *ProxyMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.Add(ctx, 1, metric.WithAttributes(
		semconv.HTTP.Method.String(method),
		semconv.HTTP.Route.String(route),
		semconv.HTTP.StatusCode.Int(status),
	))
}

// RecordUnsolicited registra un mensaje del venue que no correspondía a ninguna petición.
func (m *ProxyMetrics) RecordUnsolicited(ctx context.Context, payloadType uint32) {
	if m == nil {
		return
	}
	m.UnsolicitedEvents.Add(ctx, 1, metric.WithAttributes(semconv.Proxy.PayloadType.Int64(int64(payloadType))))
}

// RecordReconnect registra un intento de reconexión.
func (m *ProxyMetrics) RecordReconnect(ctx context.Context, attempt int) {
	if m == nil {
		return
	}
	m.TransportReconnect.Add(ctx, 1, metric.WithAttributes(semconv.Proxy.Attempt.Int(attempt)))
}

// MetricName genera un nombre de métrica con formato estándar <namespace>.<entity>.<metric_type>.
func MetricName(namespace, entity string, metricType string) string {
	return strings.Join([]string{namespace, entity, metricType}, ".")
}
