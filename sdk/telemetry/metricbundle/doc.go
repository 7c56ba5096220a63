// Package metricbundle agrupa los instrumentos OpenTelemetry del proxy.
//
// Convención de nombres de métricas: <namespace>.<entity>.<metric_type>, por ejemplo
//   - proxy.command.dispatched
//   - proxy.http.requests
//
// Los bundles se construyen a partir de un metric.Meter; con un meter no-op
// todos los métodos son seguros y no registran nada.
package metricbundle
