package semconv

import (
	"go.opentelemetry.io/otel/attribute"
)

// HTTP define los atributos de las peticiones atendidas por el puente HTTP.
var HTTP struct {
	// Method método HTTP de la petición.
	Method attribute.Key

	// Route patrón de ruta registrado en el router (sin parámetros de consulta).
	Route attribute.Key

	// ClientIP dirección remota del cliente.
	ClientIP attribute.Key

	// StatusCode código de estado de la respuesta.
	StatusCode attribute.Key

	// DurationMs duración de la petición en milisegundos.
	DurationMs attribute.Key
}

func init() {
	HTTP.Method = attribute.Key("http.method")
	HTTP.Route = attribute.Key("http.route")
	HTTP.ClientIP = attribute.Key("http.client_ip")
	HTTP.StatusCode = attribute.Key("http.status_code")
	HTTP.DurationMs = attribute.Key("http.duration_ms")
}
