package telemetry

import (
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Config contiene la configuración para el cliente de telemetría
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// OTLPEndpoint collector OTLP/gRPC. Vacío desactiva trazas y métricas exportadas.
	OTLPEndpoint string

	// Atributos comunes a todos los logs, métricas y trazas
	CommonAttributes []attribute.KeyValue

	// LogLevel nivel mínimo de los logs
	LogLevel slog.Level

	// LogWriter destino de los logs (por defecto stdout)
	LogWriter io.Writer

	// Habilitar/deshabilitar componentes
	EnableLogs    bool
	EnableMetrics bool
	EnableTraces  bool
}

// DefaultConfig retorna una configuración con valores por defecto
func DefaultConfig(serviceName, environment string) Config {
	return Config{
		ServiceName:      serviceName,
		ServiceVersion:   "0.0.1",
		Environment:      environment,
		LogLevel:         slog.LevelInfo,
		EnableLogs:       true,
		EnableMetrics:    true,
		EnableTraces:     true,
		CommonAttributes: []attribute.KeyValue{},
	}
}

// Option es una función que modifica la configuración
type Option func(*Config)

// WithVersion establece la versión del servicio
func WithVersion(version string) Option {
	return func(c *Config) {
		c.ServiceVersion = version
	}
}

// WithOTLPEndpoint establece el endpoint del collector
func WithOTLPEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.OTLPEndpoint = endpoint
	}
}

// WithCommonAttributes añade atributos comunes
func WithCommonAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *Config) {
		c.CommonAttributes = append(c.CommonAttributes, attrs...)
	}
}

// WithLogLevel establece el nivel mínimo (DEBUG, INFO, WARN, ERROR).
// Un valor no reconocido deja INFO.
func WithLogLevel(level string) Option {
	return func(c *Config) {
		c.LogLevel = ParseLevel(level)
	}
}

// WithLogWriter redirige la salida de logs
func WithLogWriter(w io.Writer) Option {
	return func(c *Config) {
		c.LogWriter = w
	}
}

// WithLogsDisabled deshabilita logs
func WithLogsDisabled() Option {
	return func(c *Config) {
		c.EnableLogs = false
	}
}

// WithMetricsDisabled deshabilita métricas
func WithMetricsDisabled() Option {
	return func(c *Config) {
		c.EnableMetrics = false
	}
}

// WithTracesDisabled deshabilita trazas
func WithTracesDisabled() Option {
	return func(c *Config) {
		c.EnableTraces = false
	}
}

// ParseLevel traduce los nombres de nivel usados en CONSOLE_LOG_LEVEL.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG", "TRACE":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR", "CRITICAL":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
