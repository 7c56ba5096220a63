package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/semconv"
	"github.com/xKoRx/openapi-proxy/sdk/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// instrument abre un span por petición y registra log y métrica al terminar.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		ctx, span := s.telemetry.StartSpan(r.Context(), "HTTP "+r.Method)
		defer span.End()

		next.ServeHTTP(ww, r.WithContext(ctx))

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		span.SetName(r.Method + " " + route)
		span.SetAttributes(
			semconv.HTTP.Method.String(r.Method),
			semconv.HTTP.Route.String(route),
			semconv.HTTP.StatusCode.Int(status),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		latency := utils.DurationMs(time.Since(start))
		s.metrics.RecordHTTPRequest(ctx, r.Method, route, status)
		s.telemetry.RecordLatency(ctx, "proxy.http.request", latency,
			semconv.HTTP.Method.String(r.Method),
			semconv.HTTP.Route.String(route),
		)

		attrs := []attribute.KeyValue{
			semconv.HTTP.Method.String(r.Method),
			semconv.HTTP.Route.String(route),
			semconv.HTTP.StatusCode.Int(status),
			semconv.HTTP.ClientIP.String(r.RemoteAddr),
			semconv.HTTP.DurationMs.Float64(latency),
		}
		if status >= http.StatusInternalServerError {
			s.telemetry.Warn(ctx, "HTTP request failed", attrs...)
			return
		}
		s.telemetry.Debug(ctx, "HTTP request", attrs...)
	})
}
