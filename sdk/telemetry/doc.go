// Package telemetry proporciona observabilidad para el proxy mediante los tres pilares:
//
// 1. Logs: Registro estructurado JSON (slog)
// 2. Métricas: OpenTelemetry exportables vía OTLP
// 3. Trazas: Trazado distribuido con OpenTelemetry
//
// Uso básico:
//
//	client, err := telemetry.New(ctx, "openapi-proxy", "production",
//	    telemetry.WithOTLPEndpoint("otel-collector:4317"),
//	    telemetry.WithLogLevel("DEBUG"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Shutdown(ctx)
//
//	client.Info(ctx, "Command dispatched",
//	    semconv.Proxy.Command.String("ProtoOAReconcileReq"),
//	)
//
//	ctx, span := client.StartSpan(ctx, "http.trendbars")
//	defer span.End()
//
//	client.ProxyMetrics().RecordDispatched(ctx, "ProtoOAGetTrendbarsReq")
//
// Sin endpoint OTLP sólo se emiten logs; trazas y métricas usan
// implementaciones no-op.
package telemetry
