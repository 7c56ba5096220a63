// Package semconv define las claves de atributos OpenTelemetry usadas en
// logs, métricas y trazas del proxy.
//
// Uso básico:
//
//	attrs := []attribute.KeyValue{
//	    semconv.Proxy.Command.String("ProtoOAGetTrendbarsReq"),
//	    semconv.HTTP.StatusCode.Int(200),
//	}
package semconv
