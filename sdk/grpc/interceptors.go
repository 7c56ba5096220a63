package grpc

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"

	"github.com/xKoRx/openapi-proxy/sdk/telemetry"
	"github.com/xKoRx/openapi-proxy/sdk/utils"
)

func rpcAttrs(ctx context.Context, method string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("rpc.method", method),
		attribute.String("rpc.system", "grpc"),
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		attrs = append(attrs, attribute.String("rpc.peer", p.Addr.String()))
	}
	return attrs
}

// LoggingUnaryServerInterceptor interceptor de logging para llamadas unary del servidor.
func LoggingUnaryServerInterceptor(client *telemetry.Client) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		attrs := append(rpcAttrs(ctx, info.FullMethod),
			attribute.Float64("rpc.duration_ms", utils.DurationMs(time.Since(start))),
		)
		if err != nil {
			client.Error(ctx, "gRPC handler failed", err, attrs...)
		} else {
			client.Debug(ctx, "gRPC handler succeeded", attrs...)
		}

		return resp, err
	}
}

// LoggingStreamServerInterceptor interceptor de logging para streams del servidor.
func LoggingStreamServerInterceptor(client *telemetry.Client) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		attrs := append(rpcAttrs(ss.Context(), info.FullMethod), attribute.String("rpc.type", "stream"))

		client.Info(ss.Context(), "gRPC stream handler started", attrs...)

		err := handler(srv, ss)

		attrs = append(attrs, attribute.Float64("rpc.duration_ms", utils.DurationMs(time.Since(start))))
		if err != nil {
			client.Error(ss.Context(), "gRPC stream handler failed", err, attrs...)
		} else {
			client.Info(ss.Context(), "gRPC stream handler completed", attrs...)
		}

		return err
	}
}

// TelemetryUnaryServerInterceptor agrega al contexto los atributos de la
// llamada para que los logs del handler los incluyan.
func TelemetryUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		ctx = telemetry.AppendEventAttrs(ctx, rpcAttrs(ctx, info.FullMethod)...)
		return handler(ctx, req)
	}
}
