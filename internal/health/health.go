// Package health publica el estado de la sesión como servicio estándar
// grpc.health.v1: SERVING sólo mientras hay una cuenta activa autenticada.
package health

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/xKoRx/openapi-proxy/internal/session"
	sdkgrpc "github.com/xKoRx/openapi-proxy/sdk/grpc"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/semconv"
	"go.opentelemetry.io/otel/attribute"
)

// Service nombre del servicio reportado además del servicio vacío "".
const Service = "openapi-proxy"

// StatusFor estado de salud para una fase de sesión.
func StatusFor(phase session.Phase) healthpb.HealthCheckResponse_ServingStatus {
	if phase == session.PhaseAccountAuthenticated {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// Server servidor gRPC de health.
type Server struct {
	server    *sdkgrpc.Server
	health    *grpchealth.Server
	telemetry *telemetry.Client
}

// New abre el listener en address:port y registra el servicio de health
// en NOT_SERVING.
func New(address string, port int, tel *telemetry.Client) (*Server, error) {
	config := sdkgrpc.DefaultServerConfig(port)
	if address != "" {
		config.Address = address
	}
	config.UnaryInterceptors = []grpc.UnaryServerInterceptor{
		sdkgrpc.TelemetryUnaryServerInterceptor(),
		sdkgrpc.LoggingUnaryServerInterceptor(tel),
	}
	config.StreamInterceptors = []grpc.StreamServerInterceptor{
		sdkgrpc.LoggingStreamServerInterceptor(tel),
	}

	server, err := sdkgrpc.NewServer(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create health server: %w", err)
	}

	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(server.GRPCServer(), hs)

	s := &Server{server: server, health: hs, telemetry: tel}
	s.Observe(session.PhaseDisconnected)
	return s, nil
}

// Observe actualiza el estado según la fase. Es el observador de fases del proxy.
func (s *Server) Observe(phase session.Phase) {
	status := StatusFor(phase)
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(Service, status)
	s.telemetry.Debug(context.Background(), "Health status updated",
		semconv.Proxy.Phase.String(phase.String()),
		attribute.String("status", status.String()),
	)
}

// Address dirección real de escucha.
func (s *Server) Address() string {
	return s.server.Address()
}

// Serve bloquea hasta que ctx se cancele. Al salir marca todos los servicios
// NOT_SERVING para que los Watch abiertos lo vean antes del cierre.
func (s *Server) Serve(ctx context.Context) error {
	s.telemetry.Info(ctx, "Health gRPC server listening", attribute.String("addr", s.Address()))
	go func() {
		<-ctx.Done()
		s.health.Shutdown()
	}()
	return s.server.Serve(ctx)
}
