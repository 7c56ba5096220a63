package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

// ServerConfig configuración para servidor gRPC.
type ServerConfig struct {
	// Port puerto del servidor (0 = puerto libre asignado por el sistema)
	Port int

	// Address dirección de bind (ej: "0.0.0.0", "127.0.0.1")
	Address string

	// KeepAlive configuración de keepalive
	KeepAlive *ServerKeepAliveConfig

	// ShutdownGracePeriod periodo de gracia para shutdown
	ShutdownGracePeriod time.Duration

	// UnaryInterceptors interceptors para llamadas unary
	UnaryInterceptors []grpc.UnaryServerInterceptor

	// StreamInterceptors interceptors para streams (Health.Watch)
	StreamInterceptors []grpc.StreamServerInterceptor
}

// ServerKeepAliveConfig configuración de keepalive del servidor.
type ServerKeepAliveConfig struct {
	// MaxConnectionIdle tiempo máximo de conexión idle antes de cerrar
	MaxConnectionIdle time.Duration

	// MaxConnectionAge edad máxima de conexión antes de forzar cierre
	MaxConnectionAge time.Duration

	// MaxConnectionAgeGrace periodo de gracia tras MaxConnectionAge
	MaxConnectionAgeGrace time.Duration

	// Time intervalo de keepalive pings
	Time time.Duration

	// Timeout timeout para respuesta de ping
	Timeout time.Duration
}

// DefaultServerConfig retorna configuración por defecto.
func DefaultServerConfig(port int) *ServerConfig {
	return &ServerConfig{
		Port:                port,
		Address:             "0.0.0.0",
		ShutdownGracePeriod: 5 * time.Second,
		KeepAlive: &ServerKeepAliveConfig{
			MaxConnectionIdle:     5 * time.Minute,
			MaxConnectionAge:      0, // Sin límite
			MaxConnectionAgeGrace: 1 * time.Minute,
			Time:                  2 * time.Hour,
			Timeout:               20 * time.Second,
		},
	}
}

// Server wrapper sobre grpc.Server con listener propio y shutdown ordenado.
type Server struct {
	grpcServer *grpc.Server
	config     *ServerConfig
	listener   net.Listener
}

// NewServer crea el servidor y abre el listener.
//
// Example:
//
//	config := grpc.DefaultServerConfig(9010)
//	server, err := grpc.NewServer(config)
//	if err != nil {
//	    return err
//	}
//
//	healthpb.RegisterHealthServer(server.GRPCServer(), healthServer)
//
//	if err := server.Serve(ctx); err != nil {
//	    return err
//	}
func NewServer(config *ServerConfig) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	opts := []grpc.ServerOption{}

	// KeepAlive
	if config.KeepAlive != nil {
		kaParams := keepalive.ServerParameters{
			MaxConnectionIdle:     config.KeepAlive.MaxConnectionIdle,
			MaxConnectionAge:      config.KeepAlive.MaxConnectionAge,
			MaxConnectionAgeGrace: config.KeepAlive.MaxConnectionAgeGrace,
			Time:                  config.KeepAlive.Time,
			Timeout:               config.KeepAlive.Timeout,
		}
		opts = append(opts, grpc.KeepaliveParams(kaParams))
		opts = append(opts, grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             10 * time.Second,
			PermitWithoutStream: true,
		}))
	}

	// Interceptors
	if len(config.UnaryInterceptors) > 0 {
		opts = append(opts, grpc.ChainUnaryInterceptor(config.UnaryInterceptors...))
	}
	if len(config.StreamInterceptors) > 0 {
		opts = append(opts, grpc.ChainStreamInterceptor(config.StreamInterceptors...))
	}

	address := net.JoinHostPort(config.Address, fmt.Sprint(config.Port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	return &Server{
		grpcServer: grpc.NewServer(opts...),
		config:     config,
		listener:   listener,
	}, nil
}

// GRPCServer retorna el servidor gRPC subyacente para registrar servicios.
func (s *Server) GRPCServer() *grpc.Server {
	return s.grpcServer
}

// Address dirección real de escucha (resuelve el puerto 0).
func (s *Server) Address() string {
	return s.listener.Addr().String()
}

// Serve atiende conexiones y bloquea hasta que ctx se cancele o Serve falle.
// Al cancelar ctx hace un graceful shutdown.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown hace un graceful shutdown del servidor.
//
// Espera a que terminen las llamadas activas hasta ShutdownGracePeriod y
// luego fuerza el cierre. Los streams Watch abiertos sólo terminan forzando.
func (s *Server) Shutdown() error {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	timeout := s.config.ShutdownGracePeriod
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		s.grpcServer.Stop()
		return fmt.Errorf("forced shutdown after %v", timeout)
	}
}
