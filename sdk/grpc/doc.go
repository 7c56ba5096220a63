// Package grpc envuelve grpc.Server para los servicios de administración del
// proxy: listener propio, keepalive, graceful shutdown e interceptors de
// telemetría.
//
// # Servidor gRPC
//
//	config := grpc.DefaultServerConfig(9010)
//	config.UnaryInterceptors = []grpc.UnaryServerInterceptor{
//	    grpc.TelemetryUnaryServerInterceptor(),
//	    grpc.LoggingUnaryServerInterceptor(telemetryClient),
//	}
//	config.StreamInterceptors = []grpc.StreamServerInterceptor{
//	    grpc.LoggingStreamServerInterceptor(telemetryClient),
//	}
//
//	server, err := grpc.NewServer(config)
//	if err != nil {
//	    return err
//	}
//	healthpb.RegisterHealthServer(server.GRPCServer(), healthServer)
//
//	// Bloquea hasta que ctx se cancele
//	if err := server.Serve(ctx); err != nil {
//	    return err
//	}
//
// # Graceful Shutdown
//
// Serve hace graceful shutdown al cancelar el contexto. Shutdown puede
// llamarse directamente; pasado ShutdownGracePeriod se fuerza el cierre.
package grpc
