// Package httpapi expone el proxy por HTTP: el endpoint genérico /get-data,
// los endpoints JSON de conveniencia, endpoints de sólo lectura sobre la
// sesión y el journal, y el stream websocket de eventos no solicitados.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xKoRx/openapi-proxy/internal"
	"github.com/xKoRx/openapi-proxy/internal/command"
	"github.com/xKoRx/openapi-proxy/internal/journal"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/metricbundle"
	"go.opentelemetry.io/otel/attribute"
)

// Backend operaciones del proxy que usa el puente HTTP. *internal.Proxy la implementa.
type Backend interface {
	Execute(ctx context.Context, name string, args []string) (*internal.Result, error)
	ExecuteNamed(ctx context.Context, name string, args map[string]string) (*internal.Result, error)
	Session() internal.SessionView
	Commands() []command.Contract
	Journal(limit int) ([]*journal.Record, error)
}

// Config configuración del servidor HTTP.
type Config struct {
	// Addr dirección de escucha (host:port)
	Addr string

	// ReadHeaderTimeout plazo para leer cabeceras
	ReadHeaderTimeout time.Duration

	// ShutdownGracePeriod espera máxima de peticiones en curso al apagar
	ShutdownGracePeriod time.Duration
}

// DefaultConfig configuración por defecto.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:                addr,
		ReadHeaderTimeout:   10 * time.Second,
		ShutdownGracePeriod: 10 * time.Second,
	}
}

// Server puente HTTP del proxy.
type Server struct {
	config    Config
	backend   Backend
	hub       *EventHub
	telemetry *telemetry.Client
	metrics   *metricbundle.ProxyMetrics
	router    chi.Router
}

// NewServer crea el servidor. hub puede ser nil: /ws/events responde 404.
func NewServer(config Config, backend Backend, hub *EventHub, tel *telemetry.Client) *Server {
	s := &Server{
		config:    config,
		backend:   backend,
		hub:       hub,
		telemetry: tel,
		metrics:   tel.ProxyMetrics(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/get-data", s.getData)
	r.Post("/api/set-account", s.setAccount)
	r.Post("/api/trendbars", s.trendbars)
	r.Post("/api/live-quote", s.liveQuote)
	r.Post("/api/market-order", s.marketOrder)
	r.Get("/api/session", s.session)
	r.Get("/api/commands", s.commands)
	r.Get("/api/journal", s.journal)
	r.Get("/healthz", s.healthz)
	if s.hub != nil {
		r.Get("/ws/events", s.hub.ServeHTTP)
	}
	return r
}

// Handler devuelve el http.Handler con todas las rutas.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve escucha en Config.Addr y bloquea hasta que ctx se cancele o el
// servidor falle. Al cancelar hace un apagado ordenado.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.telemetry.Info(ctx, "HTTP server listening", attribute.String("addr", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
		return fmt.Errorf("forced HTTP shutdown: %w", err)
	}
	s.telemetry.Info(context.Background(), "HTTP server stopped")
	return nil
}
