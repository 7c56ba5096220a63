package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xKoRx/openapi-proxy/internal/command"
	"github.com/xKoRx/openapi-proxy/internal/journal"
	"github.com/xKoRx/openapi-proxy/internal/session"
	"github.com/xKoRx/openapi-proxy/sdk/domain"
	"github.com/xKoRx/openapi-proxy/sdk/openapi"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/metricbundle"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/semconv"
	"go.opentelemetry.io/otel/attribute"
)

// ErrJournalDisabled no hay journal configurado.
var ErrJournalDisabled = errors.New("journal disabled")

// Transport conexión con el venue. *openapi.Client la implementa.
type Transport interface {
	Start(ctx context.Context)
	Send(msg *openapi.Message) error
	Close() error
}

// TransportFactory construye el transporte con el proxy como Handler.
type TransportFactory func(handler openapi.Handler) Transport

// Event mensaje no solicitado del venue (spots, ejecuciones del servidor,
// cambios de margen...).
type Event struct {
	Type        string          `json:"type"`
	PayloadType uint32          `json:"payloadType"`
	AccountID   int64           `json:"accountId,omitempty"`
	ReceivedAt  time.Time       `json:"receivedAt"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// EventSink recibe los eventos no solicitados. Publish no debe bloquear.
type EventSink interface {
	Publish(evt Event)
}

// Result resultado de un comando: texto informativo o mensaje del venue.
type Result struct {
	RequestID string
	Command   string
	Text      string
	Message   *openapi.Message
}

// SessionView estado público de la sesión.
type SessionView struct {
	session.Snapshot
	Pending   int    `json:"pending"`
	Host      string `json:"host"`
	Connected bool   `json:"connected"`
}

// Proxy orquesta el transporte, la sesión y el despacho de comandos.
//
// Responsabilidades:
//   - Recibir comandos ya validados y encolarlos en el Router
//   - Esperar la resolución de cada petición
//   - Publicar el estado de sesión y los eventos no solicitados
//   - Journal de peticiones y telemetría
type Proxy struct {
	config    *Config
	registry  *command.Registry
	transport Transport
	router    *Router

	journal   *journal.Store
	journalCh chan journalOp
	sink      EventSink
	observer  func(session.Phase)

	telemetry    *telemetry.Client
	ownTelemetry bool
	metrics      *metricbundle.ProxyMetrics

	view atomic.Pointer[SessionView]
	now  func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
}

// Option configura el Proxy.
type Option func(*Proxy)

// WithTelemetry usa un cliente de telemetría existente.
func WithTelemetry(tel *telemetry.Client) Option { return func(p *Proxy) { p.telemetry = tel } }

// WithTransport reemplaza el cliente TCP/TLS por defecto.
func WithTransport(factory TransportFactory) Option {
	return func(p *Proxy) { p.transport = factory(p) }
}

// WithJournal activa el journal de peticiones.
func WithJournal(store *journal.Store) Option { return func(p *Proxy) { p.journal = store } }

// WithEventSink recibe los eventos no solicitados.
func WithEventSink(sink EventSink) Option { return func(p *Proxy) { p.sink = sink } }

// WithPhaseObserver se invoca en cada cambio de fase, desde el bucle de eventos.
func WithPhaseObserver(fn func(session.Phase)) Option { return func(p *Proxy) { p.observer = fn } }

// WithClock reemplaza time.Now.
func WithClock(now func() time.Time) Option { return func(p *Proxy) { p.now = now } }

// New crea el proxy. No abre conexiones hasta Start.
//
// Example:
//
//	cfg, _ := internal.LoadConfig(ctx)
//	proxy, err := internal.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer proxy.Shutdown(ctx)
func New(ctx context.Context, config *Config, opts ...Option) (*Proxy, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	proxyCtx, cancel := context.WithCancel(ctx)
	p := &Proxy{
		config:    config,
		journalCh: make(chan journalOp, 1024),
		now:       time.Now,
		ctx:       proxyCtx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.telemetry == nil {
		telOpts := []telemetry.Option{
			telemetry.WithVersion(config.ServiceVersion),
			telemetry.WithLogLevel(config.LogLevel),
		}
		if config.OTLPEndpoint != "" {
			telOpts = append(telOpts, telemetry.WithOTLPEndpoint(config.OTLPEndpoint))
		}
		tel, err := telemetry.New(proxyCtx, config.ServiceName, config.Environment, telOpts...)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		p.telemetry = tel
		p.ownTelemetry = true
	}
	p.metrics = p.telemetry.ProxyMetrics()

	p.ctx = telemetry.AppendCommonAttrs(p.ctx,
		semconv.Proxy.Component.String("proxy"),
		semconv.Proxy.Host.String(config.Host),
	)

	registry, err := command.DefaultRegistry()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build command registry: %w", err)
	}
	p.registry = registry

	if p.transport == nil {
		clientCfg := openapi.DefaultClientConfig(config.Host)
		p.transport = openapi.NewClient(clientCfg, p, p.telemetry)
	}

	p.router = NewRouter(p)
	p.publishView(p.router.view())

	p.telemetry.Info(p.ctx, "Proxy initialized",
		attribute.String("http_addr", config.HTTPAddr),
		attribute.Int64("default_account_id", config.DefaultAccountID),
		attribute.String("request_timeout", config.RequestTimeout.String()),
		attribute.Bool("journal_enabled", p.journal != nil),
	)
	return p, nil
}

// Start arranca el bucle de eventos, el journal y el transporte.
func (p *Proxy) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("proxy already closed")
	}
	if p.started {
		return nil
	}
	p.started = true

	if err := p.router.Start(); err != nil {
		return fmt.Errorf("failed to start router: %w", err)
	}

	if p.journal != nil {
		p.wg.Add(1)
		go p.journalLoop()
		if p.config.JournalRetention > 0 {
			p.wg.Add(1)
			go p.journalCleanupLoop()
		}
	}

	p.transport.Start(p.ctx)
	p.telemetry.Info(p.ctx, "Proxy started", semconv.Proxy.Host.String(p.config.Host))
	return nil
}

// Shutdown cierra el transporte, falla las peticiones en vuelo y libera recursos.
func (p *Proxy) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	var errs []error
	if err := p.transport.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close transport: %w", err))
	}
	p.router.Stop()
	p.cancel()
	p.wg.Wait()

	if p.journal != nil {
		p.drainJournal()
		if err := p.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}

	p.telemetry.Info(context.Background(), "Proxy stopped")
	if p.ownTelemetry {
		if err := p.telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnConnected implementa openapi.Handler.
func (p *Proxy) OnConnected() {
	p.router.enqueue(routerEvent{kind: eventConnected})
}

// OnDisconnected implementa openapi.Handler.
func (p *Proxy) OnDisconnected(err error) {
	p.router.enqueue(routerEvent{kind: eventDisconnected, err: err})
}

// OnMessage implementa openapi.Handler.
func (p *Proxy) OnMessage(msg *openapi.Message) {
	p.router.enqueue(routerEvent{kind: eventInbound, msg: msg})
}

// Execute valida argumentos posicionales y ejecuta el comando.
func (p *Proxy) Execute(ctx context.Context, name string, args []string) (*Result, error) {
	cmd, err := p.registry.Parse(name, args)
	if err != nil {
		return nil, err
	}
	return p.Dispatch(ctx, cmd)
}

// ExecuteNamed valida argumentos por nombre y ejecuta el comando.
func (p *Proxy) ExecuteNamed(ctx context.Context, name string, args map[string]string) (*Result, error) {
	cmd, err := p.registry.ParseNamed(name, args)
	if err != nil {
		return nil, err
	}
	return p.Dispatch(ctx, cmd)
}

// Dispatch entrega un comando ya validado al bucle de eventos y espera su
// resolución. Si ctx termina antes, la petición queda en vuelo y su
// resultado se descarta.
func (p *Proxy) Dispatch(ctx context.Context, cmd command.Command) (*Result, error) {
	req := &dispatchRequest{ctx: ctx, cmd: cmd, done: make(chan dispatchOutcome, 1)}
	if err := p.router.submit(ctx, req); err != nil {
		return nil, err
	}

	var out dispatchOutcome
	select {
	case out = <-req.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if out.err != nil {
		return nil, out.err
	}

	result := &Result{RequestID: out.requestID, Command: cmd.CommandName(), Text: out.text}
	if out.completion == nil {
		return result, nil
	}
	msg, err := out.completion.Wait(ctx)
	if err != nil {
		return nil, err
	}
	result.Message = msg
	return result, nil
}

// Session devuelve el último estado publicado por el bucle de eventos.
func (p *Proxy) Session() SessionView {
	if v := p.view.Load(); v != nil {
		return *v
	}
	return SessionView{}
}

// Commands contratos del registro, ordenados por nombre.
func (p *Proxy) Commands() []command.Contract {
	descriptors := p.registry.Descriptors()
	out := make([]command.Contract, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.Contract())
	}
	return out
}

// Journal devuelve las últimas peticiones registradas.
func (p *Proxy) Journal(limit int) ([]*journal.Record, error) {
	if p.journal == nil {
		return nil, ErrJournalDisabled
	}
	return p.journal.Recent(limit)
}

// DefaultAccountID cuenta configurada por defecto, o 0.
func (p *Proxy) DefaultAccountID() int64 {
	return p.config.DefaultAccountID
}

// Telemetry cliente de telemetría del proxy.
func (p *Proxy) Telemetry() *telemetry.Client {
	return p.telemetry
}

func (p *Proxy) publishView(v SessionView) {
	v.Host = p.config.Host
	p.view.Store(&v)
}

// errShutdown causa de ConnectionLost para peticiones vivas al apagar.
var errShutdown = domain.ConnectionLost(errors.New("proxy shutting down"))
