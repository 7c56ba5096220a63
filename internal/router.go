package internal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xKoRx/openapi-proxy/internal/command"
	"github.com/xKoRx/openapi-proxy/internal/correlation"
	"github.com/xKoRx/openapi-proxy/internal/session"
	"github.com/xKoRx/openapi-proxy/sdk/domain"
	"github.com/xKoRx/openapi-proxy/sdk/openapi"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/semconv"
	"github.com/xKoRx/openapi-proxy/sdk/utils"
	"go.opentelemetry.io/otel/attribute"
)

// Mensajes informativos devueltos como {"result": ...}.
const (
	textAccountChanged = "Account changed successfully"
	textNoAccount      = "No accountId in request body and CTRADER_ACCOUNTID not set in .env"
)

// Comandos internos, no accesibles por HTTP.
const (
	commandAppAuth     = "applicationAuth"
	commandAccountAuth = "accountAuth"
)

// Router bucle de eventos del proxy.
//
// Es el único dueño de la Session y de la tabla de correlación: eventos del
// transporte, comandos y vencimientos se procesan uno a uno en processLoop.
type Router struct {
	proxy *Proxy

	session   *session.Session
	table     *correlation.Table
	lastPhase session.Phase

	// Canal de procesamiento secuencial
	processCh chan routerEvent

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type eventKind int

const (
	eventConnected eventKind = iota + 1
	eventDisconnected
	eventInbound
	eventDispatch
)

// routerEvent evento interno del router.
type routerEvent struct {
	kind     eventKind
	err      error
	msg      *openapi.Message
	dispatch *dispatchRequest
}

// dispatchRequest comando entregado por Proxy.Dispatch.
type dispatchRequest struct {
	ctx  context.Context
	cmd  command.Command
	done chan dispatchOutcome
}

// dispatchOutcome resultado síncrono del despacho: texto, completion o error.
type dispatchOutcome struct {
	requestID  string
	text       string
	completion *correlation.Completion
	err        error
}

// NewRouter crea el router de un proxy.
func NewRouter(proxy *Proxy) *Router {
	ctx, cancel := context.WithCancel(proxy.ctx)
	r := &Router{
		proxy:     proxy,
		session:   session.New(),
		table:     correlation.NewTable(),
		processCh: make(chan routerEvent, 1000),
		ctx:       ctx,
		cancel:    cancel,
	}
	r.table.OnRejected(r.rejected)
	return r
}

// rejected registra una segunda resolución de la misma petición.
func (r *Router) rejected(p *correlation.Pending, err error) {
	r.proxy.telemetry.Error(r.ctx, "Duplicate resolution rejected", err,
		semconv.Proxy.RequestID.String(p.RequestID),
		semconv.Proxy.Command.String(p.Command),
	)
}

// Start inicia el loop de procesamiento.
func (r *Router) Start() error {
	r.wg.Add(1)
	go r.processLoop()

	r.proxy.telemetry.Info(r.ctx, "Router started")
	return nil
}

// Stop detiene el router; las peticiones en vuelo fallan con ConnectionLost.
func (r *Router) Stop() {
	r.cancel()
	r.wg.Wait()
	r.proxy.telemetry.Info(r.proxy.ctx, "Router stopped")
}

// enqueue encola un evento del transporte. Bloquea si la cola está llena
// para no perder transiciones de conexión.
func (r *Router) enqueue(evt routerEvent) {
	select {
	case r.processCh <- evt:
	case <-r.ctx.Done():
		r.proxy.telemetry.Warn(r.proxy.ctx, "Router stopped, event dropped",
			attribute.Int("event_kind", int(evt.kind)),
		)
	}
}

// submit encola un comando.
func (r *Router) submit(ctx context.Context, req *dispatchRequest) error {
	select {
	case r.processCh <- routerEvent{kind: eventDispatch, dispatch: req}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return errShutdown
	}
}

// processLoop procesa eventos secuencialmente (FIFO).
func (r *Router) processLoop() {
	defer r.wg.Done()

	var sweep <-chan time.Time
	if timeout := r.proxy.config.RequestTimeout; timeout > 0 {
		ticker := time.NewTicker(sweepInterval(timeout))
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case evt := <-r.processCh:
			r.process(evt)

		case now := <-sweep:
			r.expire(now)

		case <-r.ctx.Done():
			r.shutdown()
			return
		}
	}
}

// sweepInterval cada cuánto se revisan los plazos vencidos.
func sweepInterval(timeout time.Duration) time.Duration {
	interval := timeout / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	if interval > time.Second {
		interval = time.Second
	}
	return interval
}

func (r *Router) process(evt routerEvent) {
	switch evt.kind {
	case eventConnected:
		r.handleConnected()
	case eventDisconnected:
		r.handleDisconnected(evt.err)
	case eventInbound:
		r.handleInbound(evt.msg)
	case eventDispatch:
		evt.dispatch.done <- r.handleDispatch(evt.dispatch)
	}

	r.afterEvent()
}

// afterEvent publica el estado y notifica cambios de fase.
func (r *Router) afterEvent() {
	r.observePhase()
	r.proxy.publishView(r.view())
}

// observePhase notifica la fase actual si cambió desde la última notificación.
func (r *Router) observePhase() {
	before, after := r.lastPhase, r.session.Phase()
	if after == before {
		return
	}
	r.lastPhase = after
	r.proxy.metrics.RecordTransition(r.ctx, after.String())
	r.proxy.telemetry.Info(r.ctx, "Session phase changed",
		semconv.Proxy.Phase.String(after.String()),
		attribute.String("previous_phase", before.String()),
		semconv.Proxy.AccountID.Int64(r.session.ActiveAccount()),
	)
	if r.proxy.observer != nil {
		r.proxy.observer(after)
	}
}

func (r *Router) view() SessionView {
	phase := r.session.Phase()
	return SessionView{
		Snapshot:  r.session.Snapshot(),
		Pending:   r.table.Len(),
		Connected: phase != session.PhaseDisconnected,
	}
}

// handleConnected envía la autenticación de aplicación.
func (r *Router) handleConnected() {
	if r.proxy.config.ReauthOnReconnect {
		if stale := r.session.Snapshot().AuthorizedAccounts; len(stale) > 0 {
			r.session.Revoke(stale...)
		}
	}
	r.session.OnConnected()
	r.proxy.telemetry.Info(r.ctx, "Client Connected", semconv.Proxy.Host.String(r.proxy.config.Host))

	msg := openapi.MustMessage(openapi.PayloadApplicationAuthReq).
		Set("clientId", r.proxy.config.ClientID).
		Set("clientSecret", r.proxy.config.ClientSecret)
	if _, err := r.send(commandAppAuth, 0, msg, correlation.ReplyTo(openapi.PayloadApplicationAuthRes, 0)); err != nil {
		r.proxy.telemetry.Error(r.ctx, "Failed to send application auth", err)
	}
}

// handleDisconnected falla todo lo pendiente. Las cuentas autorizadas se conservan.
func (r *Router) handleDisconnected(cause error) {
	r.session.OnDisconnected()
	failed := r.table.FailAll(domain.ConnectionLost(cause))
	for _, p := range failed {
		r.finish(p, nil, domain.ConnectionLost(cause))
	}
	r.proxy.telemetry.Warn(r.ctx, "Client Disconnected",
		attribute.String("reason", errString(cause)),
		semconv.Proxy.Pending.Int(len(failed)),
	)
}

// handleInbound actualiza la sesión con los mensajes de control y resuelve
// la petición correspondiente; lo demás se publica como evento.
func (r *Router) handleInbound(msg *openapi.Message) {
	if r.proxy.telemetry.Enabled(r.ctx, slog.LevelDebug) {
		r.proxy.telemetry.Debug(r.ctx, "Received Message",
			semconv.Proxy.PayloadType.String(msg.PayloadType.String()),
			semconv.Proxy.ClientMsgID.String(msg.ClientMsgID),
		)
	}

	control := true
	switch msg.PayloadType {
	case openapi.PayloadApplicationAuthRes:
		if r.session.OnAppAuthenticated() {
			r.proxy.telemetry.Info(r.ctx, "App auth successful")
		}
	case openapi.PayloadAccountAuthRes:
		if account, ok := msg.AccountID(); ok && r.session.OnAccountAuthenticated(account) {
			r.proxy.telemetry.Info(r.ctx, "Account authorized successfully", semconv.Proxy.AccountID.Int64(account))
		}
	case openapi.PayloadAccountsTokenInvalidatedEvent:
		ids := msg.GetInts("ctidTraderAccountIds")
		reason, _ := msg.GetString("reason")
		r.session.Revoke(ids...)
		r.proxy.telemetry.Warn(r.ctx, "Access token invalidated",
			attribute.Int64Slice("account_ids", ids),
			attribute.String("reason", reason),
		)
	case openapi.PayloadAccountDisconnectEvent:
		account, _ := msg.AccountID()
		r.session.Revoke(account)
		r.proxy.telemetry.Warn(r.ctx, "Account disconnected by venue", semconv.Proxy.AccountID.Int64(account))
	case openapi.PayloadClientDisconnectEvent:
		reason, _ := msg.GetString("reason")
		r.proxy.telemetry.Warn(r.ctx, "Venue is closing the connection", attribute.String("reason", reason))
	default:
		control = false
	}

	if p, ok := r.table.Resolve(msg); ok {
		var err error
		if msg.IsError() {
			err = domain.Protocol(msg.ErrorCode(), msg.Description())
		}
		r.finish(p, msg, err)
		if msg.PayloadType == openapi.PayloadApplicationAuthRes {
			r.autoSetAccount()
		}
		return
	}

	if msg.PayloadType == openapi.PayloadApplicationAuthRes {
		r.autoSetAccount()
		return
	}
	if msg.ClientMsgID != "" {
		r.proxy.telemetry.Warn(r.ctx, "Late reply for a request no longer pending",
			semconv.Proxy.ClientMsgID.String(msg.ClientMsgID),
			semconv.Proxy.PayloadType.String(msg.PayloadType.String()),
		)
	}
	if msg.IsError() {
		r.proxy.telemetry.Error(r.ctx, "API error", domain.Protocol(msg.ErrorCode(), msg.Description()),
			attribute.String("error_code", msg.ErrorCode()),
		)
		return
	}
	if !control {
		r.publishEvent(msg)
	}
}

// autoSetAccount activa la cuenta por defecto tras autenticar la aplicación.
func (r *Router) autoSetAccount() {
	if r.session.Phase() != session.PhaseAppAuthenticated {
		return
	}
	r.observePhase()

	id := r.proxy.config.DefaultAccountID
	if id == 0 {
		r.proxy.telemetry.Warn(r.ctx, "CTRADER_ACCOUNTID not set, call /api/set-account manually")
		return
	}
	r.proxy.telemetry.Info(r.ctx, "Auto-setting default account", semconv.Proxy.AccountID.Int64(id))
	out := r.setAccount(commandAccountAuth, id)
	if out.err != nil {
		r.proxy.telemetry.Error(r.ctx, "Auto account authentication failed", out.err, semconv.Proxy.AccountID.Int64(id))
	}
}

// handleDispatch valida el estado de sesión y envía el comando.
func (r *Router) handleDispatch(req *dispatchRequest) dispatchOutcome {
	if err := req.ctx.Err(); err != nil {
		return dispatchOutcome{err: err}
	}

	switch cmd := req.cmd.(type) {
	case command.SetAccount:
		id := cmd.AccountID
		if id == 0 {
			id = r.proxy.config.DefaultAccountID
		}
		if id == 0 {
			return dispatchOutcome{err: domain.Validationf(textNoAccount)}
		}
		return r.setAccount(command.NameSetAccount, id)

	case command.Request:
		if err := r.session.CheckDispatch(cmd.RequiresActiveAccount()); err != nil {
			return dispatchOutcome{err: err}
		}
		bc := command.BuildContext{
			AccountID:   r.session.ActiveAccount(),
			AccessToken: r.proxy.config.AccessToken,
			Now:         r.proxy.now(),
		}
		msg, err := cmd.Build(bc)
		if err != nil {
			return dispatchOutcome{err: err}
		}
		p, err := r.send(cmd.CommandName(), bc.AccountID, msg, cmd.Reply(bc))
		if err != nil {
			return dispatchOutcome{err: err}
		}
		return dispatchOutcome{requestID: p.RequestID, completion: p.Completion()}
	}

	return dispatchOutcome{err: domain.NewError(domain.KindInternal, "unsupported command "+req.cmd.CommandName())}
}

// setAccount activa una cuenta: sin red si ya estaba autorizada, con
// ProtoOAAccountAuthReq si no.
func (r *Router) setAccount(commandName string, id int64) dispatchOutcome {
	outcome, err := r.session.RequestAccount(id)
	if err != nil {
		return dispatchOutcome{err: err}
	}
	if outcome == session.OutcomeFastPath {
		r.proxy.telemetry.Info(r.ctx, "Account already authorized", semconv.Proxy.AccountID.Int64(id))
		return dispatchOutcome{text: textAccountChanged}
	}

	msg := openapi.MustMessage(openapi.PayloadAccountAuthReq).
		Set("ctidTraderAccountId", id).
		Set("accessToken", r.proxy.config.AccessToken)
	p, err := r.send(commandName, id, msg, correlation.ReplyTo(openapi.PayloadAccountAuthRes, id))
	if err != nil {
		return dispatchOutcome{err: err}
	}
	return dispatchOutcome{requestID: p.RequestID, completion: p.Completion()}
}

// send registra la petición y la entrega al transporte con clientMsgId = requestId.
func (r *Router) send(commandName string, accountID int64, msg *openapi.Message, match correlation.Matcher) (*correlation.Pending, error) {
	p := r.table.Register(commandName, accountID, match, r.proxy.config.RequestTimeout)
	msg.ClientMsgID = p.RequestID

	r.proxy.metrics.RecordDispatched(r.ctx, commandName)
	r.proxy.journalBegin(p, msg)
	r.proxy.telemetry.Debug(r.ctx, "Command dispatched",
		semconv.Proxy.RequestID.String(p.RequestID),
		semconv.Proxy.Command.String(commandName),
		semconv.Proxy.AccountID.Int64(accountID),
		semconv.Proxy.PayloadType.String(msg.PayloadType.String()),
	)

	if err := r.proxy.transport.Send(msg); err != nil {
		lost := domain.ConnectionLost(err)
		r.table.Fail(p.RequestID, lost)
		r.finish(p, nil, lost)
		return nil, lost
	}
	return p, nil
}

// expire resuelve con Timeout las peticiones vencidas.
func (r *Router) expire(now time.Time) {
	expired := r.table.Expire(now)
	if len(expired) == 0 {
		return
	}
	for _, p := range expired {
		r.finish(p, nil, domain.Timeout())
	}
	r.afterEvent()
}

// finish cierra una petición resuelta: sesión, métricas, journal y logs.
func (r *Router) finish(p *correlation.Pending, reply *openapi.Message, err error) {
	isAccountAuth := p.Command == command.NameSetAccount || p.Command == commandAccountAuth
	if err != nil && isAccountAuth && r.session.PendingAccount() == p.AccountID {
		r.session.OnAccountAuthFailed()
	}

	status := "ok"
	if err != nil {
		status = "error"
		if domain.IsKind(err, domain.KindTimeout) {
			status = "timeout"
		}
	}
	latency := utils.ElapsedMs(p.CreatedAt, r.proxy.now())
	r.proxy.metrics.RecordCompleted(r.ctx, p.Command, status, latency)
	r.proxy.journalFinish(p, reply, err)

	attrs := []attribute.KeyValue{
		semconv.Proxy.RequestID.String(p.RequestID),
		semconv.Proxy.Command.String(p.Command),
		semconv.Proxy.Status.String(status),
		attribute.Float64("latency_ms", latency),
	}
	if err != nil {
		attrs = append(attrs, semconv.Proxy.ErrorKind.String(string(domain.KindOf(err))))
		r.proxy.telemetry.Warn(r.ctx, "Command failed", append(attrs, attribute.String("error", err.Error()))...)
		return
	}
	r.proxy.telemetry.Debug(r.ctx, "Command resolved", attrs...)
}

// publishEvent difunde un mensaje no solicitado.
func (r *Router) publishEvent(msg *openapi.Message) {
	r.proxy.metrics.RecordUnsolicited(r.ctx, uint32(msg.PayloadType))
	if r.proxy.sink == nil {
		return
	}
	evt := Event{
		Type:        msg.Name(),
		PayloadType: uint32(msg.PayloadType),
		ReceivedAt:  r.proxy.now(),
	}
	if account, ok := msg.AccountID(); ok {
		evt.AccountID = account
	}
	if msg.Payload != nil {
		payload, err := msg.MarshalPayloadJSON()
		if err != nil {
			r.proxy.telemetry.Error(r.ctx, "Failed to render event payload", err,
				semconv.Proxy.PayloadType.String(msg.PayloadType.String()),
			)
			return
		}
		evt.Payload = payload
	}
	r.proxy.sink.Publish(evt)
}

// shutdown falla lo pendiente al detener el router.
func (r *Router) shutdown() {
	for _, p := range r.table.FailAll(errShutdown) {
		r.finish(p, nil, errShutdown)
	}
	r.proxy.publishView(r.view())
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "closed"
	}
	return err.Error()
}
