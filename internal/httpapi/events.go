package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xKoRx/openapi-proxy/internal"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/semconv"
	"github.com/xKoRx/openapi-proxy/sdk/utils"
	"go.opentelemetry.io/otel/attribute"
)

const (
	outboundBufferSize = 64
	writeWait          = 10 * time.Second
	pingPeriod         = 30 * time.Second
	maxClientMessage   = 512
)

// EventHub difunde los eventos no solicitados del venue a los clientes
// websocket de /ws/events. Implementa internal.EventSink.
//
// Filtros opcionales en la URL: ?type=ProtoOASpotEvent (repetible) y
// ?accountId=N.
type EventHub struct {
	upgrader  websocket.Upgrader
	telemetry *telemetry.Client

	mu      sync.RWMutex
	clients map[*eventClient]struct{}
	closed  bool
}

type eventClient struct {
	id        string
	conn      *websocket.Conn
	send      chan internal.Event
	types     map[string]struct{}
	accountID int64
	dropped   atomic.Int64
}

// NewEventHub crea un hub sin clientes.
func NewEventHub(tel *telemetry.Client) *EventHub {
	return &EventHub{
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		telemetry: tel,
		clients:   make(map[*eventClient]struct{}),
	}
}

// Publish entrega evt a los clientes suscritos sin bloquear: un cliente con
// el buffer lleno pierde el evento.
func (h *EventHub) Publish(evt internal.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(evt) {
			continue
		}
		select {
		case c.send <- evt:
		default:
			c.dropped.Add(1)
			h.telemetry.RecordCounter(context.Background(), "proxy.events.dropped", 1,
				semconv.Proxy.PayloadType.String(evt.Type),
			)
		}
	}
}

// Clients número de clientes conectados.
func (h *EventHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close desconecta a todos los clientes y rechaza nuevos.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP atiende GET /ws/events.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	client := &eventClient{
		id:    utils.GenerateUUIDv7(),
		send:  make(chan internal.Event, outboundBufferSize),
		types: make(map[string]struct{}),
	}
	query := r.URL.Query()
	for _, raw := range query["type"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				client.types[t] = struct{}{}
			}
		}
	}
	if raw := query.Get("accountId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, `{"error":"parameter accountId: expected a positive integer"}`, http.StatusBadRequest)
			return
		}
		client.accountID = id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.telemetry.Warn(r.Context(), "Websocket upgrade failed", attribute.String("error", err.Error()))
		return
	}
	client.conn = conn

	if !h.register(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.telemetry.Info(r.Context(), "Event stream client connected",
		attribute.String("client_id", client.id),
		attribute.Int("clients", h.Clients()),
	)

	go client.writeLoop()
	client.readLoop()

	h.unregister(client)
	h.telemetry.Info(r.Context(), "Event stream client disconnected",
		attribute.String("client_id", client.id),
		attribute.Int64("dropped_events", client.dropped.Load()),
	)
}

func (h *EventHub) register(c *eventClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *EventHub) unregister(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *eventClient) wants(evt internal.Event) bool {
	if c.accountID != 0 && evt.AccountID != c.accountID {
		return false
	}
	if len(c.types) == 0 {
		return true
	}
	_, ok := c.types[evt.Type]
	return ok
}

// readLoop descarta lo que envíe el cliente; termina al cerrarse la conexión.
func (c *eventClient) readLoop() {
	c.conn.SetReadLimit(maxClientMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pingPeriod * 2))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingPeriod * 2))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *eventClient) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
