package openapi

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/semconv"
	"go.opentelemetry.io/otel/attribute"
)

// Hosts del venue.
const (
	DemoHost    = "demo.ctraderapi.com"
	LiveHost    = "live.ctraderapi.com"
	DefaultPort = 5035
)

// ErrNotConnected se devuelve al enviar sin conexión activa.
var ErrNotConnected = errors.New("not connected")

// HostFor resuelve el host a partir del entorno demo|live.
func HostFor(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "demo":
		return DemoHost, nil
	case "live":
		return LiveHost, nil
	}
	return "", fmt.Errorf("invalid host %q: expected demo or live", env)
}

// Handler recibe los eventos del transporte. Las llamadas son secuenciales
// y en orden: OnConnected, OnMessage*, OnDisconnected, por cada conexión.
type Handler interface {
	OnConnected()
	OnDisconnected(err error)
	OnMessage(msg *Message)
}

// ClientConfig configuración del transporte.
type ClientConfig struct {
	Host string
	Port int

	// UseTLS desactivable sólo para pruebas locales
	UseTLS    bool
	TLSConfig *tls.Config

	DialTimeout       time.Duration
	HeartbeatInterval time.Duration
	// WriteTimeout plazo de cada escritura; 0 sin plazo
	WriteTimeout time.Duration

	// Reconexión
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
}

// DefaultClientConfig retorna configuración por defecto para un host.
func DefaultClientConfig(host string) ClientConfig {
	return ClientConfig{
		Host:              host,
		Port:              DefaultPort,
		UseTLS:            true,
		DialTimeout:       10 * time.Second,
		HeartbeatInterval: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReconnectInitial:  1 * time.Second,
		ReconnectMax:      30 * time.Second,
	}
}

// Address devuelve host:port.
func (c ClientConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client mantiene la conexión TCP/TLS con el venue, reconecta con backoff
// exponencial y envía heartbeats mientras la conexión está arriba.
type Client struct {
	config    ClientConfig
	handler   Handler
	telemetry *telemetry.Client

	mu   sync.Mutex
	conn net.Conn

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient crea el transporte. No conecta hasta Start.
func NewClient(config ClientConfig, handler Handler, tel *telemetry.Client) *Client {
	return &Client{
		config:    config,
		handler:   handler,
		telemetry: tel,
	}
}

// Start lanza el ciclo de conexión en segundo plano.
func (c *Client) Start(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.run()
}

// Close detiene el ciclo y cierra la conexión activa.
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
	c.wg.Wait()
	return nil
}

// Connected indica si hay una conexión activa.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Send serializa y escribe un mensaje. Falla con ErrNotConnected sin conexión.
// Una escritura fallida o vencida cierra la conexión: el frame pudo quedar a
// medias y el ciclo de lectura reconecta.
func (c *Client) Send(msg *Message) error {
	body, err := Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	if c.config.WriteTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	if err := WriteFrame(c.conn, body); err != nil {
		_ = c.conn.Close()
		return fmt.Errorf("write %s: %w", msg.PayloadType, err)
	}
	return nil
}

func (c *Client) run() {
	defer c.wg.Done()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.ReconnectInitial
	b.MaxInterval = c.config.ReconnectMax
	b.MaxElapsedTime = 0
	b.Reset()

	attempt := 0
	for {
		conn, err := c.dial()
		if err != nil {
			attempt++
			c.telemetry.Warn(c.ctx, "Venue dial failed",
				semconv.Proxy.Host.String(c.config.Address()),
				semconv.Proxy.Attempt.Int(attempt),
				attribute.String("error", err.Error()),
			)
			c.telemetry.ProxyMetrics().RecordReconnect(c.ctx, attempt)
			if !c.sleep(b.NextBackOff()) {
				return
			}
			continue
		}

		attempt = 0
		b.Reset()
		c.setConn(conn)
		c.telemetry.Info(c.ctx, "Venue connected", semconv.Proxy.Host.String(c.config.Address()))
		c.handler.OnConnected()

		err = c.serve(conn)

		c.setConn(nil)
		_ = conn.Close()
		if c.ctx.Err() != nil {
			c.handler.OnDisconnected(c.ctx.Err())
			return
		}
		c.telemetry.Warn(c.ctx, "Venue disconnected",
			semconv.Proxy.Host.String(c.config.Address()),
			attribute.String("error", errString(err)),
		)
		c.handler.OnDisconnected(err)

		if !c.sleep(b.NextBackOff()) {
			return
		}
	}
}

func (c *Client) dial() (net.Conn, error) {
	netDialer := &net.Dialer{Timeout: c.config.DialTimeout}
	if !c.config.UseTLS {
		return netDialer.DialContext(c.ctx, "tcp", c.config.Address())
	}
	tlsConfig := c.config.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: c.config.Host, MinVersion: tls.VersionTLS12}
	}
	dialer := &tls.Dialer{NetDialer: netDialer, Config: tlsConfig}
	return dialer.DialContext(c.ctx, "tcp", c.config.Address())
}

// serve lee frames hasta error y mantiene el heartbeat.
func (c *Client) serve(conn net.Conn) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-c.ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	if c.config.HeartbeatInterval > 0 {
		go c.heartbeat(done)
	}

	for {
		body, err := ReadFrame(conn)
		if err != nil {
			return err
		}
		msg, err := Unmarshal(body)
		if err != nil {
			c.telemetry.Warn(c.ctx, "Dropping undecodable frame", attribute.String("error", err.Error()))
			continue
		}
		if msg.PayloadType == PayloadHeartbeatEvent {
			continue
		}
		c.handler.OnMessage(msg)
	}
}

func (c *Client) heartbeat(done <-chan struct{}) {
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.Send(MustMessage(PayloadHeartbeatEvent)); err != nil {
				c.telemetry.Debug(c.ctx, "Heartbeat not sent", attribute.String("error", err.Error()))
			}
		}
	}
}

func (c *Client) setConn(conn net.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) sleep(d time.Duration) bool {
	if d == backoff.Stop {
		d = c.config.ReconnectMax
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-c.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
