package etcd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/namespace"
)

const (
	defaultTimeout = 5 * time.Second

	// EnvEndpoints variable con la lista de endpoints separada por comas.
	EnvEndpoints = "ETCD_ENDPOINTS"
	envTimeout   = "ETCD_TIMEOUT"
	envScope     = "ENV"
)

type (
	// KV lectura de etcd que usa el cliente; la configuración es de sólo lectura.
	KV interface {
		Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	}

	// Client cliente etcd con namespace /<app>/<env>/.
	Client struct {
		raw     *clientv3.Client
		kv      KV
		app     string
		env     string
		timeout time.Duration
	}
)

// Option modifica la configuración del cliente.
type Option func(*config)

type config struct {
	endpoints []string
	timeout   time.Duration
	app       string
	env       string
}

func defaultConfig() *config {
	timeout := defaultTimeout
	if s, err := strconv.Atoi(os.Getenv(envTimeout)); err == nil && s > 0 {
		timeout = time.Duration(s) * time.Second
	}
	return &config{
		endpoints: EndpointsFromEnv(),
		timeout:   timeout,
		app:       "default",
		env:       firstNonEmpty(os.Getenv(envScope), "development"),
	}
}

// WithApp establece el nombre de la aplicación para el namespace
func WithApp(name string) Option { return func(c *config) { c.app = name } }

// WithEnv establece el entorno para el namespace
func WithEnv(env string) Option { return func(c *config) { c.env = env } }

// EndpointsFromEnv lee ETCD_ENDPOINTS. Devuelve nil si no hay endpoints.
func EndpointsFromEnv() []string {
	var clean []string
	for _, p := range strings.Split(os.Getenv(EnvEndpoints), ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	return clean
}

// New crea un cliente etcd. Sin endpoints devuelve error: el overlay de
// configuración es opcional y quien llama decide si activarlo.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.endpoints) == 0 {
		return nil, fmt.Errorf("no etcd endpoints configured (%s)", EnvEndpoints)
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.endpoints,
		DialTimeout: cfg.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating etcd client: %w", err)
	}

	client := newClient(nil, cfg)
	client.kv = namespace.NewKV(cli, client.NamespacePrefix())
	client.raw = cli
	return client, nil
}

// NewWithKV crea un cliente sobre un KV ya construido, sin conexión propia.
func NewWithKV(kv KV, opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return newClient(kv, cfg)
}

func newClient(kv KV, cfg *config) *Client {
	return &Client{
		kv:      kv,
		app:     cfg.app,
		env:     cfg.env,
		timeout: cfg.timeout,
	}
}

// NamespacePrefix devuelve el prefijo "/<app>/<env>/".
func (c *Client) NamespacePrefix() string {
	return fmt.Sprintf("/%s/%s/", c.app, c.env)
}

// GetVar obtiene una variable del namespace.
func (c *Client) GetVar(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.kv.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return "", fmt.Errorf("key not found: %s", key)
	}
	return string(resp.Kvs[0].Value), nil
}

// GetVarInt obtiene una variable como entero
func (c *Client) GetVarInt(ctx context.Context, key string) (int, error) {
	value, err := c.GetVar(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(value))
}

// GetVarDuration obtiene una variable como duración (en milisegundos)
func (c *Client) GetVarDuration(ctx context.Context, key string) (time.Duration, error) {
	value, err := c.GetVarInt(ctx, key)
	if err != nil {
		return 0, err
	}
	return time.Duration(value) * time.Millisecond, nil
}

// Lookup es GetVar sin error: ok es false si la clave no existe o falla la lectura.
func (c *Client) Lookup(ctx context.Context, key string) (string, bool) {
	value, err := c.GetVar(ctx, key)
	if err != nil {
		return "", false
	}
	return value, true
}

// Close cierra la conexión con etcd
func (c *Client) Close() error {
	if c.raw != nil {
		return c.raw.Close()
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
