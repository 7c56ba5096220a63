// Package internal contiene el proxy: configuración, bucle de eventos dueño
// de la sesión y de la tabla de correlación, y despacho de comandos.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xKoRx/openapi-proxy/sdk/etcd"
	"github.com/xKoRx/openapi-proxy/sdk/openapi"
)

const (
	// AppName nombre del servicio y de su namespace en etcd.
	AppName = "openapi-proxy"

	keyToken            = "CTRADER_TOKEN"
	keyClientID         = "CTRADER_CLIENT_ID"
	keyClientSecret     = "CTRADER_CLIENT_SECRET"
	keyAccountID        = "CTRADER_ACCOUNTID"
	keyHost             = "CTRADER_HOST"
	keyLogLevel         = "CONSOLE_LOG_LEVEL"
	keyHTTPAddr         = "PROXY_HTTP_ADDR"
	keyRequestTimeout   = "PROXY_REQUEST_TIMEOUT"
	keyHealthGRPCPort   = "PROXY_HEALTH_GRPC_PORT"
	keyJournalPath      = "PROXY_JOURNAL_PATH"
	keyJournalRetention = "PROXY_JOURNAL_RETENTION"
	keyReauthReconnect  = "PROXY_REAUTH_ON_RECONNECT"
	keyOTLPEndpoint     = "OTEL_EXPORTER_OTLP_ENDPOINT"
	keyEnv              = "ENV"
)

// ErrMissingToken falta CTRADER_TOKEN; es el único error fatal de arranque.
var ErrMissingToken = errors.New("CTRADER_TOKEN is not set")

// Config configuración del proxy.
//
// Precedencia: defaults, fichero .env, entorno del proceso y, si
// ETCD_ENDPOINTS está definido, overlay etcd en /openapi-proxy/<ENV>/.
type Config struct {
	// cTrader
	AccessToken      string // CTRADER_TOKEN
	ClientID         string // CTRADER_CLIENT_ID
	ClientSecret     string // CTRADER_CLIENT_SECRET
	DefaultAccountID int64  // CTRADER_ACCOUNTID
	HostEnv          string // CTRADER_HOST: demo | live
	Host             string // resuelto desde HostEnv

	// Proxy
	HTTPAddr         string        // PROXY_HTTP_ADDR
	RequestTimeout   time.Duration // PROXY_REQUEST_TIMEOUT, 0 desactiva
	HealthGRPCPort   int           // PROXY_HEALTH_GRPC_PORT, 0 desactiva
	JournalPath      string        // PROXY_JOURNAL_PATH, vacío desactiva
	JournalRetention time.Duration // PROXY_JOURNAL_RETENTION
	// ReauthOnReconnect olvida las cuentas autorizadas al reconectar; por
	// defecto se reutilizan por la vía rápida.
	ReauthOnReconnect bool // PROXY_REAUTH_ON_RECONNECT

	// Telemetry
	LogLevel       string // CONSOLE_LOG_LEVEL
	OTLPEndpoint   string // OTEL_EXPORTER_OTLP_ENDPOINT
	ServiceName    string
	ServiceVersion string
	Environment    string // ENV
}

// DefaultConfig configuración por defecto, sin credenciales.
func DefaultConfig() *Config {
	return &Config{
		HostEnv:          "demo",
		Host:             openapi.DemoHost,
		HTTPAddr:         "localhost:9009",
		RequestTimeout:   30 * time.Second,
		JournalRetention: 24 * time.Hour,
		LogLevel:         "INFO",
		ServiceName:      AppName,
		ServiceVersion:   "0.1.0",
		Environment:      "development",
	}
}

// LoadOption ajusta la carga de configuración.
type LoadOption func(*loadOptions)

type loadOptions struct {
	envFile string
	etcd    *etcd.Client
	viper   *viper.Viper
}

// WithEnvFile cambia la ruta del fichero .env.
func WithEnvFile(path string) LoadOption { return func(o *loadOptions) { o.envFile = path } }

// WithEtcdClient usa un cliente etcd ya construido para el overlay.
func WithEtcdClient(c *etcd.Client) LoadOption { return func(o *loadOptions) { o.etcd = c } }

// WithViper usa una instancia de viper propia (flags enlazados por la CLI).
func WithViper(v *viper.Viper) LoadOption { return func(o *loadOptions) { o.viper = v } }

// LoadConfig carga y valida la configuración.
//
// Uso:
//
//	cfg, err := internal.LoadConfig(ctx)
//	if err != nil {
//	    return err
//	}
func LoadConfig(ctx context.Context, opts ...LoadOption) (*Config, error) {
	o := &loadOptions{envFile: ".env"}
	for _, opt := range opts {
		opt(o)
	}

	v := o.viper
	if v == nil {
		v = viper.New()
	}
	defaults := DefaultConfig()
	v.SetDefault(keyHost, defaults.HostEnv)
	v.SetDefault(keyHTTPAddr, defaults.HTTPAddr)
	v.SetDefault(keyRequestTimeout, defaults.RequestTimeout.String())
	v.SetDefault(keyHealthGRPCPort, 0)
	v.SetDefault(keyJournalRetention, defaults.JournalRetention.String())
	v.SetDefault(keyReauthReconnect, "false")
	v.SetDefault(keyLogLevel, defaults.LogLevel)
	v.SetDefault(keyEnv, defaults.Environment)

	if o.envFile != "" {
		v.SetConfigFile(o.envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read %s: %w", o.envFile, err)
			}
		}
	}
	v.AutomaticEnv()

	cfg := defaults
	cfg.AccessToken = v.GetString(keyToken)
	cfg.ClientID = v.GetString(keyClientID)
	cfg.ClientSecret = v.GetString(keyClientSecret)
	cfg.HostEnv = v.GetString(keyHost)
	cfg.HTTPAddr = v.GetString(keyHTTPAddr)
	cfg.JournalPath = v.GetString(keyJournalPath)
	cfg.LogLevel = v.GetString(keyLogLevel)
	cfg.OTLPEndpoint = v.GetString(keyOTLPEndpoint)
	cfg.Environment = v.GetString(keyEnv)

	var err error
	if cfg.DefaultAccountID, err = parseAccountID(v.GetString(keyAccountID)); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = parseDuration(keyRequestTimeout, v.GetString(keyRequestTimeout)); err != nil {
		return nil, err
	}
	if cfg.JournalRetention, err = parseDuration(keyJournalRetention, v.GetString(keyJournalRetention)); err != nil {
		return nil, err
	}
	if cfg.ReauthOnReconnect, err = parseBool(keyReauthReconnect, v.GetString(keyReauthReconnect)); err != nil {
		return nil, err
	}
	if cfg.HealthGRPCPort, err = parsePort(keyHealthGRPCPort, v.GetString(keyHealthGRPCPort)); err != nil {
		return nil, err
	}

	client := o.etcd
	if client == nil && len(etcd.EndpointsFromEnv()) > 0 {
		client, err = etcd.New(etcd.WithApp(AppName), etcd.WithEnv(cfg.Environment))
		if err != nil {
			return nil, fmt.Errorf("failed to create ETCD client: %w", err)
		}
		defer client.Close()
	}
	if client != nil {
		if err := applyEtcdOverlay(ctx, client, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, cfg.Validate()
}

// applyEtcdOverlay sobrescribe con las claves presentes en etcd.
func applyEtcdOverlay(ctx context.Context, client *etcd.Client, cfg *Config) error {
	if val, ok := client.Lookup(ctx, "ctrader/token"); ok && val != "" {
		cfg.AccessToken = val
	}
	if val, ok := client.Lookup(ctx, "ctrader/client_id"); ok && val != "" {
		cfg.ClientID = val
	}
	if val, ok := client.Lookup(ctx, "ctrader/client_secret"); ok && val != "" {
		cfg.ClientSecret = val
	}
	if val, ok := client.Lookup(ctx, "ctrader/account_id"); ok && val != "" {
		id, err := parseAccountID(val)
		if err != nil {
			return fmt.Errorf("etcd %s: %w", client.NamespacePrefix(), err)
		}
		cfg.DefaultAccountID = id
	}
	if val, ok := client.Lookup(ctx, "ctrader/host"); ok && val != "" {
		cfg.HostEnv = val
	}
	if val, ok := client.Lookup(ctx, "proxy/http_addr"); ok && val != "" {
		cfg.HTTPAddr = val
	}
	if d, err := client.GetVarDuration(ctx, "proxy/request_timeout_ms"); err == nil {
		cfg.RequestTimeout = d
	}
	if port, err := client.GetVarInt(ctx, "proxy/health_grpc_port"); err == nil {
		cfg.HealthGRPCPort = port
	}
	if val, ok := client.Lookup(ctx, "proxy/journal_path"); ok && val != "" {
		cfg.JournalPath = val
	}
	if val, ok := client.Lookup(ctx, "proxy/reauth_on_reconnect"); ok && val != "" {
		b, err := parseBool(keyReauthReconnect, val)
		if err != nil {
			return fmt.Errorf("etcd %s: %w", client.NamespacePrefix(), err)
		}
		cfg.ReauthOnReconnect = b
	}
	return nil
}

// Validate comprueba la configuración y resuelve Host.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return ErrMissingToken
	}
	host, err := openapi.HostFor(c.HostEnv)
	if err != nil {
		return fmt.Errorf("%s: %w", keyHost, err)
	}
	c.Host = host
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%s: must not be negative", keyRequestTimeout)
	}
	if c.HealthGRPCPort < 0 || c.HealthGRPCPort > 65535 {
		return fmt.Errorf("%s: invalid port %d", keyHealthGRPCPort, c.HealthGRPCPort)
	}
	return nil
}

func parseAccountID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: invalid account id %q", keyAccountID, raw)
	}
	return id, nil
}

// parseDuration acepta "30s", "1m" o un número de segundos.
func parseDuration(key, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}

func parseBool(key, raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, raw)
	}
	return b, nil
}

func parsePort(key, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid port %q", key, raw)
	}
	return port, nil
}
