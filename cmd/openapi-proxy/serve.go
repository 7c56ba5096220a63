package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xKoRx/openapi-proxy/internal"
	"github.com/xKoRx/openapi-proxy/internal/health"
	"github.com/xKoRx/openapi-proxy/internal/httpapi"
	"github.com/xKoRx/openapi-proxy/internal/journal"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/semconv"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	v := viper.New()
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to the venue and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, v, envFile)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&envFile, "env-file", ".env", "path of the .env file")
	flags.String("addr", "", "HTTP listen address (PROXY_HTTP_ADDR)")
	flags.String("host", "", "venue environment: demo or live (CTRADER_HOST)")
	flags.String("log-level", "", "console log level (CONSOLE_LOG_LEVEL)")
	flags.Int("health-port", 0, "gRPC health port, 0 disables (PROXY_HEALTH_GRPC_PORT)")
	flags.String("journal", "", "journal file, empty disables (PROXY_JOURNAL_PATH)")
	flags.Bool("reauth-on-reconnect", false, "authenticate accounts again after a reconnect (PROXY_REAUTH_ON_RECONNECT)")

	for key, flag := range map[string]string{
		"PROXY_HTTP_ADDR":           "addr",
		"CTRADER_HOST":              "host",
		"CONSOLE_LOG_LEVEL":         "log-level",
		"PROXY_HEALTH_GRPC_PORT":    "health-port",
		"PROXY_JOURNAL_PATH":        "journal",
		"PROXY_REAUTH_ON_RECONNECT": "reauth-on-reconnect",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
	return cmd
}

func runServe(ctx context.Context, v *viper.Viper, envFile string) error {
	cfg, err := internal.LoadConfig(ctx, internal.WithEnvFile(envFile), internal.WithViper(v))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ServiceVersion = version

	telOpts := []telemetry.Option{
		telemetry.WithVersion(cfg.ServiceVersion),
		telemetry.WithLogLevel(cfg.LogLevel),
		telemetry.WithCommonAttributes(semconv.Proxy.Host.String(cfg.Host)),
	}
	if cfg.OTLPEndpoint != "" {
		telOpts = append(telOpts, telemetry.WithOTLPEndpoint(cfg.OTLPEndpoint))
	}
	tel, err := telemetry.New(ctx, cfg.ServiceName, cfg.Environment, telOpts...)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	hub := httpapi.NewEventHub(tel)
	opts := []internal.Option{
		internal.WithTelemetry(tel),
		internal.WithEventSink(hub),
	}

	var store *journal.Store
	if cfg.JournalPath != "" {
		if store, err = journal.Open(cfg.JournalPath); err != nil {
			return err
		}
		opts = append(opts, internal.WithJournal(store))
	}

	var healthSrv *health.Server
	if cfg.HealthGRPCPort > 0 {
		healthSrv, err = health.New("", cfg.HealthGRPCPort, tel)
		if err != nil {
			_ = store.Close()
			return err
		}
		opts = append(opts, internal.WithPhaseObserver(healthSrv.Observe))
	}

	proxy, err := internal.New(ctx, cfg, opts...)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create proxy: %w", err)
	}
	if err := proxy.Start(); err != nil {
		return fmt.Errorf("start proxy: %w", err)
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpSrv := httpapi.NewServer(httpapi.DefaultConfig(cfg.HTTPAddr), proxy, hub, tel)
	servers := 1
	errCh := make(chan error, 2)
	go func() { errCh <- httpSrv.Serve(serveCtx) }()
	if healthSrv != nil {
		servers++
		go func() { errCh <- healthSrv.Serve(serveCtx) }()
	}

	// El primer servidor que termina (por señal o por error) apaga al resto.
	var errs []error
	for i := 0; i < servers; i++ {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
		cancel()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := proxy.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown proxy: %w", err))
	}
	return errors.Join(errs...)
}
