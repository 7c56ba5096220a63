package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func newBufferedClient(t *testing.T, level string) (*Client, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	client, err := New(context.Background(), "openapi-proxy-test", "test",
		WithLogWriter(buf),
		WithLogLevel(level),
	)
	require.NoError(t, err)
	return client, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestClient_LogsIncludeContextAttrs(t *testing.T) {
	client, buf := newBufferedClient(t, "INFO")

	ctx := AppendCommonAttrs(context.Background(), attribute.String("component", "loop"))
	ctx = AppendEventAttrs(ctx, attribute.String("request", "abc"))
	client.Info(ctx, "Command dispatched", attribute.Int64("account", 42))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "Command dispatched", lines[0]["msg"])
	assert.Equal(t, "loop", lines[0]["component"])
	assert.Equal(t, "abc", lines[0]["request"])
	assert.EqualValues(t, 42, lines[0]["account"])
	assert.Equal(t, "openapi-proxy-test", lines[0]["service"])
}

func TestClient_LevelFiltering(t *testing.T) {
	client, buf := newBufferedClient(t, "WARN")
	ctx := context.Background()

	client.Debug(ctx, "hidden debug")
	client.Info(ctx, "hidden info")
	client.Warn(ctx, "visible warn")
	client.Error(ctx, "visible error", errors.New("boom"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "visible warn", lines[0]["msg"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.False(t, client.Enabled(ctx, slog.LevelInfo))
}

func TestClient_LogsDisabled(t *testing.T) {
	client, err := New(context.Background(), "svc", "test", WithLogsDisabled())
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		client.Info(context.Background(), "nothing")
	})
	assert.False(t, client.Enabled(context.Background(), slog.LevelError))
}

func TestClient_MetricsWithoutEndpoint(t *testing.T) {
	client, err := New(context.Background(), "svc", "test", WithLogsDisabled())
	require.NoError(t, err)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		client.RecordCounter(ctx, "proxy.test.counter", 1)
		client.RecordLatency(ctx, "proxy.test", 3.5)
		client.ProxyMetrics().RecordDispatched(ctx, "ProtoOAVersionReq")

		var missing *Client
		missing.RecordCounter(ctx, "proxy.test.counter", 1)
		missing.RecordLatency(ctx, "proxy.test", 1)
	})
	assert.Same(t, client.ProxyMetrics(), client.ProxyMetrics())

	ctx, span := client.StartSpan(ctx, "noop")
	defer span.End()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
	require.NoError(t, client.Shutdown(ctx))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
