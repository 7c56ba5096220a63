package openapi

import (
	"context"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry"
)

func newTestTelemetryClient(t *testing.T) *telemetry.Client {
	t.Helper()
	client, err := telemetry.New(context.Background(), "openapi-test", "test",
		telemetry.WithLogsDisabled(),
		telemetry.WithMetricsDisabled(),
		telemetry.WithTracesDisabled(),
	)
	require.NoError(t, err)
	return client
}

type recordingHandler struct {
	mu           sync.Mutex
	connected    int
	disconnected int
	messages     []*Message
	events       chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{events: make(chan string, 16)}
}

func (h *recordingHandler) OnConnected() {
	h.mu.Lock()
	h.connected++
	h.mu.Unlock()
	h.events <- "connected"
}

func (h *recordingHandler) OnDisconnected(error) {
	h.mu.Lock()
	h.disconnected++
	h.mu.Unlock()
	h.events <- "disconnected"
}

func (h *recordingHandler) OnMessage(msg *Message) {
	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.mu.Unlock()
	h.events <- "message"
}

func waitEvent(t *testing.T, h *recordingHandler, want string) {
	t.Helper()
	select {
	case got := <-h.events:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s", want)
	}
}

func localConfig(t *testing.T, ln net.Listener) ClientConfig {
	t.Helper()
	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	cfg := DefaultClientConfig(host)
	cfg.Port = p
	cfg.UseTLS = false
	cfg.HeartbeatInterval = 0
	cfg.ReconnectInitial = 10 * time.Millisecond
	cfg.ReconnectMax = 20 * time.Millisecond
	return cfg
}

func TestClient_SendReceiveAndReconnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	handler := newRecordingHandler()
	client := NewClient(localConfig(t, ln), handler, newTestTelemetryClient(t))
	client.Start(context.Background())
	defer client.Close()

	conn, err := ln.Accept()
	require.NoError(t, err)
	waitEvent(t, handler, "connected")
	assert.True(t, client.Connected())

	req := MustMessage(PayloadVersionReq)
	req.ClientMsgID = "abc"
	require.NoError(t, client.Send(req))

	body, err := ReadFrame(conn)
	require.NoError(t, err)
	got, err := Unmarshal(body)
	require.NoError(t, err)
	assert.Equal(t, PayloadVersionReq, got.PayloadType)
	assert.Equal(t, "abc", got.ClientMsgID)

	heartbeat, err := Marshal(MustMessage(PayloadHeartbeatEvent))
	require.NoError(t, err)
	require.NoError(t, WriteFrame(conn, heartbeat))

	res := MustMessage(PayloadVersionRes).Set("version", "88")
	res.ClientMsgID = "abc"
	resBody, err := Marshal(res)
	require.NoError(t, err)
	require.NoError(t, WriteFrame(conn, resBody))

	waitEvent(t, handler, "message")
	handler.mu.Lock()
	require.Len(t, handler.messages, 1)
	version, _ := handler.messages[0].GetString("version")
	handler.mu.Unlock()
	assert.Equal(t, "88", version)

	require.NoError(t, conn.Close())
	waitEvent(t, handler, "disconnected")

	conn2, err := ln.Accept()
	require.NoError(t, err)
	defer conn2.Close()
	waitEvent(t, handler, "connected")
}

func TestClient_SendWithoutConnection(t *testing.T) {
	client := NewClient(DefaultClientConfig(DemoHost), newRecordingHandler(), newTestTelemetryClient(t))
	err := client.Send(MustMessage(PayloadVersionReq))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClient_SendStalledWriteTimesOut(t *testing.T) {
	cfg := DefaultClientConfig(DemoHost)
	cfg.WriteTimeout = 50 * time.Millisecond
	client := NewClient(cfg, newRecordingHandler(), newTestTelemetryClient(t))

	local, peer := net.Pipe()
	defer peer.Close()
	client.setConn(local)

	start := time.Now()
	err := client.Send(MustMessage(PayloadVersionReq))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	// la conexión queda cerrada para forzar la reconexión
	_, err = peer.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestHostFor(t *testing.T) {
	host, err := HostFor("LIVE")
	require.NoError(t, err)
	assert.Equal(t, LiveHost, host)

	host, err = HostFor("")
	require.NoError(t, err)
	assert.Equal(t, DemoHost, host)

	_, err = HostFor("staging")
	assert.Error(t, err)
}
