package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xKoRx/openapi-proxy/internal"
	"github.com/xKoRx/openapi-proxy/internal/command"
	"github.com/xKoRx/openapi-proxy/internal/journal"
	"github.com/xKoRx/openapi-proxy/internal/session"
	"github.com/xKoRx/openapi-proxy/sdk/domain"
	"github.com/xKoRx/openapi-proxy/sdk/openapi"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry"
)

// fakeBackend registra las llamadas y devuelve lo configurado.
type fakeBackend struct {
	mu        sync.Mutex
	name      string
	args      []string
	named     map[string]string
	result    *internal.Result
	err       error
	view      internal.SessionView
	records   []*journal.Record
	journalEr error
}

func (f *fakeBackend) Execute(_ context.Context, name string, args []string) (*internal.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name, f.args = name, args
	return f.result, f.err
}

func (f *fakeBackend) ExecuteNamed(_ context.Context, name string, args map[string]string) (*internal.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name, f.named = name, args
	return f.result, f.err
}

func (f *fakeBackend) Session() internal.SessionView { return f.view }

func (f *fakeBackend) Commands() []command.Contract {
	registry, _ := command.DefaultRegistry()
	out := []command.Contract{}
	for _, d := range registry.Descriptors() {
		out = append(out, d.Contract())
	}
	return out
}

func (f *fakeBackend) Journal(int) ([]*journal.Record, error) { return f.records, f.journalEr }

func testTelemetry(t *testing.T) *telemetry.Client {
	t.Helper()
	tel, err := telemetry.New(context.Background(), "httpapi-test", "test",
		telemetry.WithLogsDisabled(),
		telemetry.WithMetricsDisabled(),
		telemetry.WithTracesDisabled(),
	)
	require.NoError(t, err)
	return tel
}

func newTestServer(t *testing.T, backend *fakeBackend) (*httptest.Server, *EventHub) {
	t.Helper()
	tel := testTelemetry(t)
	hub := NewEventHub(tel)
	srv := NewServer(DefaultConfig("127.0.0.1:0"), backend, hub, tel)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})
	return ts, hub
}

func versionResult() *internal.Result {
	msg := openapi.MustMessage(openapi.PayloadVersionRes).Set("version", "91")
	return &internal.Result{RequestID: "req-1", Command: command.NameVersion, Message: msg}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestGetData_EmptyCommand(t *testing.T) {
	backend := &fakeBackend{}
	ts, _ := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/get-data?command=")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"result": "Invalid Command: "}, decodeBody(t, resp))
	assert.Empty(t, backend.name)
}

func TestGetData_SplitsArguments(t *testing.T) {
	backend := &fakeBackend{result: versionResult()}
	ts, _ := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/get-data?command=ProtoOAGetTrendbarsReq%201000%202000%20M5%201")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, map[string]any{"version": "91"}, decodeBody(t, resp))
	assert.Equal(t, "ProtoOAGetTrendbarsReq", backend.name)
	assert.Equal(t, []string{"1000", "2000", "M5", "1"}, backend.args)
}

func TestGetData_Wrap(t *testing.T) {
	backend := &fakeBackend{result: versionResult()}
	ts, _ := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/get-data?command=ProtoOAVersionReq&wrap=data")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"data": map[string]any{"version": "91"}}, decodeBody(t, resp))
}

func TestGetData_TextResult(t *testing.T) {
	backend := &fakeBackend{result: &internal.Result{Command: command.NameSetAccount, Text: "Account changed successfully"}}
	ts, _ := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/get-data?command=setAccount%2042")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"result": "Account changed successfully"}, decodeBody(t, resp))
}

func TestWrapSkipsTextResults(t *testing.T) {
	backend := &fakeBackend{result: &internal.Result{Command: command.NameSetAccount, Text: "Account changed successfully"}}
	ts, _ := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/get-data?command=setAccount%2042&wrap=data")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"result": "Account changed successfully"}, decodeBody(t, resp))

	resp, err = http.Get(ts.URL + "/get-data?command=&wrap=data")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"result": "Invalid Command: "}, decodeBody(t, resp))
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", domain.Validationf("missing required parameter symbolId"), http.StatusBadRequest, "missing required parameter symbolId"},
		{"not authorized", domain.NotAuthorizedf("no active account"), http.StatusForbidden, "no active account"},
		{"unknown command", domain.UnknownCommand("Foo"), http.StatusNotFound, "Invalid Command: Foo"},
		{"connection lost", domain.ConnectionLost(errors.New("eof")), http.StatusServiceUnavailable, "ConnectionLost"},
		{"timeout", domain.Timeout(), http.StatusServiceUnavailable, "Timeout"},
		{"protocol", domain.Protocol("POSITION_NOT_FOUND", "Position not found"), http.StatusInternalServerError, "Position not found"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, &fakeBackend{err: tt.err})

			resp, err := http.Get(ts.URL + "/get-data?command=ProtoOAVersionReq&wrap=ignored")
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, map[string]any{"error": tt.body}, decodeBody(t, resp))
		})
	}
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestSetAccount(t *testing.T) {
	t.Run("with account", func(t *testing.T) {
		backend := &fakeBackend{result: &internal.Result{Text: "Account changed successfully"}}
		ts, _ := newTestServer(t, backend)

		resp := post(t, ts.URL+"/api/set-account", `{"accountId": 12345678}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, map[string]any{"result": "Account changed successfully"}, decodeBody(t, resp))
		assert.Equal(t, command.NameSetAccount, backend.name)
		assert.Equal(t, map[string]string{"accountId": "12345678"}, backend.named)
	})

	t.Run("empty body", func(t *testing.T) {
		backend := &fakeBackend{err: domain.Validationf("No accountId in request body and CTRADER_ACCOUNTID not set in .env")}
		ts, _ := newTestServer(t, backend)

		resp := post(t, ts.URL+"/api/set-account", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, map[string]string{}, backend.named)
		decodeBody(t, resp)
	})

	t.Run("malformed body uses default account", func(t *testing.T) {
		for _, body := range []string{`not json`, `{"accountId":`, `[1,2]`} {
			backend := &fakeBackend{result: &internal.Result{Text: "Account changed successfully"}}
			ts, _ := newTestServer(t, backend)

			resp := post(t, ts.URL+"/api/set-account", body)
			assert.Equal(t, http.StatusOK, resp.StatusCode, body)
			assert.Equal(t, map[string]any{"result": "Account changed successfully"}, decodeBody(t, resp))
			assert.Equal(t, command.NameSetAccount, backend.name, body)
			assert.Equal(t, map[string]string{}, backend.named, body)
		}
	})

	t.Run("non scalar account id", func(t *testing.T) {
		backend := &fakeBackend{result: &internal.Result{Text: "Account changed successfully"}}
		ts, _ := newTestServer(t, backend)

		resp := post(t, ts.URL+"/api/set-account", `{"accountId": {"id": 1}}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		decodeBody(t, resp)
		assert.Empty(t, backend.name)
	})
}

func TestTrendbarsBody(t *testing.T) {
	backend := &fakeBackend{result: versionResult()}
	ts, _ := newTestServer(t, backend)

	resp := post(t, ts.URL+"/api/trendbars", `{"fromTimestamp": 1000, "toTimestamp": 2000, "period": "M5", "symbolId": 1}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp)
	assert.Equal(t, command.NameTrendbars, backend.name)
	assert.Equal(t, map[string]string{
		"fromTimestamp": "1000",
		"toTimestamp":   "2000",
		"period":        "M5",
		"symbolId":      "1",
	}, backend.named)
}

func TestLiveQuoteRenamesWindow(t *testing.T) {
	backend := &fakeBackend{result: versionResult()}
	ts, _ := newTestServer(t, backend)

	resp := post(t, ts.URL+"/api/live-quote", `{"symbolId": 1, "quoteType": "BID", "timeDeltaInSeconds": 60}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp)
	assert.Equal(t, command.NameTickData, backend.name)
	assert.Equal(t, map[string]string{"symbolId": "1", "quoteType": "BID", "seconds": "60"}, backend.named)
}

func TestMarketOrderBody(t *testing.T) {
	backend := &fakeBackend{result: versionResult()}
	ts, _ := newTestServer(t, backend)

	resp := post(t, ts.URL+"/api/market-order",
		`{"symbolId": 1, "orderType": "MARKET", "tradeSide": "BUY", "volume": 1000.5, "comment": null, "relativeStopLoss": 50}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp)
	assert.Equal(t, command.NameNewOrder, backend.name)
	assert.Equal(t, map[string]string{
		"symbolId":         "1",
		"orderType":        "MARKET",
		"tradeSide":        "BUY",
		"volume":           "1000.5",
		"relativeStopLoss": "50",
	}, backend.named)
}

func TestInvalidBodies(t *testing.T) {
	backend := &fakeBackend{result: versionResult()}
	ts, _ := newTestServer(t, backend)

	for _, body := range []string{`{"symbolId":`, `[1,2]`, `{"symbolId": [1]}`} {
		resp := post(t, ts.URL+"/api/trendbars", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Contains(t, decodeBody(t, resp), "error")
	}
	assert.Empty(t, backend.name)
}

func TestSessionEndpoint(t *testing.T) {
	backend := &fakeBackend{view: internal.SessionView{
		Snapshot: session.Snapshot{
			Phase:              session.PhaseAccountAuthenticated.String(),
			ActiveAccountID:    42,
			AuthorizedAccounts: []int64{42},
		},
		Pending:   2,
		Host:      openapi.DemoHost,
		Connected: true,
	}}
	ts, _ := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/api/session")
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Equal(t, "AccountAuthenticated", body["phase"])
	assert.Equal(t, float64(42), body["activeAccountId"])
	assert.Equal(t, float64(2), body["pending"])
	assert.Equal(t, true, body["connected"])
}

func TestCommandsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, &fakeBackend{})

	resp, err := http.Get(ts.URL + "/api/commands")
	require.NoError(t, err)
	defer resp.Body.Close()

	var contracts []command.Contract
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&contracts))
	names := make([]string, 0, len(contracts))
	for _, c := range contracts {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, command.NameSetAccount)
	assert.Contains(t, names, command.NameTrendbars)
}

func TestJournalEndpoint(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		ts, _ := newTestServer(t, &fakeBackend{journalEr: internal.ErrJournalDisabled})
		resp, err := http.Get(ts.URL + "/api/journal")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		decodeBody(t, resp)
	})

	t.Run("records", func(t *testing.T) {
		ts, _ := newTestServer(t, &fakeBackend{records: []*journal.Record{
			{RequestID: "a", Command: command.NameVersion, Status: journal.StatusOK},
		}})
		resp, err := http.Get(ts.URL + "/api/journal?limit=5")
		require.NoError(t, err)
		defer resp.Body.Close()
		var records []journal.Record
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
		require.Len(t, records, 1)
		assert.Equal(t, "a", records[0].RequestID)
	})

	t.Run("bad limit", func(t *testing.T) {
		ts, _ := newTestServer(t, &fakeBackend{})
		resp, err := http.Get(ts.URL + "/api/journal?limit=-1")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		decodeBody(t, resp)
	})
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, &fakeBackend{view: internal.SessionView{
		Snapshot: session.Snapshot{Phase: session.PhaseDisconnected.String()},
	}})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Disconnected", body["phase"])
}

func TestUnknownRoute(t *testing.T) {
	ts, _ := newTestServer(t, &fakeBackend{})
	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func dialEvents(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/events" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEventStream(t *testing.T) {
	ts, hub := newTestServer(t, &fakeBackend{})

	all := dialEvents(t, ts, "")
	spotsOnly := dialEvents(t, ts, "?type=ProtoOASpotEvent&accountId=42")
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, 2*time.Second, 5*time.Millisecond)

	hub.Publish(internal.Event{Type: "ProtoOAMarginChangedEvent", PayloadType: 2141, AccountID: 42})
	hub.Publish(internal.Event{Type: "ProtoOASpotEvent", PayloadType: 2131, AccountID: 7})
	hub.Publish(internal.Event{
		Type:        "ProtoOASpotEvent",
		PayloadType: 2131,
		AccountID:   42,
		Payload:     json.RawMessage(`{"symbolId":"1"}`),
	})

	var evt internal.Event
	require.NoError(t, all.SetReadDeadline(time.Now().Add(2*time.Second)))
	for _, want := range []string{"ProtoOAMarginChangedEvent", "ProtoOASpotEvent", "ProtoOASpotEvent"} {
		require.NoError(t, all.ReadJSON(&evt))
		assert.Equal(t, want, evt.Type)
	}

	require.NoError(t, spotsOnly.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, spotsOnly.ReadJSON(&evt))
	assert.Equal(t, "ProtoOASpotEvent", evt.Type)
	assert.Equal(t, int64(42), evt.AccountID)
	assert.JSONEq(t, `{"symbolId":"1"}`, string(evt.Payload))
}

func TestEventStreamRejectsBadAccount(t *testing.T) {
	ts, _ := newTestServer(t, &fakeBackend{})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/events?accountId=abc"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEventHubClosedRejectsClients(t *testing.T) {
	ts, hub := newTestServer(t, &fakeBackend{})
	conn := dialEvents(t, ts, "")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	hub.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Equal(t, 0, hub.Clients())
}

func TestStatusForContextDeadline(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(context.Canceled))
}
