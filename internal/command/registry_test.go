package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xKoRx/openapi-proxy/sdk/domain"
	"github.com/xKoRx/openapi-proxy/sdk/openapi"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := DefaultRegistry()
	require.NoError(t, err)
	return r
}

var testBuild = BuildContext{
	AccountID:   12345,
	AccessToken: "token",
	Now:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
}

func build(t *testing.T, cmd Command) *openapi.Message {
	t.Helper()
	req, ok := cmd.(Request)
	require.True(t, ok, "%s is not a request", cmd.CommandName())
	msg, err := req.Build(testBuild)
	require.NoError(t, err)
	return msg
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := newRegistry(t)
	err := r.Register(Catalogue()[0])
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindDuplicateCommand))
}

func TestUnknownCommand(t *testing.T) {
	r := newRegistry(t)
	_, err := r.Parse("Nope", nil)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindUnknownCommand))
	assert.Equal(t, "Invalid Command: Nope", err.Error())

	_, err = r.ParseNamed("Nope", nil)
	assert.True(t, domain.IsKind(err, domain.KindUnknownCommand))
}

func TestMissingRequiredParameterForEveryCommand(t *testing.T) {
	r := newRegistry(t)
	for _, d := range r.Descriptors() {
		var required []Param
		for _, p := range d.Params {
			if p.Required {
				required = append(required, p)
			}
		}
		if len(required) == 0 {
			continue
		}
		t.Run(d.Name, func(t *testing.T) {
			_, err := r.Parse(d.Name, nil)
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindValidation))
			assert.Contains(t, err.Error(), required[0].Name)
		})
	}
}

func TestTooManyParameters(t *testing.T) {
	r := newRegistry(t)
	_, err := r.Parse(NameVersion, []string{"extra"})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestParseNamedRejectsUnknownParameter(t *testing.T) {
	r := newRegistry(t)
	_, err := r.ParseNamed(NameCancelOrder, map[string]string{"orderId": "1", "foo": "bar"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foo")
}

func TestAccountRequirement(t *testing.T) {
	r := newRegistry(t)
	open := map[string]bool{NameSetAccount: true, NameVersion: true, NameAccountList: true}
	for _, d := range r.Descriptors() {
		assert.Equal(t, !open[d.Name], d.RequiresActiveAccount, d.Name)
	}
}

func TestMarketOrderRoundTrip(t *testing.T) {
	r := newRegistry(t)
	cmd, err := r.ParseNamed(NameNewOrder, map[string]string{
		"symbolId":  "158",
		"orderType": "market",
		"tradeSide": "buy",
		"volume":    "1000",
	})
	require.NoError(t, err)
	assert.True(t, cmd.RequiresActiveAccount())

	msg := build(t, cmd)
	assert.Equal(t, openapi.PayloadNewOrderReq, msg.PayloadType)

	volume, ok := msg.GetInt("volume")
	require.True(t, ok)
	assert.Equal(t, int64(1000), volume)

	orderType, _ := msg.GetInt("orderType")
	assert.Equal(t, int64(domain.OrderTypeMarket), orderType)
	side, _ := msg.GetInt("tradeSide")
	assert.Equal(t, int64(domain.TradeSideBuy), side)
	account, _ := msg.AccountID()
	assert.Equal(t, testBuild.AccountID, account)

	assert.False(t, msg.Has("limitPrice"))
	assert.False(t, msg.Has("stopPrice"))
}

func TestLimitOrderRequiresPrice(t *testing.T) {
	r := newRegistry(t)
	_, err := r.ParseNamed(NameNewOrder, map[string]string{
		"symbolId":  "158",
		"orderType": "limit",
		"tradeSide": "buy",
		"volume":    "1000",
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	assert.Contains(t, err.Error(), "price")
}

func TestOrderCrossFieldRules(t *testing.T) {
	r := newRegistry(t)
	tests := []struct {
		name    string
		command string
		args    []string
		wantErr string
		check   func(t *testing.T, msg *openapi.Message)
	}{
		{
			name:    "market rejects price",
			command: NameNewOrder,
			args:    []string{"1", "MARKET", "SELL", "1000", "1.1"},
			wantErr: "not accepted",
		},
		{
			name:    "limit sets limitPrice",
			command: NameNewLimitOrder,
			args:    []string{"1", "SELL", "1000", "1.25"},
			check: func(t *testing.T, msg *openapi.Message) {
				price, ok := msg.GetFloat("limitPrice")
				require.True(t, ok)
				assert.InDelta(t, 1.25, price, 1e-9)
				assert.False(t, msg.Has("stopPrice"))
			},
		},
		{
			name:    "stop sets stopPrice",
			command: NameNewStopOrder,
			args:    []string{"1", "buy", "2000", "1.5"},
			check: func(t *testing.T, msg *openapi.Message) {
				price, ok := msg.GetFloat("stopPrice")
				require.True(t, ok)
				assert.InDelta(t, 1.5, price, 1e-9)
			},
		},
		{
			name:    "volume truncated",
			command: NameNewMarketOrder,
			args:    []string{"1", "buy", "1500.9"},
			check: func(t *testing.T, msg *openapi.Message) {
				volume, _ := msg.GetInt("volume")
				assert.Equal(t, int64(1500), volume)
			},
		},
		{
			name:    "volume below one unit",
			command: NameNewMarketOrder,
			args:    []string{"1", "buy", "0.5"},
			wantErr: "volume",
		},
		{
			name:    "relative stops on market order",
			command: NameNewMarketOrder,
			args:    []string{"1", "buy", "1000", "hello", "50", "100"},
			check: func(t *testing.T, msg *openapi.Message) {
				sl, _ := msg.GetInt("relativeStopLoss")
				tp, _ := msg.GetInt("relativeTakeProfit")
				comment, _ := msg.GetString("comment")
				assert.Equal(t, int64(50), sl)
				assert.Equal(t, int64(100), tp)
				assert.Equal(t, "hello", comment)
			},
		},
		{
			name:    "relative stops ignored on limit",
			command: NameNewOrder,
			args:    []string{"1", "limit", "buy", "1000", "1.1", "", "50", "100"},
			check: func(t *testing.T, msg *openapi.Message) {
				assert.False(t, msg.Has("relativeStopLoss"))
				assert.False(t, msg.Has("relativeTakeProfit"))
			},
		},
		{
			name:    "unsupported order type",
			command: NameNewOrder,
			args:    []string{"1", "STOP_LIMIT", "buy", "1000", "1.1"},
			wantErr: "not supported",
		},
		{
			name:    "invalid trade side lists valid set",
			command: NameNewMarketOrder,
			args:    []string{"1", "hold", "1000"},
			wantErr: "[BUY, SELL]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := r.Parse(tt.command, tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, domain.IsKind(err, domain.KindValidation))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.command, cmd.CommandName())
			tt.check(t, build(t, cmd))
		})
	}
}

func TestTrendbarsBuild(t *testing.T) {
	r := newRegistry(t)
	cmd, err := r.ParseNamed(NameTrendbars, map[string]string{
		"fromTimestamp": "1000",
		"toTimestamp":   "2000",
		"period":        "m5",
		"symbolId":      "1",
	})
	require.NoError(t, err)

	msg := build(t, cmd)
	period, _ := msg.GetInt("period")
	assert.Equal(t, int64(5), period)
	from, _ := msg.GetInt("fromTimestamp")
	to, _ := msg.GetInt("toTimestamp")
	assert.Equal(t, int64(1000), from)
	assert.Equal(t, int64(2000), to)

	req := cmd.(Request)
	match := req.Reply(testBuild)
	same := openapi.MustMessage(openapi.PayloadGetTrendbarsRes).
		Set("ctidTraderAccountId", testBuild.AccountID).
		Set("symbolId", int64(1))
	other := openapi.MustMessage(openapi.PayloadGetTrendbarsRes).
		Set("ctidTraderAccountId", testBuild.AccountID).
		Set("symbolId", int64(2))
	assert.True(t, match(same))
	assert.False(t, match(other))
}

func TestTrendbarsInvalidPeriod(t *testing.T) {
	r := newRegistry(t)
	_, err := r.Parse(NameTrendbars, []string{"1000", "2000", "M7", "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "period")
	assert.Contains(t, err.Error(), "MN1")
}

func TestTickDataWindow(t *testing.T) {
	r := newRegistry(t)
	cmd, err := r.Parse(NameTickData, []string{"60", "bid", "1"})
	require.NoError(t, err)

	msg := build(t, cmd)
	from, _ := msg.GetInt("fromTimestamp")
	to, _ := msg.GetInt("toTimestamp")
	assert.Equal(t, testBuild.Now.UnixMilli(), to)
	assert.Equal(t, int64(60_000), to-from)
	quote, _ := msg.GetInt("type")
	assert.Equal(t, int64(domain.QuoteTypeBid), quote)
}

func TestSymbolsListBooleanCoercion(t *testing.T) {
	r := newRegistry(t)
	for raw, want := range map[string]bool{"true": true, "YES": true, "1": true, "off": false, "F": false} {
		cmd, err := r.Parse(NameSymbolsList, []string{raw})
		require.NoError(t, err, raw)
		assert.Equal(t, want, cmd.(SymbolsList).IncludeArchived, raw)
	}

	cmd, err := r.Parse(NameSymbolsList, nil)
	require.NoError(t, err)
	assert.False(t, cmd.(SymbolsList).IncludeArchived)

	_, err = r.Parse(NameSymbolsList, []string{"maybe"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestIntegerCoercion(t *testing.T) {
	r := newRegistry(t)
	_, err := r.Parse(NameCancelOrder, []string{"12a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orderId")

	cmd, err := r.Parse(NameCancelOrder, []string{" 42 "})
	require.NoError(t, err)
	assert.Equal(t, int64(42), cmd.(CancelOrder).OrderID)
}

func TestSetAccount(t *testing.T) {
	r := newRegistry(t)
	cmd, err := r.Parse(NameSetAccount, []string{"777"})
	require.NoError(t, err)
	assert.Equal(t, SetAccount{AccountID: 777}, cmd)
	assert.False(t, cmd.RequiresActiveAccount())

	cmd, err = r.Parse(NameSetAccount, nil)
	require.NoError(t, err)
	assert.Equal(t, SetAccount{}, cmd)

	_, err = r.Parse(NameSetAccount, []string{"-1"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestSimpleRequests(t *testing.T) {
	r := newRegistry(t)

	version := build(t, mustParse(t, r, NameVersion))
	assert.Equal(t, openapi.PayloadVersionReq, version.PayloadType)
	assert.False(t, version.Has("ctidTraderAccountId"))

	accounts := build(t, mustParse(t, r, NameAccountList))
	token, _ := accounts.GetString("accessToken")
	assert.Equal(t, "token", token)

	trader := build(t, mustParse(t, r, NameTrader))
	account, ok := trader.AccountID()
	require.True(t, ok)
	assert.Equal(t, testBuild.AccountID, account)
}

func TestRepeatedFields(t *testing.T) {
	r := newRegistry(t)

	margin := build(t, mustParse(t, r, NameExpectedMargin, "1", "1000"))
	assert.Equal(t, []int64{1000}, margin.GetInts("volume"))

	unsub := build(t, mustParse(t, r, NameUnsubscribeSpots, "9"))
	assert.Equal(t, []int64{9}, unsub.GetInts("symbolId"))
}

func TestOrderListByPositionOptionalWindow(t *testing.T) {
	r := newRegistry(t)

	msg := build(t, mustParse(t, r, NameOrderListByPosition, "5"))
	assert.False(t, msg.Has("fromTimestamp"))

	msg = build(t, mustParse(t, r, NameOrderListByPosition, "5", "100", "200"))
	from, _ := msg.GetInt("fromTimestamp")
	assert.Equal(t, int64(100), from)
}

func TestExecutionReplySkipsServerEvents(t *testing.T) {
	r := newRegistry(t)
	req := mustParse(t, r, NameCancelOrder, "1").(Request)
	match := req.Reply(testBuild)

	own := openapi.MustMessage(openapi.PayloadExecutionEvent).Set("ctidTraderAccountId", testBuild.AccountID)
	server := openapi.MustMessage(openapi.PayloadExecutionEvent).
		Set("ctidTraderAccountId", testBuild.AccountID).
		Set("isServerEvent", true)
	assert.True(t, match(own))
	assert.False(t, match(server))
}

func TestContract(t *testing.T) {
	r := newRegistry(t)
	d, ok := r.Lookup(NameTrendbars)
	require.True(t, ok)

	c := d.Contract()
	assert.Equal(t, "ProtoOAGetTrendbarsReq fromTimestamp toTimestamp period symbolId", c.Usage)
	require.Len(t, c.Params, 4)
	assert.Equal(t, TypeEnum, c.Params[2].Type)
	assert.Contains(t, c.Params[2].Values, "M5")
}

func mustParse(t *testing.T, r *Registry, name string, args ...string) Command {
	t.Helper()
	cmd, err := r.Parse(name, args)
	require.NoError(t, err)
	return cmd
}
