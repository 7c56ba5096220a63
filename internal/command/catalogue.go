package command

import (
	"github.com/xKoRx/openapi-proxy/sdk/domain"
	"github.com/xKoRx/openapi-proxy/sdk/openapi"
)

// Nombres de comando tal como se invocan por HTTP.
const (
	NameSetAccount          = "setAccount"
	NameVersion             = "ProtoOAVersionReq"
	NameAccountList         = "ProtoOAGetAccountListByAccessTokenReq"
	NameAssetList           = "ProtoOAAssetListReq"
	NameAssetClassList      = "ProtoOAAssetClassListReq"
	NameSymbolCategoryList  = "ProtoOASymbolCategoryListReq"
	NameSymbolsList         = "ProtoOASymbolsListReq"
	NameTrader              = "ProtoOATraderReq"
	NameReconcile           = "ProtoOAReconcileReq"
	NameTrendbars           = "ProtoOAGetTrendbarsReq"
	NameTickData            = "ProtoOAGetTickDataReq"
	NameNewOrder            = "NewOrder"
	NameNewMarketOrder      = "NewMarketOrder"
	NameNewLimitOrder       = "NewLimitOrder"
	NameNewStopOrder        = "NewStopOrder"
	NameClosePosition       = "ClosePosition"
	NameCancelOrder         = "CancelOrder"
	NameDealOffsetList      = "DealOffsetList"
	NameUnrealizedPnL       = "GetPositionUnrealizedPnL"
	NameOrderDetails        = "OrderDetails"
	NameOrderListByPosition = "OrderListByPositionId"
	NameExpectedMargin      = "ProtoOAExpectedMarginReq"
	NameAccountLogout       = "AccountLogout"
	NameUnsubscribeSpots    = "UnsubscribeSpots"
)

var (
	orderTypes      = &domain.OrderTypes
	tradeSides      = &domain.TradeSides
	quoteTypes      = &domain.QuoteTypes
	trendbarPeriods = &domain.TrendbarPeriods
)

// simple registra una petición sin parámetros.
func simple(name, description string, request, reply openapi.PayloadType, account bool) Descriptor {
	cmd := simpleRequest{name: name, request: request, reply: reply, account: account}
	if name == NameAccountList {
		cmd.fill = func(m *openapi.Message, bc BuildContext) { m.Set("accessToken", bc.AccessToken) }
	}
	return Descriptor{
		Name:                  name,
		Description:           description,
		RequiresActiveAccount: account,
		decode:                func(Values) (Command, error) { return cmd, nil },
	}
}

func orderParams(withType, withPrice, withExtras bool) []Param {
	params := []Param{integer("symbolId")}
	if withType {
		params = append(params, enum("orderType", orderTypes))
	}
	params = append(params, enum("tradeSide", tradeSides), dec("volume"))
	if withPrice {
		price := dec("price")
		if withType {
			price = optional(price)
		}
		params = append(params, price)
	}
	if withExtras {
		params = append(params,
			str("comment"),
			optional(integer("relativeStopLoss")),
			optional(integer("relativeTakeProfit")),
		)
	}
	return params
}

// decodeOrder arma un NewOrder; orderType 0 toma el del parámetro.
func decodeOrder(name string, orderType domain.OrderType) func(Values) (Command, error) {
	return func(v Values) (Command, error) {
		volume, _ := v.Decimal("volume")
		cmd := NewOrder{
			name:               name,
			SymbolID:           v.Int("symbolId"),
			OrderType:          orderType,
			TradeSide:          domain.TradeSide(v.Enum("tradeSide")),
			Volume:             truncVolume(volume),
			Comment:            v.Text("comment"),
			RelativeStopLoss:   v.OptInt("relativeStopLoss"),
			RelativeTakeProfit: v.OptInt("relativeTakeProfit"),
		}
		if orderType == 0 {
			cmd.OrderType = domain.OrderType(v.Enum("orderType"))
		}
		if price, ok := v.Decimal("price"); ok {
			cmd.Price = &price
		}
		if err := cmd.validate(); err != nil {
			return nil, err
		}
		return cmd, nil
	}
}

func positiveVolume(v Values) (int64, error) {
	d, _ := v.Decimal("volume")
	volume := truncVolume(d)
	if volume <= 0 {
		return 0, domain.Validationf("parameter volume: must be greater than zero").WithDetail("param", "volume")
	}
	return volume, nil
}

// Catalogue devuelve los descriptores de todos los comandos soportados.
func Catalogue() []Descriptor {
	return []Descriptor{
		{
			Name:        NameSetAccount,
			Description: "Switch the active trading account; without accountId the configured default is used",
			Params:      []Param{optional(integer("accountId"))},
			decode: func(v Values) (Command, error) {
				id := v.Int("accountId")
				if v.Has("accountId") && id <= 0 {
					return nil, domain.Validationf("parameter accountId: must be a positive integer").WithDetail("param", "accountId")
				}
				return SetAccount{AccountID: id}, nil
			},
		},
		simple(NameVersion, "Protocol version of the venue", openapi.PayloadVersionReq, openapi.PayloadVersionRes, false),
		simple(NameAccountList, "Trading accounts reachable with the access token",
			openapi.PayloadGetAccountsByAccessTokenReq, openapi.PayloadGetAccountsByAccessTokenRes, false),
		simple(NameAssetList, "Assets of the active account", openapi.PayloadAssetListReq, openapi.PayloadAssetListRes, true),
		simple(NameAssetClassList, "Asset classes of the active account",
			openapi.PayloadAssetClassListReq, openapi.PayloadAssetClassListRes, true),
		simple(NameSymbolCategoryList, "Symbol categories of the active account",
			openapi.PayloadSymbolCategoryReq, openapi.PayloadSymbolCategoryRes, true),
		{
			Name:                  NameSymbolsList,
			Description:           "Symbols of the active account",
			Params:                []Param{boolean("includeArchivedSymbols", "false")},
			RequiresActiveAccount: true,
			decode: func(v Values) (Command, error) {
				return SymbolsList{IncludeArchived: v.Bool("includeArchivedSymbols")}, nil
			},
		},
		simple(NameTrader, "Trader details of the active account", openapi.PayloadTraderReq, openapi.PayloadTraderRes, true),
		simple(NameReconcile, "Open positions and pending orders", openapi.PayloadReconcileReq, openapi.PayloadReconcileRes, true),
		{
			Name:        NameTrendbars,
			Description: "Historical bars of a symbol",
			Params: []Param{
				integer("fromTimestamp"),
				integer("toTimestamp"),
				enum("period", trendbarPeriods),
				integer("symbolId"),
			},
			RequiresActiveAccount: true,
			decode: func(v Values) (Command, error) {
				cmd := Trendbars{
					FromTimestamp: v.Int("fromTimestamp"),
					ToTimestamp:   v.Int("toTimestamp"),
					Period:        domain.TrendbarPeriod(v.Enum("period")),
					SymbolID:      v.Int("symbolId"),
				}
				if cmd.ToTimestamp < cmd.FromTimestamp {
					return nil, domain.Validationf("parameter toTimestamp: must not be before fromTimestamp").
						WithDetail("param", "toTimestamp")
				}
				return cmd, nil
			},
		},
		{
			Name:                  NameTickData,
			Description:           "Ticks of a symbol for the last N seconds",
			Params:                []Param{integer("seconds"), enum("quoteType", quoteTypes), integer("symbolId")},
			RequiresActiveAccount: true,
			decode: func(v Values) (Command, error) {
				seconds := v.Int("seconds")
				if seconds <= 0 {
					return nil, domain.Validationf("parameter seconds: must be greater than zero").WithDetail("param", "seconds")
				}
				return TickData{
					Seconds:   seconds,
					QuoteType: domain.QuoteType(v.Enum("quoteType")),
					SymbolID:  v.Int("symbolId"),
				}, nil
			},
		},
		{
			Name:                  NameNewOrder,
			Description:           "New MARKET, LIMIT or STOP order; volume in units",
			Params:                orderParams(true, true, true),
			RequiresActiveAccount: true,
			decode:                decodeOrder(NameNewOrder, 0),
		},
		{
			Name:                  NameNewMarketOrder,
			Description:           "New market order with optional relative stop loss and take profit",
			Params:                orderParams(false, false, true),
			RequiresActiveAccount: true,
			decode:                decodeOrder(NameNewMarketOrder, domain.OrderTypeMarket),
		},
		{
			Name:                  NameNewLimitOrder,
			Description:           "New limit order",
			Params:                orderParams(false, true, false),
			RequiresActiveAccount: true,
			decode:                decodeOrder(NameNewLimitOrder, domain.OrderTypeLimit),
		},
		{
			Name:                  NameNewStopOrder,
			Description:           "New stop order",
			Params:                orderParams(false, true, false),
			RequiresActiveAccount: true,
			decode:                decodeOrder(NameNewStopOrder, domain.OrderTypeStop),
		},
		{
			Name:                  NameClosePosition,
			Description:           "Close a position fully or partially",
			Params:                []Param{integer("positionId"), dec("volume")},
			RequiresActiveAccount: true,
			decode: func(v Values) (Command, error) {
				volume, err := positiveVolume(v)
				if err != nil {
					return nil, err
				}
				return ClosePosition{PositionID: v.Int("positionId"), Volume: volume}, nil
			},
		},
		{
			Name:                  NameCancelOrder,
			Description:           "Cancel a pending order",
			Params:                []Param{integer("orderId")},
			RequiresActiveAccount: true,
			decode: func(v Values) (Command, error) {
				return CancelOrder{OrderID: v.Int("orderId")}, nil
			},
		},
		{
			Name:                  NameDealOffsetList,
			Description:           "Deals offset by or offsetting a deal",
			Params:                []Param{integer("dealId")},
			RequiresActiveAccount: true,
			decode: func(v Values) (Command, error) {
				return DealOffsetList{DealID: v.Int("dealId")}, nil
			},
		},
		simple(NameUnrealizedPnL, "Unrealized PnL of open positions",
			openapi.PayloadGetPositionUnrealizedPnLReq, openapi.PayloadGetPositionUnrealizedPnLRes, true),
		{
			Name:                  NameOrderDetails,
			Description:           "Order details with its deals",
			Params:                []Param{integer("orderId")},
			RequiresActiveAccount: true,
			decode: func(v Values) (Command, error) {
				return OrderDetails{OrderID: v.Int("orderId")}, nil
			},
		},
		{
			Name:        NameOrderListByPosition,
			Description: "Orders of a position",
			Params: []Param{
				integer("positionId"),
				optional(integer("fromTimestamp")),
				optional(integer("toTimestamp")),
			},
			RequiresActiveAccount: true,
			decode: func(v Values) (Command, error) {
				return OrderListByPosition{
					PositionID:    v.Int("positionId"),
					FromTimestamp: v.OptInt("fromTimestamp"),
					ToTimestamp:   v.OptInt("toTimestamp"),
				}, nil
			},
		},
		{
			Name:                  NameExpectedMargin,
			Description:           "Expected margin for a volume of a symbol",
			Params:                []Param{integer("symbolId"), dec("volume")},
			RequiresActiveAccount: true,
			decode: func(v Values) (Command, error) {
				volume, err := positiveVolume(v)
				if err != nil {
					return nil, err
				}
				return ExpectedMargin{SymbolID: v.Int("symbolId"), Volume: volume}, nil
			},
		},
		simple(NameAccountLogout, "Log the active account out of the session",
			openapi.PayloadAccountLogoutReq, openapi.PayloadAccountLogoutRes, true),
		{
			Name:                  NameUnsubscribeSpots,
			Description:           "Stop spot price events for a symbol",
			Params:                []Param{integer("symbolId")},
			RequiresActiveAccount: true,
			decode: func(v Values) (Command, error) {
				return UnsubscribeSpots{SymbolID: v.Int("symbolId")}, nil
			},
		},
	}
}

// DefaultRegistry registro con el catálogo completo.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	for _, d := range Catalogue() {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}
