package openapi

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xKoRx/openapi-proxy/sdk/domain"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

const schemaPackage = "openapi"

// fieldSpec declara un campo de un mensaje del esquema.
type fieldSpec struct {
	name     string
	number   int32
	kind     descriptorpb.FieldDescriptorProto_Type
	ref      string // tipo referenciado para mensajes y enums
	repeated bool
}

func f(number int32, name string, kind descriptorpb.FieldDescriptorProto_Type) fieldSpec {
	return fieldSpec{name: name, number: number, kind: kind}
}

func fmsg(number int32, name, ref string) fieldSpec {
	return fieldSpec{name: name, number: number, kind: tMessage, ref: ref}
}

func fenum(number int32, name, ref string) fieldSpec {
	return fieldSpec{name: name, number: number, kind: tEnum, ref: ref}
}

func rep(s fieldSpec) fieldSpec {
	s.repeated = true
	return s
}

const (
	tInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
	tInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
	tUint64  = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	tUint32  = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	tDouble  = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	tEnum    = descriptorpb.FieldDescriptorProto_TYPE_ENUM
)

// messageSpec declara un mensaje; payload es 0 para los modelos anidados.
type messageSpec struct {
	name    string
	payload PayloadType
	fields  []fieldSpec
}

const ctid = "ctidTraderAccountId"

// oa antepone el campo payloadType y, si se pide, ctidTraderAccountId (2).
func oa(withAccount bool, fields ...fieldSpec) []fieldSpec {
	out := []fieldSpec{fenum(1, "payloadType", "ProtoOAPayloadType")}
	if withAccount {
		out = append(out, f(2, ctid, tInt64))
	}
	return append(out, fields...)
}

var schemaMessages = []messageSpec{
	// Comunes
	{"ProtoErrorRes", PayloadErrorRes, []fieldSpec{
		fenum(1, "payloadType", "ProtoPayloadType"),
		f(2, "errorCode", tString),
		f(3, "description", tString),
		f(4, "maintenanceEndTimestamp", tUint64),
	}},
	{"ProtoHeartbeatEvent", PayloadHeartbeatEvent, []fieldSpec{
		fenum(1, "payloadType", "ProtoPayloadType"),
	}},

	// Autenticación
	{"ProtoOAApplicationAuthReq", PayloadApplicationAuthReq, oa(false,
		f(2, "clientId", tString),
		f(3, "clientSecret", tString),
	)},
	{"ProtoOAApplicationAuthRes", PayloadApplicationAuthRes, oa(false)},
	{"ProtoOAAccountAuthReq", PayloadAccountAuthReq, oa(true, f(3, "accessToken", tString))},
	{"ProtoOAAccountAuthRes", PayloadAccountAuthRes, oa(true)},
	{"ProtoOAAccountLogoutReq", PayloadAccountLogoutReq, oa(true)},
	{"ProtoOAAccountLogoutRes", PayloadAccountLogoutRes, oa(true)},
	{"ProtoOAErrorRes", PayloadOAErrorRes, oa(true,
		f(3, "errorCode", tString),
		f(4, "description", tString),
		f(5, "maintenanceEndTimestamp", tInt64),
	)},
	{"ProtoOAClientDisconnectEvent", PayloadClientDisconnectEvent, oa(false, f(2, "reason", tString))},
	{"ProtoOAAccountsTokenInvalidatedEvent", PayloadAccountsTokenInvalidatedEvent, oa(false,
		rep(f(2, "ctidTraderAccountIds", tInt64)),
		f(3, "reason", tString),
	)},
	{"ProtoOAAccountDisconnectEvent", PayloadAccountDisconnectEvent, oa(true)},
	{"ProtoOAVersionReq", PayloadVersionReq, oa(false)},
	{"ProtoOAVersionRes", PayloadVersionRes, oa(false, f(2, "version", tString))},
	{"ProtoOAGetAccountListByAccessTokenReq", PayloadGetAccountsByAccessTokenReq, oa(false, f(2, "accessToken", tString))},
	{"ProtoOAGetAccountListByAccessTokenRes", PayloadGetAccountsByAccessTokenRes, oa(false,
		f(2, "accessToken", tString),
		fenum(3, "permissionScope", "ProtoOAClientPermissionScope"),
		rep(fmsg(4, "ctidTraderAccount", "ProtoOACtidTraderAccount")),
	)},

	// Datos de referencia
	{"ProtoOAAssetListReq", PayloadAssetListReq, oa(true)},
	{"ProtoOAAssetListRes", PayloadAssetListRes, oa(true, rep(fmsg(3, "asset", "ProtoOAAsset")))},
	{"ProtoOAAssetClassListReq", PayloadAssetClassListReq, oa(true)},
	{"ProtoOAAssetClassListRes", PayloadAssetClassListRes, oa(true, rep(fmsg(3, "assetClass", "ProtoOAAssetClass")))},
	{"ProtoOASymbolCategoryListReq", PayloadSymbolCategoryReq, oa(true)},
	{"ProtoOASymbolCategoryListRes", PayloadSymbolCategoryRes, oa(true, rep(fmsg(3, "symbolCategory", "ProtoOASymbolCategory")))},
	{"ProtoOASymbolsListReq", PayloadSymbolsListReq, oa(true, f(3, "includeArchivedSymbols", tBool))},
	{"ProtoOASymbolsListRes", PayloadSymbolsListRes, oa(true,
		rep(fmsg(3, "symbol", "ProtoOALightSymbol")),
		rep(fmsg(4, "archivedSymbol", "ProtoOAArchivedSymbol")),
	)},
	{"ProtoOATraderReq", PayloadTraderReq, oa(true)},
	{"ProtoOATraderRes", PayloadTraderRes, oa(true, fmsg(3, "trader", "ProtoOATrader"))},
	{"ProtoOATraderUpdatedEvent", PayloadTraderUpdateEvent, oa(true, fmsg(3, "trader", "ProtoOATrader"))},
	{"ProtoOAReconcileReq", PayloadReconcileReq, oa(true, f(3, "returnProtectionOrders", tBool))},
	{"ProtoOAReconcileRes", PayloadReconcileRes, oa(true,
		rep(fmsg(3, "position", "ProtoOAPosition")),
		rep(fmsg(4, "order", "ProtoOAOrder")),
	)},

	// Trading
	{"ProtoOANewOrderReq", PayloadNewOrderReq, oa(true,
		f(3, "symbolId", tInt64),
		fenum(4, "orderType", "ProtoOAOrderType"),
		fenum(5, "tradeSide", "ProtoOATradeSide"),
		f(6, "volume", tInt64),
		f(7, "limitPrice", tDouble),
		f(8, "stopPrice", tDouble),
		fenum(9, "timeInForce", "ProtoOATimeInForce"),
		f(10, "expirationTimestamp", tInt64),
		f(11, "stopLoss", tDouble),
		f(12, "takeProfit", tDouble),
		f(13, "comment", tString),
		f(14, "baseSlippagePrice", tDouble),
		f(15, "slippageInPoints", tInt32),
		f(16, "label", tString),
		f(17, "positionId", tInt64),
		f(18, "clientOrderId", tString),
		f(19, "relativeStopLoss", tInt64),
		f(20, "relativeTakeProfit", tInt64),
		f(21, "guaranteedStopLoss", tBool),
		f(22, "trailingStopLoss", tBool),
		fenum(23, "stopTriggerMethod", "ProtoOAOrderTriggerMethod"),
	)},
	{"ProtoOACancelOrderReq", PayloadCancelOrderReq, oa(true, f(3, "orderId", tInt64))},
	{"ProtoOAClosePositionReq", PayloadClosePositionReq, oa(true,
		f(3, "positionId", tInt64),
		f(4, "volume", tInt64),
	)},
	{"ProtoOAExecutionEvent", PayloadExecutionEvent, oa(true,
		fenum(3, "executionType", "ProtoOAExecutionType"),
		fmsg(4, "position", "ProtoOAPosition"),
		fmsg(5, "order", "ProtoOAOrder"),
		fmsg(6, "deal", "ProtoOADeal"),
		f(9, "errorCode", tString),
		f(10, "isServerEvent", tBool),
	)},
	{"ProtoOAOrderErrorEvent", PayloadOrderErrorEvent, []fieldSpec{
		fenum(1, "payloadType", "ProtoOAPayloadType"),
		f(2, "errorCode", tString),
		f(3, "orderId", tInt64),
		f(5, ctid, tInt64),
		f(6, "positionId", tInt64),
		f(7, "description", tString),
	}},
	{"ProtoOAExpectedMarginReq", PayloadExpectedMarginReq, oa(true,
		f(3, "symbolId", tInt64),
		rep(f(4, "volume", tInt64)),
	)},
	{"ProtoOAExpectedMarginRes", PayloadExpectedMarginRes, oa(true,
		rep(fmsg(3, "margin", "ProtoOAExpectedMargin")),
		f(4, "moneyDigits", tUint32),
	)},
	{"ProtoOAMarginChangedEvent", PayloadMarginChangedEvent, oa(true,
		f(3, "positionId", tUint64),
		f(4, "usedMargin", tUint64),
		f(5, "moneyDigits", tUint32),
	)},
	{"ProtoOAOrderDetailsReq", PayloadOrderDetailsReq, oa(true, f(3, "orderId", tInt64))},
	{"ProtoOAOrderDetailsRes", PayloadOrderDetailsRes, oa(true,
		fmsg(3, "order", "ProtoOAOrder"),
		rep(fmsg(4, "deal", "ProtoOADeal")),
	)},
	{"ProtoOAOrderListByPositionIdReq", PayloadOrderListByPositionIDReq, oa(true,
		f(3, "positionId", tInt64),
		f(4, "fromTimestamp", tInt64),
		f(5, "toTimestamp", tInt64),
	)},
	{"ProtoOAOrderListByPositionIdRes", PayloadOrderListByPositionIDRes, oa(true,
		rep(fmsg(3, "order", "ProtoOAOrder")),
		f(4, "hasMore", tBool),
	)},
	{"ProtoOADealOffsetListReq", PayloadDealOffsetListReq, oa(true, f(3, "dealId", tInt64))},
	{"ProtoOADealOffsetListRes", PayloadDealOffsetListRes, oa(true,
		rep(fmsg(3, "offsetBy", "ProtoOADealOffset")),
		rep(fmsg(4, "offsetting", "ProtoOADealOffset")),
	)},
	{"ProtoOAGetPositionUnrealizedPnLReq", PayloadGetPositionUnrealizedPnLReq, oa(true)},
	{"ProtoOAGetPositionUnrealizedPnLRes", PayloadGetPositionUnrealizedPnLRes, oa(true,
		rep(fmsg(3, "positionUnrealizedPnL", "ProtoOAPositionUnrealizedPnL")),
		f(4, "moneyDigits", tUint32),
	)},

	// Mercado
	{"ProtoOAGetTrendbarsReq", PayloadGetTrendbarsReq, oa(true,
		f(3, "fromTimestamp", tInt64),
		f(4, "toTimestamp", tInt64),
		fenum(5, "period", "ProtoOATrendbarPeriod"),
		f(6, "symbolId", tInt64),
		f(7, "count", tUint32),
	)},
	{"ProtoOAGetTrendbarsRes", PayloadGetTrendbarsRes, oa(true,
		fenum(3, "period", "ProtoOATrendbarPeriod"),
		f(4, "timestamp", tInt64),
		rep(fmsg(5, "trendbar", "ProtoOATrendbar")),
		f(6, "symbolId", tInt64),
		f(7, "hasMore", tBool),
	)},
	{"ProtoOAGetTickDataReq", PayloadGetTickDataReq, oa(true,
		f(3, "symbolId", tInt64),
		fenum(4, "type", "ProtoOAQuoteType"),
		f(5, "fromTimestamp", tInt64),
		f(6, "toTimestamp", tInt64),
	)},
	{"ProtoOAGetTickDataRes", PayloadGetTickDataRes, oa(true,
		rep(fmsg(3, "tickData", "ProtoOATickData")),
		f(4, "hasMore", tBool),
	)},
	{"ProtoOAUnsubscribeSpotsReq", PayloadUnsubscribeSpotsReq, oa(true, rep(f(3, "symbolId", tInt64)))},
	{"ProtoOAUnsubscribeSpotsRes", PayloadUnsubscribeSpotsRes, oa(true)},
	{"ProtoOASpotEvent", PayloadSpotEvent, oa(true,
		f(3, "symbolId", tInt64),
		f(4, "bid", tUint64),
		f(5, "ask", tUint64),
		rep(fmsg(6, "trendbar", "ProtoOATrendbar")),
		f(7, "sessionClose", tUint64),
		f(8, "timestamp", tInt64),
	)},

	// Modelos
	{"ProtoOACtidTraderAccount", 0, []fieldSpec{
		f(1, ctid, tUint64),
		f(2, "isLive", tBool),
		f(3, "traderLogin", tInt64),
		f(4, "lastClosingDealTimestamp", tInt64),
		f(5, "lastBalanceUpdateTimestamp", tInt64),
		f(6, "brokerTitleShort", tString),
	}},
	{"ProtoOAAsset", 0, []fieldSpec{
		f(1, "assetId", tInt64),
		f(2, "name", tString),
		f(3, "displayName", tString),
		f(4, "digits", tInt32),
	}},
	{"ProtoOAAssetClass", 0, []fieldSpec{
		f(1, "id", tInt64),
		f(2, "name", tString),
	}},
	{"ProtoOASymbolCategory", 0, []fieldSpec{
		f(1, "id", tInt64),
		f(2, "assetClassId", tInt64),
		f(3, "name", tString),
		f(4, "sortOrder", tDouble),
	}},
	{"ProtoOALightSymbol", 0, []fieldSpec{
		f(1, "symbolId", tInt64),
		f(2, "symbolName", tString),
		f(3, "enabled", tBool),
		f(4, "baseAssetId", tInt64),
		f(5, "quoteAssetId", tInt64),
		f(6, "symbolCategoryId", tInt64),
		f(7, "description", tString),
		f(8, "sortingNumber", tDouble),
	}},
	{"ProtoOAArchivedSymbol", 0, []fieldSpec{
		f(1, "symbolId", tInt64),
		f(2, "name", tString),
		f(3, "utcLastUpdateTimestamp", tInt64),
		f(4, "description", tString),
	}},
	{"ProtoOATrader", 0, []fieldSpec{
		f(1, ctid, tInt64),
		f(2, "balance", tInt64),
		f(3, "balanceVersion", tInt64),
		f(4, "managerBonus", tInt64),
		f(5, "ibBonus", tInt64),
		f(6, "nonWithdrawableBonus", tInt64),
		fenum(7, "accessRights", "ProtoOAAccessRights"),
		f(8, "depositAssetId", tInt64),
		f(9, "swapFree", tBool),
		f(10, "leverageInCents", tUint32),
		fenum(11, "totalMarginCalculationType", "ProtoOATotalMarginCalculationType"),
		f(12, "maxLeverage", tUint32),
		f(13, "frenchRisk", tBool),
		f(14, "traderLogin", tInt64),
		fenum(15, "accountType", "ProtoOAAccountType"),
		f(16, "brokerName", tString),
		f(17, "registrationTimestamp", tInt64),
		f(18, "isLimitedRisk", tBool),
		f(20, "moneyDigits", tUint32),
	}},
	{"ProtoOATradeData", 0, []fieldSpec{
		f(1, "symbolId", tInt64),
		f(2, "volume", tInt64),
		fenum(3, "tradeSide", "ProtoOATradeSide"),
		f(4, "openTimestamp", tInt64),
		f(5, "label", tString),
		f(6, "guaranteedStopLoss", tBool),
		f(7, "comment", tString),
	}},
	{"ProtoOAPosition", 0, []fieldSpec{
		f(1, "positionId", tInt64),
		fmsg(2, "tradeData", "ProtoOATradeData"),
		fenum(3, "positionStatus", "ProtoOAPositionStatus"),
		f(4, "swap", tInt64),
		f(5, "price", tDouble),
		f(6, "stopLoss", tDouble),
		f(7, "takeProfit", tDouble),
		f(8, "utcLastUpdateTimestamp", tInt64),
		f(9, "commission", tInt64),
		f(10, "marginRate", tDouble),
		f(11, "mirroringCommission", tInt64),
		f(12, "guaranteedStopLoss", tBool),
		f(13, "usedMargin", tUint64),
		fenum(14, "stopLossTriggerMethod", "ProtoOAOrderTriggerMethod"),
		f(15, "moneyDigits", tUint32),
		f(16, "trailingStopLoss", tBool),
	}},
	{"ProtoOAOrder", 0, []fieldSpec{
		f(1, "orderId", tInt64),
		fmsg(2, "tradeData", "ProtoOATradeData"),
		fenum(3, "orderType", "ProtoOAOrderType"),
		fenum(4, "orderStatus", "ProtoOAOrderStatus"),
		f(6, "expirationTimestamp", tInt64),
		f(7, "executionPrice", tDouble),
		f(8, "executedVolume", tInt64),
		f(9, "utcLastUpdateTimestamp", tInt64),
		f(10, "baseSlippagePrice", tDouble),
		f(11, "slippageInPoints", tInt64),
		f(12, "closingOrder", tBool),
		f(13, "limitPrice", tDouble),
		f(14, "stopPrice", tDouble),
		f(15, "stopLoss", tDouble),
		f(16, "takeProfit", tDouble),
		f(17, "clientOrderId", tString),
		fenum(18, "timeInForce", "ProtoOATimeInForce"),
		f(19, "positionId", tInt64),
		f(20, "relativeStopLoss", tInt64),
		f(21, "relativeTakeProfit", tInt64),
		f(22, "isStopOut", tBool),
		f(23, "trailingStopLoss", tBool),
		fenum(24, "stopTriggerMethod", "ProtoOAOrderTriggerMethod"),
	}},
	{"ProtoOAClosePositionDetail", 0, []fieldSpec{
		f(1, "entryPrice", tDouble),
		f(2, "grossProfit", tInt64),
		f(3, "swap", tInt64),
		f(4, "commission", tInt64),
		f(5, "balance", tInt64),
		f(6, "quoteToDepositConversionRate", tDouble),
		f(7, "closedVolume", tInt64),
		f(8, "balanceVersion", tInt64),
		f(9, "moneyDigits", tUint32),
	}},
	{"ProtoOADeal", 0, []fieldSpec{
		f(1, "dealId", tInt64),
		f(2, "orderId", tInt64),
		f(3, "positionId", tInt64),
		f(4, "volume", tInt64),
		f(5, "filledVolume", tInt64),
		f(6, "symbolId", tInt64),
		f(7, "createTimestamp", tInt64),
		f(8, "executionTimestamp", tInt64),
		f(9, "utcLastUpdateTimestamp", tInt64),
		f(10, "executionPrice", tDouble),
		fenum(11, "tradeSide", "ProtoOATradeSide"),
		fenum(12, "dealStatus", "ProtoOADealStatus"),
		f(13, "marginRate", tDouble),
		f(14, "commission", tInt64),
		f(15, "baseToUsdConversionRate", tDouble),
		fmsg(16, "closePositionDetail", "ProtoOAClosePositionDetail"),
		f(17, "moneyDigits", tUint32),
	}},
	{"ProtoOADealOffset", 0, []fieldSpec{
		f(1, "dealId", tInt64),
		f(2, "volume", tInt64),
		f(3, "executionTimestamp", tInt64),
		f(4, "executionPrice", tDouble),
	}},
	{"ProtoOATrendbar", 0, []fieldSpec{
		f(3, "volume", tInt64),
		fenum(4, "period", "ProtoOATrendbarPeriod"),
		f(5, "low", tInt64),
		f(6, "deltaOpen", tUint64),
		f(7, "deltaClose", tUint64),
		f(8, "deltaHigh", tUint64),
		f(9, "utcTimestampInMinutes", tUint32),
	}},
	{"ProtoOATickData", 0, []fieldSpec{
		f(1, "timestamp", tInt64),
		f(2, "tick", tInt64),
	}},
	{"ProtoOAExpectedMargin", 0, []fieldSpec{
		f(1, "volume", tInt64),
		f(2, "buyMargin", tInt64),
		f(3, "sellMargin", tInt64),
	}},
	{"ProtoOAPositionUnrealizedPnL", 0, []fieldSpec{
		f(1, "positionId", tInt64),
		f(2, "grossUnrealizedPnL", tInt64),
		f(3, "netUnrealizedPnL", tInt64),
	}},
}

// schemaEnums enums propios del protocolo que no viven en sdk/domain.
var schemaEnums = []domain.EnumTable{
	domain.OrderTypes,
	domain.TradeSides,
	domain.QuoteTypes,
	domain.TrendbarPeriods,
	{Name: "ProtoOAExecutionType", Values: []domain.EnumValue{
		{Name: "ORDER_ACCEPTED", Number: 2}, {Name: "ORDER_FILLED", Number: 3}, {Name: "ORDER_REPLACED", Number: 4}, {Name: "ORDER_CANCELLED", Number: 5},
		{Name: "ORDER_EXPIRED", Number: 6}, {Name: "ORDER_REJECTED", Number: 7}, {Name: "ORDER_CANCEL_REJECTED", Number: 8}, {Name: "SWAP", Number: 9},
		{Name: "DEPOSIT_WITHDRAW", Number: 10}, {Name: "ORDER_PARTIAL_FILL", Number: 11}, {Name: "BONUS_DEPOSIT_WITHDRAW", Number: 12},
	}},
	{Name: "ProtoOAPositionStatus", Values: []domain.EnumValue{
		{Name: "POSITION_STATUS_OPEN", Number: 1}, {Name: "POSITION_STATUS_CLOSED", Number: 2},
		{Name: "POSITION_STATUS_CREATED", Number: 3}, {Name: "POSITION_STATUS_ERROR", Number: 4},
	}},
	{Name: "ProtoOAOrderStatus", Values: []domain.EnumValue{
		{Name: "ORDER_STATUS_ACCEPTED", Number: 1}, {Name: "ORDER_STATUS_FILLED", Number: 2}, {Name: "ORDER_STATUS_REJECTED", Number: 3},
		{Name: "ORDER_STATUS_EXPIRED", Number: 4}, {Name: "ORDER_STATUS_CANCELLED", Number: 5},
	}},
	{Name: "ProtoOADealStatus", Values: []domain.EnumValue{
		{Name: "FILLED", Number: 2}, {Name: "PARTIALLY_FILLED", Number: 3}, {Name: "REJECTED", Number: 4},
		{Name: "INTERNALLY_REJECTED", Number: 5}, {Name: "ERROR", Number: 6}, {Name: "MISSED", Number: 7},
	}},
	{Name: "ProtoOATimeInForce", Values: []domain.EnumValue{
		{Name: "GOOD_TILL_DATE", Number: 1}, {Name: "GOOD_TILL_CANCEL", Number: 2}, {Name: "IMMEDIATE_OR_CANCEL", Number: 3},
		{Name: "FILL_OR_KILL", Number: 4}, {Name: "MARKET_ON_OPEN", Number: 5},
	}},
	{Name: "ProtoOAAccessRights", Values: []domain.EnumValue{
		{Name: "FULL_ACCESS", Number: 0}, {Name: "CLOSE_ONLY", Number: 1}, {Name: "NO_TRADING", Number: 2}, {Name: "NO_LOGIN", Number: 3},
	}},
	{Name: "ProtoOATotalMarginCalculationType", Values: []domain.EnumValue{
		{Name: "MAX", Number: 0}, {Name: "SUM", Number: 1}, {Name: "NET", Number: 2},
	}},
	{Name: "ProtoOAAccountType", Values: []domain.EnumValue{
		{Name: "HEDGED", Number: 0}, {Name: "NETTED", Number: 1}, {Name: "SPREAD_BETTING", Number: 2},
	}},
	{Name: "ProtoOAClientPermissionScope", Values: []domain.EnumValue{
		{Name: "SCOPE_VIEW", Number: 0}, {Name: "SCOPE_TRADE", Number: 1},
	}},
	{Name: "ProtoOAOrderTriggerMethod", Values: []domain.EnumValue{
		{Name: "TRADE", Number: 1}, {Name: "OPPOSITE", Number: 2}, {Name: "DOUBLE_TRADE", Number: 3}, {Name: "DOUBLE_OPPOSITE", Number: 4},
	}},
}

// payloadEnums construye ProtoPayloadType y ProtoOAPayloadType desde el catálogo.
func payloadEnums() []domain.EnumTable {
	common := domain.EnumTable{Name: "ProtoPayloadType"}
	openAPI := domain.EnumTable{Name: "ProtoOAPayloadType"}
	types := make([]PayloadType, 0, len(payloadNames))
	for pt := range payloadNames {
		types = append(types, pt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, pt := range types {
		v := domain.EnumValue{Name: payloadNames[pt], Number: int32(pt)}
		if pt.IsCommon() {
			common.Values = append(common.Values, v)
		} else {
			openAPI.Values = append(openAPI.Values, v)
		}
	}
	return []domain.EnumTable{common, openAPI}
}

type schema struct {
	file      protoreflect.FileDescriptor
	byPayload map[PayloadType]protoreflect.MessageDescriptor
}

var (
	schemaOnce sync.Once
	loaded     *schema
	schemaErr  error
)

func loadSchema() *schema {
	schemaOnce.Do(func() {
		loaded, schemaErr = buildSchema()
	})
	if schemaErr != nil {
		panic(fmt.Sprintf("openapi: invalid message schema: %v", schemaErr))
	}
	return loaded
}

func buildSchema() (*schema, error) {
	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("openapi/messages.proto"),
		Package: proto.String(schemaPackage),
		Syntax:  proto.String("proto2"),
	}

	for _, table := range append(payloadEnums(), schemaEnums...) {
		ed := &descriptorpb.EnumDescriptorProto{Name: proto.String(table.Name)}
		for _, v := range table.Values {
			ed.Value = append(ed.Value, &descriptorpb.EnumValueDescriptorProto{
				Name:   proto.String(v.Name),
				Number: proto.Int32(v.Number),
			})
		}
		fdp.EnumType = append(fdp.EnumType, ed)
	}

	for _, m := range schemaMessages {
		md := &descriptorpb.DescriptorProto{Name: proto.String(m.name)}
		for _, fs := range m.fields {
			label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
			if fs.repeated {
				label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
			}
			fd := &descriptorpb.FieldDescriptorProto{
				Name:   proto.String(fs.name),
				Number: proto.Int32(fs.number),
				Label:  label.Enum(),
				Type:   fs.kind.Enum(),
			}
			if fs.ref != "" {
				fd.TypeName = proto.String("." + schemaPackage + "." + fs.ref)
			}
			md.Field = append(md.Field, fd)
		}
		fdp.MessageType = append(fdp.MessageType, md)
	}

	file, err := protodesc.NewFile(fdp, new(protoregistry.Files))
	if err != nil {
		return nil, err
	}

	s := &schema{file: file, byPayload: make(map[PayloadType]protoreflect.MessageDescriptor)}
	for _, m := range schemaMessages {
		if m.payload == 0 {
			continue
		}
		s.byPayload[m.payload] = file.Messages().ByName(protoreflect.Name(m.name))
	}
	return s, nil
}

// Descriptor devuelve el descriptor del mensaje asociado a un tipo de payload.
func Descriptor(pt PayloadType) (protoreflect.MessageDescriptor, bool) {
	md, ok := loadSchema().byPayload[pt]
	return md, ok
}

// MessageDescriptorByName busca un mensaje del esquema por nombre corto.
func MessageDescriptorByName(name string) protoreflect.MessageDescriptor {
	return loadSchema().file.Messages().ByName(protoreflect.Name(name))
}
