package openapi

import "strconv"

// PayloadType identifica el tipo de mensaje dentro del envelope ProtoMessage.
type PayloadType uint32

// Tipos comunes (ProtoPayloadType)
const (
	PayloadProtoMessage   PayloadType = 5
	PayloadErrorRes       PayloadType = 50
	PayloadHeartbeatEvent PayloadType = 51
)

// Tipos de Open API (ProtoOAPayloadType)
const (
	PayloadApplicationAuthReq            PayloadType = 2100
	PayloadApplicationAuthRes            PayloadType = 2101
	PayloadAccountAuthReq                PayloadType = 2102
	PayloadAccountAuthRes                PayloadType = 2103
	PayloadVersionReq                    PayloadType = 2104
	PayloadVersionRes                    PayloadType = 2105
	PayloadNewOrderReq                   PayloadType = 2106
	PayloadTrailingSLChangedEvent        PayloadType = 2107
	PayloadCancelOrderReq                PayloadType = 2108
	PayloadAmendOrderReq                 PayloadType = 2109
	PayloadAmendPositionSLTPReq          PayloadType = 2110
	PayloadClosePositionReq              PayloadType = 2111
	PayloadAssetListReq                  PayloadType = 2112
	PayloadAssetListRes                  PayloadType = 2113
	PayloadSymbolsListReq                PayloadType = 2114
	PayloadSymbolsListRes                PayloadType = 2115
	PayloadSymbolByIDReq                 PayloadType = 2116
	PayloadSymbolByIDRes                 PayloadType = 2117
	PayloadSymbolChangedEvent            PayloadType = 2120
	PayloadTraderReq                     PayloadType = 2121
	PayloadTraderRes                     PayloadType = 2122
	PayloadTraderUpdateEvent             PayloadType = 2123
	PayloadReconcileReq                  PayloadType = 2124
	PayloadReconcileRes                  PayloadType = 2125
	PayloadExecutionEvent                PayloadType = 2126
	PayloadSubscribeSpotsReq             PayloadType = 2127
	PayloadSubscribeSpotsRes             PayloadType = 2128
	PayloadUnsubscribeSpotsReq           PayloadType = 2129
	PayloadUnsubscribeSpotsRes           PayloadType = 2130
	PayloadSpotEvent                     PayloadType = 2131
	PayloadOrderErrorEvent               PayloadType = 2132
	PayloadDealListReq                   PayloadType = 2133
	PayloadDealListRes                   PayloadType = 2134
	PayloadGetTrendbarsReq               PayloadType = 2137
	PayloadGetTrendbarsRes               PayloadType = 2138
	PayloadExpectedMarginReq             PayloadType = 2139
	PayloadExpectedMarginRes             PayloadType = 2140
	PayloadMarginChangedEvent            PayloadType = 2141
	PayloadOAErrorRes                    PayloadType = 2142
	PayloadGetTickDataReq                PayloadType = 2145
	PayloadGetTickDataRes                PayloadType = 2146
	PayloadAccountsTokenInvalidatedEvent PayloadType = 2147
	PayloadClientDisconnectEvent         PayloadType = 2148
	PayloadGetAccountsByAccessTokenReq   PayloadType = 2149
	PayloadGetAccountsByAccessTokenRes   PayloadType = 2150
	PayloadAssetClassListReq             PayloadType = 2153
	PayloadAssetClassListRes             PayloadType = 2154
	PayloadSymbolCategoryReq             PayloadType = 2160
	PayloadSymbolCategoryRes             PayloadType = 2161
	PayloadAccountLogoutReq              PayloadType = 2162
	PayloadAccountLogoutRes              PayloadType = 2163
	PayloadAccountDisconnectEvent        PayloadType = 2164
	PayloadOrderDetailsReq               PayloadType = 2181
	PayloadOrderDetailsRes               PayloadType = 2182
	PayloadOrderListByPositionIDReq      PayloadType = 2183
	PayloadOrderListByPositionIDRes      PayloadType = 2184
	PayloadDealOffsetListReq             PayloadType = 2185
	PayloadDealOffsetListRes             PayloadType = 2186
	PayloadGetPositionUnrealizedPnLReq   PayloadType = 2187
	PayloadGetPositionUnrealizedPnLRes   PayloadType = 2188
)

// payloadNames nombres de los valores de enum en el esquema del protocolo.
var payloadNames = map[PayloadType]string{
	PayloadProtoMessage:   "PROTO_MESSAGE",
	PayloadErrorRes:       "ERROR_RES",
	PayloadHeartbeatEvent: "HEARTBEAT_EVENT",

	PayloadApplicationAuthReq:            "PROTO_OA_APPLICATION_AUTH_REQ",
	PayloadApplicationAuthRes:            "PROTO_OA_APPLICATION_AUTH_RES",
	PayloadAccountAuthReq:                "PROTO_OA_ACCOUNT_AUTH_REQ",
	PayloadAccountAuthRes:                "PROTO_OA_ACCOUNT_AUTH_RES",
	PayloadVersionReq:                    "PROTO_OA_VERSION_REQ",
	PayloadVersionRes:                    "PROTO_OA_VERSION_RES",
	PayloadNewOrderReq:                   "PROTO_OA_NEW_ORDER_REQ",
	PayloadTrailingSLChangedEvent:        "PROTO_OA_TRAILING_SL_CHANGED_EVENT",
	PayloadCancelOrderReq:                "PROTO_OA_CANCEL_ORDER_REQ",
	PayloadAmendOrderReq:                 "PROTO_OA_AMEND_ORDER_REQ",
	PayloadAmendPositionSLTPReq:          "PROTO_OA_AMEND_POSITION_SLTP_REQ",
	PayloadClosePositionReq:              "PROTO_OA_CLOSE_POSITION_REQ",
	PayloadAssetListReq:                  "PROTO_OA_ASSET_LIST_REQ",
	PayloadAssetListRes:                  "PROTO_OA_ASSET_LIST_RES",
	PayloadSymbolsListReq:                "PROTO_OA_SYMBOLS_LIST_REQ",
	PayloadSymbolsListRes:                "PROTO_OA_SYMBOLS_LIST_RES",
	PayloadSymbolByIDReq:                 "PROTO_OA_SYMBOL_BY_ID_REQ",
	PayloadSymbolByIDRes:                 "PROTO_OA_SYMBOL_BY_ID_RES",
	PayloadSymbolChangedEvent:            "PROTO_OA_SYMBOL_CHANGED_EVENT",
	PayloadTraderReq:                     "PROTO_OA_TRADER_REQ",
	PayloadTraderRes:                     "PROTO_OA_TRADER_RES",
	PayloadTraderUpdateEvent:             "PROTO_OA_TRADER_UPDATE_EVENT",
	PayloadReconcileReq:                  "PROTO_OA_RECONCILE_REQ",
	PayloadReconcileRes:                  "PROTO_OA_RECONCILE_RES",
	PayloadExecutionEvent:                "PROTO_OA_EXECUTION_EVENT",
	PayloadSubscribeSpotsReq:             "PROTO_OA_SUBSCRIBE_SPOTS_REQ",
	PayloadSubscribeSpotsRes:             "PROTO_OA_SUBSCRIBE_SPOTS_RES",
	PayloadUnsubscribeSpotsReq:           "PROTO_OA_UNSUBSCRIBE_SPOTS_REQ",
	PayloadUnsubscribeSpotsRes:           "PROTO_OA_UNSUBSCRIBE_SPOTS_RES",
	PayloadSpotEvent:                     "PROTO_OA_SPOT_EVENT",
	PayloadOrderErrorEvent:               "PROTO_OA_ORDER_ERROR_EVENT",
	PayloadDealListReq:                   "PROTO_OA_DEAL_LIST_REQ",
	PayloadDealListRes:                   "PROTO_OA_DEAL_LIST_RES",
	PayloadGetTrendbarsReq:               "PROTO_OA_GET_TRENDBARS_REQ",
	PayloadGetTrendbarsRes:               "PROTO_OA_GET_TRENDBARS_RES",
	PayloadExpectedMarginReq:             "PROTO_OA_EXPECTED_MARGIN_REQ",
	PayloadExpectedMarginRes:             "PROTO_OA_EXPECTED_MARGIN_RES",
	PayloadMarginChangedEvent:            "PROTO_OA_MARGIN_CHANGED_EVENT",
	PayloadOAErrorRes:                    "PROTO_OA_ERROR_RES",
	PayloadGetTickDataReq:                "PROTO_OA_GET_TICKDATA_REQ",
	PayloadGetTickDataRes:                "PROTO_OA_GET_TICKDATA_RES",
	PayloadAccountsTokenInvalidatedEvent: "PROTO_OA_ACCOUNTS_TOKEN_INVALIDATED_EVENT",
	PayloadClientDisconnectEvent:         "PROTO_OA_CLIENT_DISCONNECT_EVENT",
	PayloadGetAccountsByAccessTokenReq:   "PROTO_OA_GET_ACCOUNTS_BY_ACCESS_TOKEN_REQ",
	PayloadGetAccountsByAccessTokenRes:   "PROTO_OA_GET_ACCOUNTS_BY_ACCESS_TOKEN_RES",
	PayloadAssetClassListReq:             "PROTO_OA_ASSET_CLASS_LIST_REQ",
	PayloadAssetClassListRes:             "PROTO_OA_ASSET_CLASS_LIST_RES",
	PayloadSymbolCategoryReq:             "PROTO_OA_SYMBOL_CATEGORY_REQ",
	PayloadSymbolCategoryRes:             "PROTO_OA_SYMBOL_CATEGORY_RES",
	PayloadAccountLogoutReq:              "PROTO_OA_ACCOUNT_LOGOUT_REQ",
	PayloadAccountLogoutRes:              "PROTO_OA_ACCOUNT_LOGOUT_RES",
	PayloadAccountDisconnectEvent:        "PROTO_OA_ACCOUNT_DISCONNECT_EVENT",
	PayloadOrderDetailsReq:               "PROTO_OA_ORDER_DETAILS_REQ",
	PayloadOrderDetailsRes:               "PROTO_OA_ORDER_DETAILS_RES",
	PayloadOrderListByPositionIDReq:      "PROTO_OA_ORDER_LIST_BY_POSITION_ID_REQ",
	PayloadOrderListByPositionIDRes:      "PROTO_OA_ORDER_LIST_BY_POSITION_ID_RES",
	PayloadDealOffsetListReq:             "PROTO_OA_DEAL_OFFSET_LIST_REQ",
	PayloadDealOffsetListRes:             "PROTO_OA_DEAL_OFFSET_LIST_RES",
	PayloadGetPositionUnrealizedPnLReq:   "PROTO_OA_GET_POSITION_UNREALIZED_PNL_REQ",
	PayloadGetPositionUnrealizedPnLRes:   "PROTO_OA_GET_POSITION_UNREALIZED_PNL_RES",
}

// String devuelve el nombre del enum, o el número si no está catalogado.
func (p PayloadType) String() string {
	if name, ok := payloadNames[p]; ok {
		return name
	}
	return strconv.FormatUint(uint64(p), 10)
}

// IsCommon indica si el tipo pertenece a ProtoPayloadType y no a Open API.
func (p PayloadType) IsCommon() bool {
	return p < PayloadApplicationAuthReq
}

// IsError indica si el tipo es una respuesta o evento de error.
func (p PayloadType) IsError() bool {
	switch p {
	case PayloadErrorRes, PayloadOAErrorRes, PayloadOrderErrorEvent:
		return true
	}
	return false
}
