package command

import (
	"github.com/shopspring/decimal"
	"github.com/xKoRx/openapi-proxy/internal/correlation"
	"github.com/xKoRx/openapi-proxy/sdk/domain"
	"github.com/xKoRx/openapi-proxy/sdk/openapi"
)

// SymbolsList lista de símbolos de la cuenta.
type SymbolsList struct {
	accountRequest
	IncludeArchived bool
}

func (SymbolsList) CommandName() string { return NameSymbolsList }

func (c SymbolsList) Build(bc BuildContext) (*openapi.Message, error) {
	m, err := newAccountMessage(openapi.PayloadSymbolsListReq, bc)
	if err != nil {
		return nil, err
	}
	return m.Set("includeArchivedSymbols", c.IncludeArchived), nil
}

func (SymbolsList) Reply(bc BuildContext) correlation.Matcher {
	return correlation.ReplyTo(openapi.PayloadSymbolsListRes, bc.AccountID)
}

// Trendbars barras históricas de un símbolo.
type Trendbars struct {
	accountRequest
	FromTimestamp int64
	ToTimestamp   int64
	Period        domain.TrendbarPeriod
	SymbolID      int64
}

func (Trendbars) CommandName() string { return NameTrendbars }

func (c Trendbars) Build(bc BuildContext) (*openapi.Message, error) {
	m, err := newAccountMessage(openapi.PayloadGetTrendbarsReq, bc)
	if err != nil {
		return nil, err
	}
	return m.Set("fromTimestamp", c.FromTimestamp).
		Set("toTimestamp", c.ToTimestamp).
		Set("period", int32(c.Period)).
		Set("symbolId", c.SymbolID), nil
}

// Reply además del tipo exige el mismo símbolo cuando la respuesta lo trae.
func (c Trendbars) Reply(bc BuildContext) correlation.Matcher {
	base := correlation.ReplyTo(openapi.PayloadGetTrendbarsRes, bc.AccountID)
	return func(msg *openapi.Message) bool {
		if !base(msg) {
			return false
		}
		symbol, ok := msg.GetInt("symbolId")
		return !ok || symbol == c.SymbolID
	}
}

// TickData ticks de los últimos Seconds segundos.
type TickData struct {
	accountRequest
	Seconds   int64
	QuoteType domain.QuoteType
	SymbolID  int64
}

func (TickData) CommandName() string { return NameTickData }

func (c TickData) Build(bc BuildContext) (*openapi.Message, error) {
	m, err := newAccountMessage(openapi.PayloadGetTickDataReq, bc)
	if err != nil {
		return nil, err
	}
	to := bc.Now.UnixMilli()
	from := to - c.Seconds*1000
	return m.Set("symbolId", c.SymbolID).
		Set("type", int32(c.QuoteType)).
		Set("fromTimestamp", from).
		Set("toTimestamp", to), nil
}

func (TickData) Reply(bc BuildContext) correlation.Matcher {
	return correlation.ReplyTo(openapi.PayloadGetTickDataRes, bc.AccountID)
}

// NewOrder orden nueva. Volume ya está truncado a unidades enteras.
type NewOrder struct {
	accountRequest
	name               string
	SymbolID           int64
	OrderType          domain.OrderType
	TradeSide          domain.TradeSide
	Volume             int64
	Price              *decimal.Decimal
	Comment            string
	RelativeStopLoss   *int64
	RelativeTakeProfit *int64
}

func (c NewOrder) CommandName() string {
	if c.name == "" {
		return NameNewOrder
	}
	return c.name
}

func (c NewOrder) Build(bc BuildContext) (*openapi.Message, error) {
	m, err := newAccountMessage(openapi.PayloadNewOrderReq, bc)
	if err != nil {
		return nil, err
	}
	m.Set("symbolId", c.SymbolID).
		Set("orderType", int32(c.OrderType)).
		Set("tradeSide", int32(c.TradeSide)).
		Set("volume", c.Volume)
	if c.Comment != "" {
		m.Set("comment", c.Comment)
	}

	switch c.OrderType {
	case domain.OrderTypeLimit:
		m.Set("limitPrice", c.Price.InexactFloat64())
	case domain.OrderTypeStop:
		m.Set("stopPrice", c.Price.InexactFloat64())
	case domain.OrderTypeMarket:
		if c.RelativeStopLoss != nil {
			m.Set("relativeStopLoss", *c.RelativeStopLoss)
		}
		if c.RelativeTakeProfit != nil {
			m.Set("relativeTakeProfit", *c.RelativeTakeProfit)
		}
	}
	return m, nil
}

func (NewOrder) Reply(bc BuildContext) correlation.Matcher {
	return executionReply(bc.AccountID)
}

// validate aplica las reglas cruzadas entre tipo de orden y precio.
func (c NewOrder) validate() error {
	switch c.OrderType {
	case domain.OrderTypeMarket:
		if c.Price != nil {
			return domain.Validationf("parameter price: not accepted for MARKET orders").WithDetail("param", "price")
		}
	case domain.OrderTypeLimit, domain.OrderTypeStop:
		if c.Price == nil {
			return domain.Validationf("parameter price: required for %s orders", c.OrderType).WithDetail("param", "price")
		}
		if !c.Price.IsPositive() {
			return domain.Validationf("parameter price: must be greater than zero").WithDetail("param", "price")
		}
	default:
		return domain.Validationf("parameter orderType: %s orders are not supported, use MARKET, LIMIT or STOP", c.OrderType).
			WithDetail("param", "orderType")
	}
	if c.Volume <= 0 {
		return domain.Validationf("parameter volume: must be greater than zero").WithDetail("param", "volume")
	}
	return nil
}

// ClosePosition cierre total o parcial de una posición.
type ClosePosition struct {
	accountRequest
	PositionID int64
	Volume     int64
}

func (ClosePosition) CommandName() string { return NameClosePosition }

func (c ClosePosition) Build(bc BuildContext) (*openapi.Message, error) {
	m, err := newAccountMessage(openapi.PayloadClosePositionReq, bc)
	if err != nil {
		return nil, err
	}
	return m.Set("positionId", c.PositionID).Set("volume", c.Volume), nil
}

func (ClosePosition) Reply(bc BuildContext) correlation.Matcher {
	return executionReply(bc.AccountID)
}

// CancelOrder cancelación de una orden pendiente.
type CancelOrder struct {
	accountRequest
	OrderID int64
}

func (CancelOrder) CommandName() string { return NameCancelOrder }

func (c CancelOrder) Build(bc BuildContext) (*openapi.Message, error) {
	m, err := newAccountMessage(openapi.PayloadCancelOrderReq, bc)
	if err != nil {
		return nil, err
	}
	return m.Set("orderId", c.OrderID), nil
}

func (CancelOrder) Reply(bc BuildContext) correlation.Matcher {
	return executionReply(bc.AccountID)
}

// DealOffsetList compensaciones de un deal.
type DealOffsetList struct {
	accountRequest
	DealID int64
}

func (DealOffsetList) CommandName() string { return NameDealOffsetList }

func (c DealOffsetList) Build(bc BuildContext) (*openapi.Message, error) {
	m, err := newAccountMessage(openapi.PayloadDealOffsetListReq, bc)
	if err != nil {
		return nil, err
	}
	return m.Set("dealId", c.DealID), nil
}

func (DealOffsetList) Reply(bc BuildContext) correlation.Matcher {
	return correlation.ReplyTo(openapi.PayloadDealOffsetListRes, bc.AccountID)
}

// OrderDetails detalle de una orden.
type OrderDetails struct {
	accountRequest
	OrderID int64
}

func (OrderDetails) CommandName() string { return NameOrderDetails }

func (c OrderDetails) Build(bc BuildContext) (*openapi.Message, error) {
	m, err := newAccountMessage(openapi.PayloadOrderDetailsReq, bc)
	if err != nil {
		return nil, err
	}
	return m.Set("orderId", c.OrderID), nil
}

func (OrderDetails) Reply(bc BuildContext) correlation.Matcher {
	return correlation.ReplyTo(openapi.PayloadOrderDetailsRes, bc.AccountID)
}

// OrderListByPosition órdenes de una posición, opcionalmente acotadas en el tiempo.
type OrderListByPosition struct {
	accountRequest
	PositionID    int64
	FromTimestamp *int64
	ToTimestamp   *int64
}

func (OrderListByPosition) CommandName() string { return NameOrderListByPosition }

func (c OrderListByPosition) Build(bc BuildContext) (*openapi.Message, error) {
	m, err := newAccountMessage(openapi.PayloadOrderListByPositionIDReq, bc)
	if err != nil {
		return nil, err
	}
	m.Set("positionId", c.PositionID)
	if c.FromTimestamp != nil {
		m.Set("fromTimestamp", *c.FromTimestamp)
	}
	if c.ToTimestamp != nil {
		m.Set("toTimestamp", *c.ToTimestamp)
	}
	return m, nil
}

func (OrderListByPosition) Reply(bc BuildContext) correlation.Matcher {
	return correlation.ReplyTo(openapi.PayloadOrderListByPositionIDRes, bc.AccountID)
}

// ExpectedMargin margen esperado para un volumen.
type ExpectedMargin struct {
	accountRequest
	SymbolID int64
	Volume   int64
}

func (ExpectedMargin) CommandName() string { return NameExpectedMargin }

func (c ExpectedMargin) Build(bc BuildContext) (*openapi.Message, error) {
	m, err := newAccountMessage(openapi.PayloadExpectedMarginReq, bc)
	if err != nil {
		return nil, err
	}
	return m.Set("symbolId", c.SymbolID).Set("volume", []int64{c.Volume}), nil
}

func (ExpectedMargin) Reply(bc BuildContext) correlation.Matcher {
	return correlation.ReplyTo(openapi.PayloadExpectedMarginRes, bc.AccountID)
}

// UnsubscribeSpots baja de la suscripción de precios de un símbolo.
type UnsubscribeSpots struct {
	accountRequest
	SymbolID int64
}

func (UnsubscribeSpots) CommandName() string { return NameUnsubscribeSpots }

func (c UnsubscribeSpots) Build(bc BuildContext) (*openapi.Message, error) {
	m, err := newAccountMessage(openapi.PayloadUnsubscribeSpotsReq, bc)
	if err != nil {
		return nil, err
	}
	return m.Set("symbolId", []int64{c.SymbolID}), nil
}

func (UnsubscribeSpots) Reply(bc BuildContext) correlation.Matcher {
	return correlation.ReplyTo(openapi.PayloadUnsubscribeSpotsRes, bc.AccountID)
}

// truncVolume trunca un volumen decimal a unidades enteras.
func truncVolume(d decimal.Decimal) int64 {
	return d.IntPart()
}
