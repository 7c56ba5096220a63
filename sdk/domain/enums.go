package domain

import (
	"strings"
)

// EnumValue es un símbolo de una enumeración del protocolo y su número en el wire.
type EnumValue struct {
	Name   string
	Number int32
}

// EnumTable es la tabla de símbolos de una enumeración del protocolo.
type EnumTable struct {
	// Name nombre del tipo enum en el esquema del protocolo.
	Name   string
	Values []EnumValue
}

// Lookup busca un símbolo sin distinguir mayúsculas.
func (t EnumTable) Lookup(raw string) (EnumValue, bool) {
	needle := strings.TrimSpace(raw)
	for _, v := range t.Values {
		if strings.EqualFold(v.Name, needle) {
			return v, true
		}
	}
	return EnumValue{}, false
}

// Parse resuelve raw a su número. El error de validación nombra el parámetro
// e incluye el conjunto de símbolos válidos.
func (t EnumTable) Parse(param, raw string) (int32, error) {
	v, ok := t.Lookup(raw)
	if !ok {
		return 0, Validationf("parameter %s: invalid value %q, valid values are [%s]",
			param, raw, strings.Join(t.Names(), ", ")).
			WithDetail("param", param).
			WithDetail("valid", t.Names())
	}
	return v.Number, nil
}

// Names devuelve los símbolos en orden de declaración.
func (t EnumTable) Names() []string {
	out := make([]string, 0, len(t.Values))
	for _, v := range t.Values {
		out = append(out, v.Name)
	}
	return out
}

// NameOf devuelve el símbolo de un número, o "" si no existe.
func (t EnumTable) NameOf(n int32) string {
	for _, v := range t.Values {
		if v.Number == n {
			return v.Name
		}
	}
	return ""
}

// OrderType tipo de orden.
type OrderType int32

const (
	OrderTypeMarket             OrderType = 1
	OrderTypeLimit              OrderType = 2
	OrderTypeStop               OrderType = 3
	OrderTypeStopLossTakeProfit OrderType = 4
	OrderTypeMarketRange        OrderType = 5
	OrderTypeStopLimit          OrderType = 6
)

// OrderTypes tabla de símbolos de OrderType.
var OrderTypes = EnumTable{
	Name: "ProtoOAOrderType",
	Values: []EnumValue{
		{"MARKET", 1},
		{"LIMIT", 2},
		{"STOP", 3},
		{"STOP_LOSS_TAKE_PROFIT", 4},
		{"MARKET_RANGE", 5},
		{"STOP_LIMIT", 6},
	},
}

func (o OrderType) String() string { return OrderTypes.NameOf(int32(o)) }

// ParseOrderType interpreta un tipo de orden sin distinguir mayúsculas.
func ParseOrderType(param, raw string) (OrderType, error) {
	n, err := OrderTypes.Parse(param, raw)
	return OrderType(n), err
}

// TradeSide lado de la operación.
type TradeSide int32

const (
	TradeSideBuy  TradeSide = 1
	TradeSideSell TradeSide = 2
)

// TradeSides tabla de símbolos de TradeSide.
var TradeSides = EnumTable{
	Name:   "ProtoOATradeSide",
	Values: []EnumValue{{"BUY", 1}, {"SELL", 2}},
}

func (s TradeSide) String() string { return TradeSides.NameOf(int32(s)) }

// ParseTradeSide interpreta un lado sin distinguir mayúsculas.
func ParseTradeSide(param, raw string) (TradeSide, error) {
	n, err := TradeSides.Parse(param, raw)
	return TradeSide(n), err
}

// QuoteType lado de la cotización para datos de ticks.
type QuoteType int32

const (
	QuoteTypeBid QuoteType = 1
	QuoteTypeAsk QuoteType = 2
)

// QuoteTypes tabla de símbolos de QuoteType.
var QuoteTypes = EnumTable{
	Name:   "ProtoOAQuoteType",
	Values: []EnumValue{{"BID", 1}, {"ASK", 2}},
}

func (q QuoteType) String() string { return QuoteTypes.NameOf(int32(q)) }

// ParseQuoteType interpreta un tipo de cotización sin distinguir mayúsculas.
func ParseQuoteType(param, raw string) (QuoteType, error) {
	n, err := QuoteTypes.Parse(param, raw)
	return QuoteType(n), err
}

// TrendbarPeriod periodo de las barras históricas.
type TrendbarPeriod int32

// TrendbarPeriods tabla de símbolos de TrendbarPeriod.
var TrendbarPeriods = EnumTable{
	Name: "ProtoOATrendbarPeriod",
	Values: []EnumValue{
		{"M1", 1}, {"M2", 2}, {"M3", 3}, {"M4", 4}, {"M5", 5},
		{"M10", 6}, {"M15", 7}, {"M30", 8},
		{"H1", 9}, {"H4", 10}, {"H12", 11},
		{"D1", 12}, {"W1", 13}, {"MN1", 14},
	},
}

func (p TrendbarPeriod) String() string { return TrendbarPeriods.NameOf(int32(p)) }

// ParseTrendbarPeriod interpreta un periodo sin distinguir mayúsculas.
func ParseTrendbarPeriod(param, raw string) (TrendbarPeriod, error) {
	n, err := TrendbarPeriods.Parse(param, raw)
	return TrendbarPeriod(n), err
}
