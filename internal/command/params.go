package command

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xKoRx/openapi-proxy/sdk/domain"
)

// ParamType tipo de un parámetro de comando.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeDecimal ParamType = "decimal"
	TypeBoolean ParamType = "boolean"
	TypeEnum    ParamType = "enum"
)

// Param describe un parámetro del contrato de un comando.
type Param struct {
	Name     string
	Type     ParamType
	Required bool
	// Default se aplica a parámetros opcionales ausentes; "" significa sin valor.
	Default string
	// Enum tabla de símbolos para TypeEnum.
	Enum *domain.EnumTable
}

func str(name string) Param { return Param{Name: name, Type: TypeString} }

func integer(name string) Param { return Param{Name: name, Type: TypeInteger, Required: true} }

func dec(name string) Param { return Param{Name: name, Type: TypeDecimal, Required: true} }

func boolean(name, def string) Param { return Param{Name: name, Type: TypeBoolean, Default: def} }

func enum(name string, table *domain.EnumTable) Param {
	return Param{Name: name, Type: TypeEnum, Required: true, Enum: table}
}

func optional(p Param) Param {
	p.Required = false
	return p
}

var (
	truthy = map[string]bool{"true": true, "1": true, "yes": true, "y": true, "on": true, "t": true}
	falsy  = map[string]bool{"false": true, "0": true, "no": true, "n": true, "off": true, "f": true}
)

// ParseBool interpreta un booleano: true/1/yes/y/on/t y false/0/no/n/off/f,
// sin distinguir mayúsculas.
func ParseBool(param, raw string) (bool, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case truthy[token]:
		return true, nil
	case falsy[token]:
		return false, nil
	}
	return false, domain.Validationf("parameter %s: invalid boolean %q", param, raw).WithDetail("param", param)
}

// coerce convierte raw al tipo de p.
func (p Param) coerce(raw string) (any, error) {
	switch p.Type {
	case TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, domain.Validationf("parameter %s: expected integer, got %q", p.Name, raw).
				WithDetail("param", p.Name)
		}
		return n, nil
	case TypeDecimal:
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, domain.Validationf("parameter %s: expected decimal number, got %q", p.Name, raw).
				WithDetail("param", p.Name)
		}
		return d, nil
	case TypeBoolean:
		return ParseBool(p.Name, raw)
	case TypeEnum:
		n, err := p.Enum.Parse(p.Name, raw)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return raw, nil
	}
}

// Values parámetros ya convertidos a su tipo.
type Values struct {
	m map[string]any
}

// Has indica si el parámetro tiene valor, propio o por defecto.
func (v Values) Has(name string) bool {
	_, ok := v.m[name]
	return ok
}

// Int devuelve un parámetro entero; 0 si no tiene valor.
func (v Values) Int(name string) int64 {
	n, _ := v.m[name].(int64)
	return n
}

// OptInt devuelve un entero opcional.
func (v Values) OptInt(name string) *int64 {
	n, ok := v.m[name].(int64)
	if !ok {
		return nil
	}
	return &n
}

// Decimal devuelve un parámetro decimal.
func (v Values) Decimal(name string) (decimal.Decimal, bool) {
	d, ok := v.m[name].(decimal.Decimal)
	return d, ok
}

// Text devuelve un parámetro de texto.
func (v Values) Text(name string) string {
	s, _ := v.m[name].(string)
	return s
}

// Bool devuelve un parámetro booleano.
func (v Values) Bool(name string) bool {
	b, _ := v.m[name].(bool)
	return b
}

// Enum devuelve el número de un parámetro enum.
func (v Values) Enum(name string) int32 {
	n, _ := v.m[name].(int32)
	return n
}

// bind valida y convierte los valores crudos contra el contrato. Un valor
// vacío equivale a ausente.
func bind(params []Param, raw map[string]string) (Values, error) {
	out := Values{m: make(map[string]any, len(params))}
	for _, p := range params {
		value, ok := raw[p.Name]
		if !ok || strings.TrimSpace(value) == "" {
			if p.Required {
				return Values{}, domain.Validationf("missing required parameter %s", p.Name).
					WithDetail("param", p.Name)
			}
			if p.Default == "" {
				continue
			}
			value = p.Default
		}
		v, err := p.coerce(value)
		if err != nil {
			return Values{}, err
		}
		out.m[p.Name] = v
	}
	return out, nil
}
