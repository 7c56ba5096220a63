// Package command contiene el registro de comandos del proxy: contrato de
// parámetros, conversión de tipos y el conjunto cerrado de comandos tipados
// que se traducen en mensajes de Open API.
package command

import (
	"sort"
	"strings"

	"github.com/xKoRx/openapi-proxy/sdk/domain"
)

// Descriptor entrada del registro.
type Descriptor struct {
	Name                  string
	Description           string
	Params                []Param
	RequiresActiveAccount bool

	decode func(v Values) (Command, error)
}

// Registry mapa inmutable nombre → descriptor, poblado al arrancar.
type Registry struct {
	byName map[string]*Descriptor
}

// NewRegistry crea un registro vacío.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register agrega un descriptor. Falla con DuplicateCommand si el nombre existe.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" || d.decode == nil {
		return domain.NewError(domain.KindInternal, "descriptor requires a name and a decoder")
	}
	if _, exists := r.byName[d.Name]; exists {
		return domain.NewError(domain.KindDuplicateCommand, "duplicate command: "+d.Name).
			WithDetail("command", d.Name)
	}
	r.byName[d.Name] = &d
	return nil
}

// Lookup busca un descriptor por nombre exacto.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Descriptors devuelve los descriptores ordenados por nombre.
func (r *Registry) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.byName))
	for _, d := range r.byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Parse valida argumentos posicionales, en el orden del contrato.
func (r *Registry) Parse(name string, args []string) (Command, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, domain.UnknownCommand(name)
	}
	if len(args) > len(d.Params) {
		return nil, domain.Validationf("%s: too many parameters, expected at most %d (%s)",
			name, len(d.Params), d.usage())
	}
	raw := make(map[string]string, len(args))
	for i, arg := range args {
		raw[d.Params[i].Name] = arg
	}
	return d.parse(raw)
}

// ParseNamed valida argumentos por nombre, como llegan de un cuerpo JSON.
func (r *Registry) ParseNamed(name string, args map[string]string) (Command, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, domain.UnknownCommand(name)
	}
	for key := range args {
		if !d.hasParam(key) {
			return nil, domain.Validationf("%s: unknown parameter %s", name, key).WithDetail("param", key)
		}
	}
	return d.parse(args)
}

func (d *Descriptor) parse(raw map[string]string) (Command, error) {
	values, err := bind(d.Params, raw)
	if err != nil {
		return nil, err
	}
	return d.decode(values)
}

func (d *Descriptor) hasParam(name string) bool {
	for _, p := range d.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (d *Descriptor) usage() string {
	parts := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		if p.Required {
			parts = append(parts, p.Name)
		} else {
			parts = append(parts, "["+p.Name+"]")
		}
	}
	return strings.Join(parts, " ")
}

// Usage devuelve la línea de uso del comando.
func (d *Descriptor) Usage() string {
	if len(d.Params) == 0 {
		return d.Name
	}
	return d.Name + " " + d.usage()
}

// ParamContract vista serializable de un parámetro.
type ParamContract struct {
	Name     string    `json:"name"`
	Type     ParamType `json:"type"`
	Required bool      `json:"required"`
	Default  string    `json:"default,omitempty"`
	Values   []string  `json:"values,omitempty"`
}

// Contract vista serializable de un descriptor.
type Contract struct {
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	Usage                 string          `json:"usage"`
	RequiresActiveAccount bool            `json:"requiresActiveAccount"`
	Params                []ParamContract `json:"params"`
}

// Contract describe el comando para clientes y ayuda de la CLI.
func (d *Descriptor) Contract() Contract {
	c := Contract{
		Name:                  d.Name,
		Description:           d.Description,
		Usage:                 d.Usage(),
		RequiresActiveAccount: d.RequiresActiveAccount,
		Params:                make([]ParamContract, 0, len(d.Params)),
	}
	for _, p := range d.Params {
		pc := ParamContract{Name: p.Name, Type: p.Type, Required: p.Required, Default: p.Default}
		if p.Enum != nil {
			pc.Values = p.Enum.Names()
		}
		c.Params = append(c.Params, pc)
	}
	return c
}
