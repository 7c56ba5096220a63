// Package correlation empareja respuestas del venue con las peticiones que
// las originaron.
//
// La tabla no es thread-safe: pertenece al bucle de eventos del proxy. Las
// Completion que entrega sí pueden esperarse desde cualquier goroutine.
package correlation

import (
	"time"

	"github.com/xKoRx/openapi-proxy/sdk/domain"
	"github.com/xKoRx/openapi-proxy/sdk/openapi"
	"github.com/xKoRx/openapi-proxy/sdk/utils"
)

// Matcher decide si un mensaje entrante es la respuesta esperada.
type Matcher func(msg *openapi.Message) bool

// Pending petición en vuelo.
type Pending struct {
	RequestID string
	Command   string
	AccountID int64
	CreatedAt time.Time
	// Deadline cero significa sin plazo
	Deadline time.Time

	match      Matcher
	completion *Completion
}

// Completion devuelve el resultado futuro de la petición.
func (p *Pending) Completion() *Completion {
	return p.completion
}

// Table tabla de correlación ordenada por inserción.
type Table struct {
	entries  []*Pending
	byID     map[string]*Pending
	now      func() time.Time
	rejected func(p *Pending, err error)
}

// NewTable crea una tabla vacía.
func NewTable() *Table {
	return &Table{
		byID: make(map[string]*Pending),
		now:  time.Now,
	}
}

// OnRejected registra quién recibe las resoluciones rechazadas por
// ErrAlreadyResolved. Sin hook se descartan.
func (t *Table) OnRejected(fn func(p *Pending, err error)) {
	t.rejected = fn
}

func (t *Table) settle(p *Pending, msg *openapi.Message, err error) {
	if rerr := p.completion.resolve(msg, err); rerr != nil && t.rejected != nil {
		t.rejected(p, rerr)
	}
}

// Register añade una petición y devuelve su entrada. El requestId es un
// UUIDv7 y se usa también como clientMsgId en el wire.
func (t *Table) Register(command string, accountID int64, match Matcher, timeout time.Duration) *Pending {
	now := t.now()
	p := &Pending{
		RequestID:  utils.GenerateUUIDv7(),
		Command:    command,
		AccountID:  accountID,
		CreatedAt:  now,
		match:      match,
		completion: newCompletion(),
	}
	if timeout > 0 {
		p.Deadline = now.Add(timeout)
	}
	t.entries = append(t.entries, p)
	t.byID[p.RequestID] = p
	return p
}

// Resolve busca la entrada que corresponde a msg, la retira y la resuelve.
//
// Orden de búsqueda: clientMsgId exacto; si msg es un error, la primera
// entrada de la misma cuenta; si no, la primera entrada cuyo Matcher acepta.
// Un clientMsgId que no está en la tabla es una respuesta tardía (la entrada
// ya venció o falló) y no se empareja por tipo.
// Los mensajes de error resuelven con un ProtocolError. Devuelve la entrada
// resuelta, o false si el mensaje no estaba solicitado.
func (t *Table) Resolve(msg *openapi.Message) (*Pending, bool) {
	p := t.find(msg)
	if p == nil {
		return nil, false
	}
	t.remove(p)

	if msg.IsError() {
		t.settle(p, nil, domain.Protocol(msg.ErrorCode(), msg.Description()))
	} else {
		t.settle(p, msg, nil)
	}
	return p, true
}

func (t *Table) find(msg *openapi.Message) *Pending {
	if msg.ClientMsgID != "" {
		return t.byID[msg.ClientMsgID]
	}

	if msg.IsError() {
		account, hasAccount := msg.AccountID()
		for _, p := range t.entries {
			if !hasAccount || p.AccountID == account {
				return p
			}
		}
		return nil
	}

	for _, p := range t.entries {
		if p.match != nil && p.match(msg) {
			return p
		}
	}
	return nil
}

// Fail resuelve una entrada concreta con err.
func (t *Table) Fail(requestID string, err error) (*Pending, bool) {
	p, ok := t.byID[requestID]
	if !ok {
		return nil, false
	}
	t.remove(p)
	t.settle(p, nil, err)
	return p, true
}

// FailAll resuelve todas las entradas con err y vacía la tabla.
func (t *Table) FailAll(err error) []*Pending {
	failed := t.entries
	t.entries = nil
	t.byID = make(map[string]*Pending)
	for _, p := range failed {
		t.settle(p, nil, err)
	}
	return failed
}

// Expire resuelve con Timeout las entradas cuyo plazo venció en now.
func (t *Table) Expire(now time.Time) []*Pending {
	var expired []*Pending
	for _, p := range t.entries {
		if !p.Deadline.IsZero() && !now.Before(p.Deadline) {
			expired = append(expired, p)
		}
	}
	for _, p := range expired {
		t.remove(p)
		t.settle(p, nil, domain.Timeout())
	}
	return expired
}

// Len número de peticiones en vuelo.
func (t *Table) Len() int {
	return len(t.entries)
}

// Get busca una entrada por requestId.
func (t *Table) Get(requestID string) (*Pending, bool) {
	p, ok := t.byID[requestID]
	return p, ok
}

func (t *Table) remove(p *Pending) {
	delete(t.byID, p.RequestID)
	for i, e := range t.entries {
		if e == p {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// ReplyTo construye el Matcher habitual: tipo de payload esperado y, si el
// mensaje trae cuenta, la misma cuenta.
func ReplyTo(expected openapi.PayloadType, accountID int64) Matcher {
	return func(msg *openapi.Message) bool {
		if msg.PayloadType != expected {
			return false
		}
		if account, ok := msg.AccountID(); ok && accountID != 0 && account != accountID {
			return false
		}
		return true
	}
}
