package command

import (
	"time"

	"github.com/xKoRx/openapi-proxy/internal/correlation"
	"github.com/xKoRx/openapi-proxy/sdk/openapi"
)

// Command comando ya validado. El conjunto de implementaciones es cerrado:
// SetAccount y las peticiones de este paquete.
type Command interface {
	CommandName() string
	RequiresActiveAccount() bool
}

// BuildContext datos de sesión que necesita una petición para construirse.
type BuildContext struct {
	AccountID   int64
	AccessToken string
	Now         time.Time
}

// Request comando que se traduce en un mensaje saliente con respuesta.
type Request interface {
	Command
	Build(bc BuildContext) (*openapi.Message, error)
	Reply(bc BuildContext) correlation.Matcher
}

// SetAccount cambia la cuenta activa. AccountID 0 significa usar la cuenta
// por defecto configurada.
type SetAccount struct {
	AccountID int64
}

func (SetAccount) CommandName() string         { return NameSetAccount }
func (SetAccount) RequiresActiveAccount() bool { return false }

// simpleRequest petición sin parámetros propios.
type simpleRequest struct {
	name    string
	request openapi.PayloadType
	reply   openapi.PayloadType
	account bool
	fill    func(m *openapi.Message, bc BuildContext)
}

func (r simpleRequest) CommandName() string         { return r.name }
func (r simpleRequest) RequiresActiveAccount() bool { return r.account }

func (r simpleRequest) Build(bc BuildContext) (*openapi.Message, error) {
	m, err := openapi.NewMessage(r.request)
	if err != nil {
		return nil, err
	}
	if r.account {
		m.Set("ctidTraderAccountId", bc.AccountID)
	}
	if r.fill != nil {
		r.fill(m, bc)
	}
	return m, nil
}

func (r simpleRequest) Reply(bc BuildContext) correlation.Matcher {
	if !r.account {
		return correlation.ReplyTo(r.reply, 0)
	}
	return correlation.ReplyTo(r.reply, bc.AccountID)
}

// accountRequest base de las peticiones ligadas a la cuenta activa.
type accountRequest struct{}

func (accountRequest) RequiresActiveAccount() bool { return true }

func newAccountMessage(pt openapi.PayloadType, bc BuildContext) (*openapi.Message, error) {
	m, err := openapi.NewMessage(pt)
	if err != nil {
		return nil, err
	}
	return m.Set("ctidTraderAccountId", bc.AccountID), nil
}

// executionReply acepta eventos de ejecución no iniciados por el servidor.
func executionReply(accountID int64) correlation.Matcher {
	base := correlation.ReplyTo(openapi.PayloadExecutionEvent, accountID)
	return func(msg *openapi.Message) bool {
		if !base(msg) {
			return false
		}
		server, _ := msg.GetBool("isServerEvent")
		return !server
	}
}
