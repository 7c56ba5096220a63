// Package session modela el estado de autenticación de la conexión con el venue.
//
// Session no hace I/O: el bucle de eventos del proxy la consulta y le
// notifica lo que ocurre en el transporte. No es thread-safe; tiene un único
// dueño.
package session

import (
	"sort"

	"github.com/xKoRx/openapi-proxy/sdk/domain"
)

// Phase fase de la sesión.
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseConnected
	PhaseAppAuthenticated
	PhaseAccountAuthenticating
	PhaseAccountAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "Disconnected"
	case PhaseConnected:
		return "Connected"
	case PhaseAppAuthenticated:
		return "AppAuthenticated"
	case PhaseAccountAuthenticating:
		return "AccountAuthenticating"
	case PhaseAccountAuthenticated:
		return "AccountAuthenticated"
	}
	return "Unknown"
}

// Outcome resultado de pedir un cambio de cuenta.
type Outcome int

const (
	// OutcomeFastPath la cuenta ya estaba autorizada; la sesión quedó activa sin red.
	OutcomeFastPath Outcome = iota + 1
	// OutcomeNeedsAuth hay que enviar la autenticación de cuenta.
	OutcomeNeedsAuth
)

// Snapshot copia inmutable del estado.
type Snapshot struct {
	Phase              string  `json:"phase"`
	ActiveAccountID    int64   `json:"activeAccountId,omitempty"`
	PendingAccountID   int64   `json:"pendingAccountId,omitempty"`
	AuthorizedAccounts []int64 `json:"authorizedAccounts"`
}

// Session máquina de estados de la sesión.
//
// Invariantes:
//   - activeAccount != 0 sólo en PhaseAccountAuthenticated, y está en authorized.
//   - pendingAccount != 0 sólo en PhaseAccountAuthenticating.
//   - authorized sobrevive a las desconexiones.
type Session struct {
	phase          Phase
	activeAccount  int64
	pendingAccount int64
	authorized     map[int64]struct{}
}

// New crea una sesión en PhaseDisconnected.
func New() *Session {
	return &Session{
		phase:      PhaseDisconnected,
		authorized: make(map[int64]struct{}),
	}
}

// Phase fase actual.
func (s *Session) Phase() Phase { return s.phase }

// ActiveAccount cuenta activa, o 0.
func (s *Session) ActiveAccount() int64 { return s.activeAccount }

// PendingAccount cuenta en autenticación, o 0.
func (s *Session) PendingAccount() int64 { return s.pendingAccount }

// IsAuthorized indica si la cuenta fue autorizada alguna vez en este proceso.
func (s *Session) IsAuthorized(id int64) bool {
	_, ok := s.authorized[id]
	return ok
}

// OnConnected el transporte estableció conexión.
func (s *Session) OnConnected() {
	s.phase = PhaseConnected
	s.activeAccount = 0
	s.pendingAccount = 0
}

// OnDisconnected el transporte perdió la conexión. Las cuentas autorizadas se conservan.
func (s *Session) OnDisconnected() {
	s.phase = PhaseDisconnected
	s.activeAccount = 0
	s.pendingAccount = 0
}

// OnAppAuthenticated llegó la respuesta de autenticación de aplicación.
// Devuelve false si la sesión no esperaba esa respuesta.
func (s *Session) OnAppAuthenticated() bool {
	if s.phase != PhaseConnected {
		return false
	}
	s.phase = PhaseAppAuthenticated
	return true
}

// RequestAccount pide activar una cuenta.
//
// Con la cuenta ya autorizada se activa de inmediato (OutcomeFastPath);
// si no, la sesión pasa a PhaseAccountAuthenticating(id) y el llamador debe
// enviar la autenticación (OutcomeNeedsAuth).
func (s *Session) RequestAccount(id int64) (Outcome, error) {
	if id <= 0 {
		return 0, domain.Validationf("parameter accountId: must be a positive integer")
	}

	switch s.phase {
	case PhaseDisconnected:
		return 0, domain.ConnectionLost(nil)
	case PhaseConnected:
		return 0, domain.NotAuthorizedf("application not authenticated yet")
	case PhaseAccountAuthenticating:
		return 0, domain.NotAuthorizedf("account authentication in progress for %d", s.pendingAccount).
			WithDetail("pendingAccountId", s.pendingAccount)
	}

	if s.IsAuthorized(id) {
		s.phase = PhaseAccountAuthenticated
		s.activeAccount = id
		return OutcomeFastPath, nil
	}

	s.phase = PhaseAccountAuthenticating
	s.pendingAccount = id
	s.activeAccount = 0
	return OutcomeNeedsAuth, nil
}

// OnAccountAuthenticated llegó la confirmación de autenticación de cuenta.
// Sólo se acepta para la cuenta pendiente.
func (s *Session) OnAccountAuthenticated(id int64) bool {
	if s.phase != PhaseAccountAuthenticating || s.pendingAccount != id {
		return false
	}
	s.authorized[id] = struct{}{}
	s.phase = PhaseAccountAuthenticated
	s.activeAccount = id
	s.pendingAccount = 0
	return true
}

// OnAccountAuthFailed la autenticación pendiente fue rechazada. Devuelve la
// cuenta que estaba pendiente, o 0 si no había ninguna.
func (s *Session) OnAccountAuthFailed() int64 {
	if s.phase != PhaseAccountAuthenticating {
		return 0
	}
	id := s.pendingAccount
	s.phase = PhaseAppAuthenticated
	s.pendingAccount = 0
	return id
}

// Revoke retira cuentas de authorized (token invalidado o desconexión remota
// de la cuenta). Si la activa estaba entre ellas la sesión vuelve a
// PhaseAppAuthenticated. Devuelve true si la cuenta activa fue revocada.
func (s *Session) Revoke(ids ...int64) bool {
	activeRevoked := false
	for _, id := range ids {
		delete(s.authorized, id)
		if s.phase == PhaseAccountAuthenticated && s.activeAccount == id {
			activeRevoked = true
		}
	}
	if activeRevoked {
		s.phase = PhaseAppAuthenticated
		s.activeAccount = 0
	}
	return activeRevoked
}

// CheckDispatch valida si un comando puede enviarse en la fase actual.
func (s *Session) CheckDispatch(requiresActiveAccount bool) error {
	if s.phase == PhaseDisconnected {
		return domain.ConnectionLost(nil)
	}
	if !requiresActiveAccount {
		return nil
	}
	if s.phase != PhaseAccountAuthenticated {
		return domain.NotAuthorizedf("no active account (session is %s)", s.phase).
			WithDetail("phase", s.phase.String())
	}
	return nil
}

// Snapshot devuelve una copia del estado.
func (s *Session) Snapshot() Snapshot {
	ids := make([]int64, 0, len(s.authorized))
	for id := range s.authorized {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return Snapshot{
		Phase:              s.phase.String(),
		ActiveAccountID:    s.activeAccount,
		PendingAccountID:   s.pendingAccount,
		AuthorizedAccounts: ids,
	}
}
