package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xKoRx/openapi-proxy/sdk/domain"
)

func authenticatedSession(t *testing.T, id int64) *Session {
	t.Helper()
	s := New()
	s.OnConnected()
	require.True(t, s.OnAppAuthenticated())
	outcome, err := s.RequestAccount(id)
	require.NoError(t, err)
	require.Equal(t, OutcomeNeedsAuth, outcome)
	require.True(t, s.OnAccountAuthenticated(id))
	return s
}

func TestSession_HappyPath(t *testing.T) {
	s := New()
	assert.Equal(t, PhaseDisconnected, s.Phase())

	s.OnConnected()
	assert.Equal(t, PhaseConnected, s.Phase())
	require.True(t, s.OnAppAuthenticated())
	assert.Equal(t, PhaseAppAuthenticated, s.Phase())

	outcome, err := s.RequestAccount(42)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNeedsAuth, outcome)
	assert.Equal(t, PhaseAccountAuthenticating, s.Phase())
	assert.EqualValues(t, 42, s.PendingAccount())
	assert.Zero(t, s.ActiveAccount())

	require.True(t, s.OnAccountAuthenticated(42))
	assert.Equal(t, PhaseAccountAuthenticated, s.Phase())
	assert.EqualValues(t, 42, s.ActiveAccount())
	assert.True(t, s.IsAuthorized(42))
}

func TestSession_FastPathForAuthorizedAccount(t *testing.T) {
	s := authenticatedSession(t, 42)

	outcome, err := s.RequestAccount(7)
	require.NoError(t, err)
	require.Equal(t, OutcomeNeedsAuth, outcome)
	require.True(t, s.OnAccountAuthenticated(7))

	outcome, err = s.RequestAccount(42)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFastPath, outcome)
	assert.Equal(t, PhaseAccountAuthenticated, s.Phase())
	assert.EqualValues(t, 42, s.ActiveAccount())
}

func TestSession_AuthorizedSurvivesReconnect(t *testing.T) {
	s := authenticatedSession(t, 42)

	s.OnDisconnected()
	assert.Equal(t, PhaseDisconnected, s.Phase())
	assert.Zero(t, s.ActiveAccount())
	assert.True(t, s.IsAuthorized(42))

	s.OnConnected()
	require.True(t, s.OnAppAuthenticated())
	outcome, err := s.RequestAccount(42)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFastPath, outcome)
}

func TestSession_AuthFailureReturnsToAppAuthenticated(t *testing.T) {
	s := New()
	s.OnConnected()
	s.OnAppAuthenticated()
	_, err := s.RequestAccount(9)
	require.NoError(t, err)

	assert.EqualValues(t, 9, s.OnAccountAuthFailed())
	assert.Equal(t, PhaseAppAuthenticated, s.Phase())
	assert.False(t, s.IsAuthorized(9))
	assert.Zero(t, s.OnAccountAuthFailed())
}

func TestSession_RequestAccountRejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *Session)
		id    int64
		kind  domain.ErrorKind
	}{
		{"disconnected", func(s *Session) {}, 1, domain.KindConnectionLost},
		{"connected without app auth", func(s *Session) { s.OnConnected() }, 1, domain.KindNotAuthorized},
		{"auth in progress", func(s *Session) {
			s.OnConnected()
			s.OnAppAuthenticated()
			_, _ = s.RequestAccount(5)
		}, 6, domain.KindNotAuthorized},
		{"non positive id", func(s *Session) {}, 0, domain.KindValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New()
			tc.setup(s)
			_, err := s.RequestAccount(tc.id)
			require.Error(t, err)
			assert.Equal(t, tc.kind, domain.KindOf(err))
		})
	}
}

func TestSession_AccountAuthResponseForOtherAccountIgnored(t *testing.T) {
	s := New()
	s.OnConnected()
	s.OnAppAuthenticated()
	_, _ = s.RequestAccount(5)

	assert.False(t, s.OnAccountAuthenticated(6))
	assert.Equal(t, PhaseAccountAuthenticating, s.Phase())
}

func TestSession_CheckDispatch(t *testing.T) {
	s := New()
	assert.Equal(t, domain.KindConnectionLost, domain.KindOf(s.CheckDispatch(true)))
	assert.Equal(t, domain.KindConnectionLost, domain.KindOf(s.CheckDispatch(false)))

	s.OnConnected()
	s.OnAppAuthenticated()
	assert.NoError(t, s.CheckDispatch(false))
	assert.Equal(t, domain.KindNotAuthorized, domain.KindOf(s.CheckDispatch(true)))

	_, _ = s.RequestAccount(3)
	assert.Equal(t, domain.KindNotAuthorized, domain.KindOf(s.CheckDispatch(true)))

	s.OnAccountAuthenticated(3)
	assert.NoError(t, s.CheckDispatch(true))
}

func TestSession_Revoke(t *testing.T) {
	s := authenticatedSession(t, 42)
	_, _ = s.RequestAccount(7)
	s.OnAccountAuthenticated(7)

	assert.False(t, s.Revoke(42))
	assert.Equal(t, PhaseAccountAuthenticated, s.Phase())

	assert.True(t, s.Revoke(7))
	assert.Equal(t, PhaseAppAuthenticated, s.Phase())
	assert.Zero(t, s.ActiveAccount())
	assert.Empty(t, s.Snapshot().AuthorizedAccounts)
}

func TestSession_Snapshot(t *testing.T) {
	s := authenticatedSession(t, 42)
	_, _ = s.RequestAccount(7)

	snap := s.Snapshot()
	assert.Equal(t, "AccountAuthenticating", snap.Phase)
	assert.EqualValues(t, 7, snap.PendingAccountID)
	assert.Equal(t, []int64{42}, snap.AuthorizedAccounts)
}
