package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageFallsBackToKind(t *testing.T) {
	err := ConnectionLost(errors.New("read: connection reset"))
	assert.Equal(t, "ConnectionLost", err.Error())
	assert.Equal(t, "Timeout", Timeout().Error())
	assert.EqualError(t, NotAuthorizedf("no active account"), "no active account")
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("broken pipe")
	err := fmt.Errorf("send: %w", ConnectionLost(cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindConnectionLost, KindOf(err))
	assert.True(t, IsKind(err, KindConnectionLost))
	assert.False(t, IsKind(nil, KindConnectionLost))
}

func TestError_IsByKind(t *testing.T) {
	err := Validationf("parameter %s: missing", "volume")
	assert.ErrorIs(t, err, &Error{Kind: KindValidation})
	assert.NotErrorIs(t, err, &Error{Kind: KindTimeout})
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestProtocol_DescriptionVerbatim(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		description string
		want        string
	}{
		{"description", "CH_CLIENT_AUTH_FAILURE", "Cannot route request to ctid", "Cannot route request to ctid"},
		{"code only", "ACCOUNT_NOT_AUTHORIZED", "", "ACCOUNT_NOT_AUTHORIZED"},
		{"empty", "", "", "ProtocolError"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Protocol(tc.code, tc.description)
			require.Equal(t, KindProtocol, err.Kind)
			assert.Equal(t, tc.want, err.Error())
			assert.Equal(t, tc.code, err.Details["errorCode"])
		})
	}
}

func TestUnknownCommand_Message(t *testing.T) {
	err := UnknownCommand("ProtoOAFooReq")
	assert.Equal(t, "Invalid Command: ProtoOAFooReq", err.Error())
	assert.Equal(t, KindUnknownCommand, KindOf(err))
}
