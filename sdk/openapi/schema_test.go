package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
)

func TestSchema_Builds(t *testing.T) {
	require.NotPanics(t, func() { loadSchema() })

	for _, m := range schemaMessages {
		if m.payload == 0 {
			continue
		}
		md, ok := Descriptor(m.payload)
		require.True(t, ok, m.name)
		assert.Equal(t, protoreflect.Name(m.name), md.Name())
	}
}

func TestSchema_FieldNumbers(t *testing.T) {
	md, ok := Descriptor(PayloadNewOrderReq)
	require.True(t, ok)

	fields := md.Fields()
	assert.EqualValues(t, 2, fields.ByName("ctidTraderAccountId").Number())
	assert.EqualValues(t, 7, fields.ByName("limitPrice").Number())
	assert.EqualValues(t, 8, fields.ByName("stopPrice").Number())
	assert.EqualValues(t, 19, fields.ByName("relativeStopLoss").Number())
	assert.Equal(t, protoreflect.EnumKind, fields.ByName("orderType").Kind())
}

func TestSchema_PayloadEnumNames(t *testing.T) {
	md := MessageDescriptorByName("ProtoOAGetTrendbarsRes")
	require.NotNil(t, md)

	enum := md.Fields().ByName("payloadType").Enum()
	require.NotNil(t, enum)
	v := enum.Values().ByNumber(protoreflect.EnumNumber(PayloadGetTrendbarsRes))
	require.NotNil(t, v)
	assert.Equal(t, protoreflect.Name("PROTO_OA_GET_TRENDBARS_RES"), v.Name())
}

func TestPayloadType_String(t *testing.T) {
	assert.Equal(t, "PROTO_OA_SPOT_EVENT", PayloadSpotEvent.String())
	assert.Equal(t, "9999", PayloadType(9999).String())
	assert.True(t, PayloadHeartbeatEvent.IsCommon())
	assert.True(t, PayloadOrderErrorEvent.IsError())
	assert.False(t, PayloadExecutionEvent.IsError())
}
