package openapi

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
)

var jsonOptions = protojson.MarshalOptions{}

// MarshalPayloadJSON renderiza el payload como objeto JSON con los nombres
// lowerCamel del protocolo y los enums por nombre.
func (m *Message) MarshalPayloadJSON() ([]byte, error) {
	if m.Payload == nil {
		return nil, fmt.Errorf("payload type %s has no schema", m.PayloadType)
	}
	return jsonOptions.Marshal(m.Payload)
}
