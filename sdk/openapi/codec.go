package openapi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"
)

// MaxFrameSize tamaño máximo aceptado para un frame entrante.
const MaxFrameSize = 8 << 20

// Campos del envelope ProtoMessage.
const (
	envelopePayloadType protowire.Number = 1
	envelopePayload     protowire.Number = 2
	envelopeClientMsgID protowire.Number = 3
)

// ErrFrameTooLarge se devuelve cuando el prefijo de longitud supera MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// Marshal serializa un mensaje dentro del envelope ProtoMessage.
func Marshal(m *Message) ([]byte, error) {
	payload := m.Raw
	if m.Payload != nil {
		var err error
		payload, err = proto.Marshal(m.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", m.Name(), err)
		}
	}

	b := make([]byte, 0, len(payload)+len(m.ClientMsgID)+16)
	b = protowire.AppendTag(b, envelopePayloadType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.PayloadType))
	b = protowire.AppendTag(b, envelopePayload, protowire.BytesType)
	b = protowire.AppendBytes(b, payload)
	if m.ClientMsgID != "" {
		b = protowire.AppendTag(b, envelopeClientMsgID, protowire.BytesType)
		b = protowire.AppendString(b, m.ClientMsgID)
	}
	return b, nil
}

// Unmarshal decodifica un envelope ProtoMessage. Los tipos sin esquema se
// devuelven con Payload nil y los bytes en Raw.
func Unmarshal(b []byte) (*Message, error) {
	m := &Message{}
	var sawType bool
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("envelope tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == envelopePayloadType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("envelope payloadType: %w", protowire.ParseError(n))
			}
			m.PayloadType = PayloadType(v)
			sawType = true
			b = b[n:]
		case num == envelopePayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("envelope payload: %w", protowire.ParseError(n))
			}
			m.Raw = append([]byte(nil), v...)
			b = b[n:]
		case num == envelopeClientMsgID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, fmt.Errorf("envelope clientMsgId: %w", protowire.ParseError(n))
			}
			m.ClientMsgID = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("envelope field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if !sawType {
		return nil, errors.New("envelope without payloadType")
	}

	if md, ok := Descriptor(m.PayloadType); ok {
		payload := dynamicpb.NewMessage(md)
		if err := proto.Unmarshal(m.Raw, payload); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", m.PayloadType, err)
		}
		m.Payload = payload
	}
	return m, nil
}

// WriteFrame escribe body precedido de su longitud en 4 bytes big-endian.
func WriteFrame(w io.Writer, body []byte) error {
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[4:], body)
	_, err := w.Write(buf)
	return err
}

// ReadFrame lee un frame con prefijo de longitud.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
