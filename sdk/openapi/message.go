package openapi

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Message es un mensaje de Open API ya separado de su envelope.
//
// Payload es nil cuando el tipo no está en el esquema; en ese caso Raw
// conserva los bytes originales.
type Message struct {
	PayloadType PayloadType
	ClientMsgID string
	Payload     *dynamicpb.Message
	Raw         []byte
}

// NewMessage crea un mensaje vacío del tipo indicado.
func NewMessage(pt PayloadType) (*Message, error) {
	md, ok := Descriptor(pt)
	if !ok {
		return nil, fmt.Errorf("payload type %s has no schema", pt)
	}
	return &Message{PayloadType: pt, Payload: dynamicpb.NewMessage(md)}, nil
}

// MustMessage es NewMessage para tipos que se sabe que están en el esquema.
func MustMessage(pt PayloadType) *Message {
	m, err := NewMessage(pt)
	if err != nil {
		panic(err)
	}
	return m
}

// Name devuelve el nombre del mensaje en el esquema o el del tipo de payload.
func (m *Message) Name() string {
	if m.Payload != nil {
		return string(m.Payload.Descriptor().Name())
	}
	return m.PayloadType.String()
}

func (m *Message) field(name string) protoreflect.FieldDescriptor {
	if m.Payload == nil {
		return nil
	}
	return m.Payload.Descriptor().Fields().ByName(protoreflect.Name(name))
}

// Set asigna un campo. Acepta enteros, flotantes, string, bool y slices de
// esos tipos para campos repetidos; los enums se asignan con su número.
// Entra en pánico ante un campo inexistente o un tipo incompatible.
func (m *Message) Set(name string, value any) *Message {
	fd := m.field(name)
	if fd == nil {
		panic(fmt.Sprintf("openapi: %s has no field %q", m.Name(), name))
	}
	if fd.IsList() {
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice {
			panic(fmt.Sprintf("openapi: %s.%s is repeated, got %T", m.Name(), name, value))
		}
		list := m.Payload.Mutable(fd).List()
		for i := 0; i < rv.Len(); i++ {
			list.Append(scalarValue(fd, rv.Index(i).Interface()))
		}
		return m
	}
	m.Payload.Set(fd, scalarValue(fd, value))
	return m
}

// SetMessage asigna un campo de tipo mensaje construido con fill.
func (m *Message) SetMessage(name string, fill func(sub protoreflect.Message)) *Message {
	fd := m.field(name)
	if fd == nil || fd.Message() == nil {
		panic(fmt.Sprintf("openapi: %s has no message field %q", m.Name(), name))
	}
	if fd.IsList() {
		list := m.Payload.Mutable(fd).List()
		elem := list.NewElement()
		fill(elem.Message())
		list.Append(elem)
		return m
	}
	fill(m.Payload.Mutable(fd).Message())
	return m
}

// SetField asigna un campo de un mensaje anidado con las mismas reglas que Set.
func SetField(msg protoreflect.Message, name string, value any) {
	fd := msg.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic(fmt.Sprintf("openapi: %s has no field %q", msg.Descriptor().Name(), name))
	}
	msg.Set(fd, scalarValue(fd, value))
}

// Has indica si el campo está presente.
func (m *Message) Has(name string) bool {
	fd := m.field(name)
	return fd != nil && m.Payload.Has(fd)
}

// GetInt lee un campo entero o enum.
func (m *Message) GetInt(name string) (int64, bool) {
	fd := m.field(name)
	if fd == nil || !m.Payload.Has(fd) || fd.IsList() {
		return 0, false
	}
	return intOf(fd, m.Payload.Get(fd))
}

// GetFloat lee un campo double.
func (m *Message) GetFloat(name string) (float64, bool) {
	fd := m.field(name)
	if fd == nil || !m.Payload.Has(fd) || fd.Kind() != protoreflect.DoubleKind {
		return 0, false
	}
	return m.Payload.Get(fd).Float(), true
}

// GetString lee un campo string.
func (m *Message) GetString(name string) (string, bool) {
	fd := m.field(name)
	if fd == nil || !m.Payload.Has(fd) || fd.Kind() != protoreflect.StringKind {
		return "", false
	}
	return m.Payload.Get(fd).String(), true
}

// GetBool lee un campo bool.
func (m *Message) GetBool(name string) (bool, bool) {
	fd := m.field(name)
	if fd == nil || !m.Payload.Has(fd) || fd.Kind() != protoreflect.BoolKind {
		return false, false
	}
	return m.Payload.Get(fd).Bool(), true
}

// GetInts lee un campo entero repetido.
func (m *Message) GetInts(name string) []int64 {
	fd := m.field(name)
	if fd == nil || !fd.IsList() {
		return nil
	}
	list := m.Payload.Get(fd).List()
	out := make([]int64, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		if v, ok := intOf(fd, list.Get(i)); ok {
			out = append(out, v)
		}
	}
	return out
}

// Len devuelve el número de elementos de un campo repetido.
func (m *Message) Len(name string) int {
	fd := m.field(name)
	if fd == nil || !fd.IsList() {
		return 0
	}
	return m.Payload.Get(fd).List().Len()
}

// AccountID devuelve ctidTraderAccountId si el mensaje lo lleva.
func (m *Message) AccountID() (int64, bool) {
	return m.GetInt("ctidTraderAccountId")
}

// IsError indica si el mensaje es una respuesta o evento de error.
func (m *Message) IsError() bool {
	return m.PayloadType.IsError()
}

// ErrorCode devuelve el código remoto de un mensaje de error.
func (m *Message) ErrorCode() string {
	code, _ := m.GetString("errorCode")
	return code
}

// Description devuelve la descripción remota de un mensaje de error.
func (m *Message) Description() string {
	desc, _ := m.GetString("description")
	return desc
}

func intOf(fd protoreflect.FieldDescriptor, v protoreflect.Value) (int64, bool) {
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return v.Int(), true
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return int64(v.Uint()), true
	case protoreflect.EnumKind:
		return int64(v.Enum()), true
	}
	return 0, false
}

func scalarValue(fd protoreflect.FieldDescriptor, value any) protoreflect.Value {
	rv := reflect.ValueOf(value)
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return protoreflect.ValueOfInt32(int32(toInt64(fd, rv)))
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return protoreflect.ValueOfInt64(toInt64(fd, rv))
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return protoreflect.ValueOfUint32(uint32(toInt64(fd, rv)))
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return protoreflect.ValueOfUint64(uint64(toInt64(fd, rv)))
	case protoreflect.EnumKind:
		return protoreflect.ValueOfEnum(protoreflect.EnumNumber(toInt64(fd, rv)))
	case protoreflect.DoubleKind:
		return protoreflect.ValueOfFloat64(toFloat64(fd, rv))
	case protoreflect.FloatKind:
		return protoreflect.ValueOfFloat32(float32(toFloat64(fd, rv)))
	case protoreflect.StringKind:
		if rv.Kind() == reflect.String {
			return protoreflect.ValueOfString(rv.String())
		}
	case protoreflect.BoolKind:
		if rv.Kind() == reflect.Bool {
			return protoreflect.ValueOfBool(rv.Bool())
		}
	case protoreflect.BytesKind:
		if b, ok := value.([]byte); ok {
			return protoreflect.ValueOfBytes(b)
		}
	}
	panic(fmt.Sprintf("openapi: cannot assign %T to field %s (%s)", value, fd.FullName(), fd.Kind()))
}

func toInt64(fd protoreflect.FieldDescriptor, rv reflect.Value) int64 {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	}
	panic(fmt.Sprintf("openapi: field %s expects an integer, got %s", fd.FullName(), rv.Kind()))
}

func toFloat64(fd protoreflect.FieldDescriptor, rv reflect.Value) float64 {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	}
	panic(fmt.Sprintf("openapi: field %s expects a number, got %s", fd.FullName(), rv.Kind()))
}
