package domain

import (
	"errors"
	"fmt"
)

// ErrorKind clasifica los fallos que el proxy reporta a sus clientes.
type ErrorKind string

const (
	// KindValidation parámetro ausente, con formato inválido o combinación ilegal.
	KindValidation ErrorKind = "ValidationError"

	// KindUnknownCommand nombre de comando fuera del registro.
	KindUnknownCommand ErrorKind = "UnknownCommand"

	// KindNotAuthorized el estado de sesión no permite la operación.
	KindNotAuthorized ErrorKind = "NotAuthorized"

	// KindConnectionLost la conexión con el venue no está disponible o se cayó.
	KindConnectionLost ErrorKind = "ConnectionLost"

	// KindTimeout no llegó respuesta dentro del plazo configurado.
	KindTimeout ErrorKind = "Timeout"

	// KindProtocol el venue respondió con un mensaje de error.
	KindProtocol ErrorKind = "ProtocolError"

	// KindDuplicateCommand registro con nombre repetido.
	KindDuplicateCommand ErrorKind = "DuplicateCommand"

	// KindInternal cualquier otro fallo.
	KindInternal ErrorKind = "Internal"
)

// Error representa un error del proxy con su clasificación y contexto.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implementa la interfaz error.
//
// Sin mensaje se devuelve el nombre de la clasificación, de modo que
// ConnectionLost o Timeout llegan tal cual al cliente HTTP.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Unwrap implementa la interfaz errors.Unwrap.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is permite comparar por clasificación con errors.Is(err, &Error{Kind: ...}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// WithDetail agrega un detalle al error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewError crea un Error de la clasificación indicada.
//
// Example:
//
//	err := domain.NewError(domain.KindNotAuthorized, "no active account")
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError envuelve un error existente con una clasificación.
func WrapError(kind ErrorKind, message string, wrapped error) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: wrapped}
}

// Validationf crea un ValidationError con mensaje formateado.
func Validationf(format string, args ...interface{}) *Error {
	return NewError(KindValidation, fmt.Sprintf(format, args...))
}

// NotAuthorizedf crea un NotAuthorized con mensaje formateado.
func NotAuthorizedf(format string, args ...interface{}) *Error {
	return NewError(KindNotAuthorized, fmt.Sprintf(format, args...))
}

// UnknownCommand crea el error para un nombre fuera del registro.
func UnknownCommand(name string) *Error {
	return NewError(KindUnknownCommand, "Invalid Command: "+name).WithDetail("command", name)
}

// ConnectionLost crea el error de conexión caída. La causa queda accesible
// vía Unwrap pero no forma parte del mensaje.
func ConnectionLost(cause error) *Error {
	return &Error{Kind: KindConnectionLost, Wrapped: cause}
}

// Timeout crea el error de plazo vencido.
func Timeout() *Error {
	return &Error{Kind: KindTimeout}
}

// Protocol crea el error para una respuesta de error del venue. La
// descripción remota se conserva literal; sin ella se usa el código.
func Protocol(code, description string) *Error {
	msg := description
	if msg == "" {
		msg = code
	}
	if msg == "" {
		msg = string(KindProtocol)
	}
	return NewError(KindProtocol, msg).WithDetail("errorCode", code)
}

// KindOf devuelve la clasificación de err, o KindInternal si no es un *Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind indica si err pertenece a la clasificación indicada.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
