package semconv

import "go.opentelemetry.io/otel/attribute"

// Proxy contiene atributos semánticos del proxy de Open API.
//
// # Identificadores
//
//   - proxy.request_id: UUIDv7 de la petición, también usado como clientMsgId
//   - proxy.command: nombre del comando del registro
//   - proxy.account_id: ctidTraderAccountId
//   - proxy.payload_type: tipo de payload del mensaje en el wire
//
// # Estado
//
//   - proxy.phase: fase de la sesión
//   - proxy.status: resultado (ok/error/timeout)
//   - proxy.error_kind: clasificación del error
//   - proxy.component: componente que emite
//
// # Uso
//
//	client.Info(ctx, "Command resolved",
//	    semconv.Proxy.RequestID.String(id),
//	    semconv.Proxy.Command.String("ProtoOAReconcileReq"),
//	)
var Proxy = proxyAttributes{
	RequestID:   attribute.Key("proxy.request_id"),
	Command:     attribute.Key("proxy.command"),
	AccountID:   attribute.Key("proxy.account_id"),
	PayloadType: attribute.Key("proxy.payload_type"),
	ClientMsgID: attribute.Key("proxy.client_msg_id"),

	Phase:     attribute.Key("proxy.phase"),
	Status:    attribute.Key("proxy.status"),
	ErrorKind: attribute.Key("proxy.error_kind"),
	Component: attribute.Key("proxy.component"),

	Host:    attribute.Key("proxy.venue_host"),
	Attempt: attribute.Key("proxy.attempt"),
	Pending: attribute.Key("proxy.pending"),
}

type proxyAttributes struct {
	RequestID   attribute.Key
	Command     attribute.Key
	AccountID   attribute.Key
	PayloadType attribute.Key
	ClientMsgID attribute.Key

	Phase     attribute.Key
	Status    attribute.Key
	ErrorKind attribute.Key
	Component attribute.Key

	Host    attribute.Key
	Attempt attribute.Key
	Pending attribute.Key
}
