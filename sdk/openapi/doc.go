// Package openapi implementa el transporte hacia el Open API de cTrader.
//
// # Wire
//
// Cada frame es una longitud de 4 bytes big-endian seguida de un
// ProtoMessage serializado: payloadType (1), payload (2) y clientMsgId (3).
// El payload es a su vez un mensaje protobuf cuyo tipo decide payloadType.
//
// # Esquema
//
// Los mensajes se declaran como descriptores en tiempo de ejecución y se
// manejan con dynamicpb, sin código generado:
//
//	req := openapi.MustMessage(openapi.PayloadGetTrendbarsReq).
//	    Set("ctidTraderAccountId", int64(123)).
//	    Set("symbolId", int64(1)).
//	    Set("period", int32(domain.TrendbarPeriod(5)))
//
// # Transporte
//
// Client conecta por TLS, reconecta con backoff exponencial, envía
// heartbeats y entrega los mensajes a un Handler en orden.
package openapi
