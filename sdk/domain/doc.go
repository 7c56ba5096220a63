// Package domain contiene los tipos compartidos del proxy de Open API.
//
// # Errores
//
// Todo fallo que llega a un cliente es un *Error con una clasificación
// (ErrorKind). La capa HTTP decide el código de estado a partir de KindOf:
//
//	err := domain.Validationf("parameter %s: missing", "volume")
//	domain.KindOf(err) // KindValidation
//
//	// Wrapping
//	err := domain.WrapError(domain.KindInternal, "journal write failed", cause)
//
// # Enumeraciones
//
// Las enumeraciones del protocolo (tipo de orden, lado, tipo de cotización,
// periodo de barras) se declaran como tablas de símbolos. Parse no distingue
// mayúsculas y, si falla, el error enumera los valores válidos:
//
//	side, err := domain.ParseTradeSide("tradeSide", "buy") // TradeSideBuy
package domain
