// Package utils provee utilidades comunes del proxy.
//
// # Utilidades Incluidas
//
//   - UUID: identificadores de petición UUIDv7, ordenables por tiempo
//   - Timestamp: latencias en ms y conversión de timestamps Unix en ms
//
// # Uso
//
//	id := utils.GenerateUUIDv7()
//
//	start := time.Now()
//	// ... operación ...
//	latency := utils.ElapsedMs(start, time.Now())
package utils
