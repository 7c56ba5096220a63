package utils

import (
	"time"
)

// DurationMs convierte una duración a milisegundos con precisión de µs.
//
// Example:
//
//	utils.DurationMs(1500 * time.Microsecond)
//	// => 1.5
func DurationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// ElapsedMs milisegundos transcurridos entre start y now.
func ElapsedMs(start, now time.Time) float64 {
	return DurationMs(now.Sub(start))
}
