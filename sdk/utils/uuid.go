package utils

import "github.com/google/uuid"

// GenerateUUIDv7 genera un UUID v7 (ordenable por tiempo).
//
// Los primeros 48 bits son el timestamp Unix en ms, de modo que el orden
// lexicográfico de los ids coincide con el de creación. Si la fuente de
// aleatoriedad falla se recurre a un UUID v4.
//
// Example:
//
//	id := utils.GenerateUUIDv7()
//	// => "0192f7a1-3c4e-7b2a-9d10-5e6f7a8b9c0d"
func GenerateUUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
