package entity

import "time"

// Customer representa un cliente. El email es opcional pero único cuando
// existe: es la llave de deduplicación del resolver de clientes
// (first-or-create). Un cliente sin email siempre se crea nuevo.
type Customer struct {
	ID        string
	Name      string
	Email     *string // nullable; único cuando no es NULL
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}
