package entity

import "time"

// Stock representa un lote de un producto: cantidad restante y fecha de
// recepción. Los lotes de un producto forman una cola FIFO ordenada por
// ReceivedAt ascendente (el más antiguo se consume primero).
// Invariante: Quantity nunca es negativo. Solo el asignador de stock
// descuenta; la entrada de mercancía (intake) es el único camino que suma.
type Stock struct {
	ID         string
	ProductID  string
	Quantity   int
	BatchCode  string // código de lote, opcional
	ReceivedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
