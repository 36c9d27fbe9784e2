package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. El SKU es único e inmutable;
// el precio vigente se copia a cada línea de pedido al crearla (snapshot).
// El stock no vive aquí: se maneja por lotes en Stock.
type Product struct {
	ID          string
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta vigente, nunca negativo
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time // soft delete
}
