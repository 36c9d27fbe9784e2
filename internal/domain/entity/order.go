package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado del pedido dentro de la máquina de estados.
type OrderStatus string

// Estados posibles de un pedido. Las únicas transiciones que ejecuta el motor
// son pending→confirmed y pending→cancelled; shipped solo se alcanza por
// procesos externos y cancelled es terminal.
const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusCancelled OrderStatus = "cancelled"
)

// IsValid indica si el valor corresponde a un estado conocido.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusCancelled:
		return true
	}
	return false
}

// Order representa un pedido. TotalAmount siempre lo recalcula el motor a
// partir de las líneas (cantidad × precio snapshot); nunca se confía en el
// valor recibido. Un pedido pending es una reserva de intención: no toca
// stock hasta confirmarse.
type Order struct {
	ID          string
	OrderNumber string // único, legible (ORD-XXXXXXXXXXXXX)
	CustomerID  *string
	Status      OrderStatus
	TotalAmount decimal.Decimal
	OrderedAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// OrderLine una línea del pedido. PriceAtPurchase es el precio del producto
// en el momento de crear la línea y no se modifica jamás: cambios de precio
// posteriores no afectan pedidos existentes. LineNumber es la posición de la
// línea dentro del pedido (1..n) y fija el orden en que el asignador las
// recorre al confirmar.
type OrderLine struct {
	ID              string
	OrderID         string
	ProductID       string
	LineNumber      int // posición 1..n dentro del pedido
	Quantity        int // siempre >= 1
	PriceAtPurchase decimal.Decimal
	CreatedAt       time.Time
}

// Subtotal cantidad × precio snapshot de la línea.
func (l *OrderLine) Subtotal() decimal.Decimal {
	return l.PriceAtPurchase.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderTotal recalcula el total de un pedido desde sus líneas.
func OrderTotal(lines []*OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
