package repository

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/orderflow/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para Order y OrderLine.
type OrderRepository interface {
	Create(order *entity.Order) error
	CreateLine(line *entity.OrderLine) error
	GetByID(id string) (*entity.Order, error)
	// GetByIDForUpdate bloquea la fila del pedido (SELECT ... FOR UPDATE)
	// para serializar confirm/cancel/delete sobre el mismo pedido.
	// Solo dentro de una tx.
	GetByIDForUpdate(id string) (*entity.Order, error)
	// GetLines devuelve las líneas ordenadas por posición (line_number).
	GetLines(orderID string) ([]*entity.OrderLine, error)
	UpdateStatusAndTotal(id string, status entity.OrderStatus, total decimal.Decimal) error
	UpdateTotal(id string, total decimal.Decimal) error
	// Delete elimina el pedido; las líneas caen en cascada.
	Delete(id string) error
	List(limit, offset int) ([]*entity.Order, error)
}
