package orders

import (
	"context"

	"github.com/tu-usuario/orderflow/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de
// pedidos: o todos los efectos del callback se confirman, o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		stockRepo repository.StockRepository,
		customerRepo repository.CustomerRepository,
		orderRepo repository.OrderRepository,
	) error) error
}

// EventPublisher publica eventos del ciclo de vida del pedido. Se invoca
// siempre después del commit, nunca dentro de la transacción; un fallo al
// publicar no revierte el pedido.
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// NoopPublisher descarta los eventos (eventos deshabilitados por config).
type NoopPublisher struct{}

// Publish no hace nada.
func (NoopPublisher) Publish(ctx context.Context, event OrderEvent) error { return nil }
