package repository

import "github.com/tu-usuario/orderflow/internal/domain/entity"

// StockRepository define el puerto de persistencia para lotes de stock.
// ListForUpdateByProduct es el único mecanismo de exclusión mutua del motor:
// bloquea exactamente los lotes leídos hasta el commit/rollback de la tx.
type StockRepository interface {
	Create(stock *entity.Stock) error
	GetByID(id string) (*entity.Stock, error)
	List(limit, offset int) ([]*entity.Stock, error)
	// ListByProduct devuelve los lotes de un producto en orden FIFO
	// (received_at ascendente, id como desempate estable).
	ListByProduct(productID string) ([]*entity.Stock, error)
	// ListForUpdateByProduct igual que ListByProduct pero con bloqueo
	// exclusivo de fila (SELECT ... FOR UPDATE). Solo dentro de una tx.
	ListForUpdateByProduct(productID string) ([]*entity.Stock, error)
	UpdateQuantity(id string, quantity int) error
	Delete(id string) error
}
