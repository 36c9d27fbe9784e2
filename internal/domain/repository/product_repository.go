package repository

import "github.com/tu-usuario/orderflow/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
// Las lecturas ignoran productos con soft delete.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetBySKU(sku string) (*entity.Product, error)
	// Update no modifica el SKU (inmutable) ni el stock.
	Update(product *entity.Product) error
	SoftDelete(id string) error
	List(limit, offset int) ([]*entity.Product, error)
	// HasOrderLines indica si alguna línea de pedido referencia el producto.
	HasOrderLines(productID string) (bool, error)
}
