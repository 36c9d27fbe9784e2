package repository

import "github.com/tu-usuario/orderflow/internal/domain/entity"

// CustomerRepository define el puerto de persistencia para Customer.
// Create retorna domain.ErrDuplicate si el email ya existe (constraint único);
// el resolver de clientes reintenta entonces como lookup.
type CustomerRepository interface {
	Create(customer *entity.Customer) error
	GetByID(id string) (*entity.Customer, error)
	GetByEmail(email string) (*entity.Customer, error)
	List(limit, offset int) ([]*entity.Customer, error)
	Update(customer *entity.Customer) error
	Delete(id string) error
	// HasOrders indica si algún pedido referencia el cliente.
	HasOrders(customerID string) (bool, error)
}
