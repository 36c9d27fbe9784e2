package orders

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/orderflow/internal/domain"
	"github.com/tu-usuario/orderflow/internal/domain/entity"
	"github.com/tu-usuario/orderflow/internal/domain/repository"
)

// defaultCustomerName nombre por defecto cuando la petición no trae nombre.
const defaultCustomerName = "Customer"

// resolveCustomer busca o crea el cliente (first-or-create por email).
//
// Si hay email y ya existe un cliente con ese email, se devuelve sin tocar:
// es un lookup, no un upsert (nombre/teléfono de la petición se ignoran).
// Sin email, o con email nuevo, se crea un cliente. Dos transacciones
// concurrentes con el mismo email nuevo pueden chocar contra el índice único
// de customers.email; en ese caso el Create retorna ErrDuplicate y se
// reintenta una vez como lookup.
func resolveCustomer(customerRepo repository.CustomerRepository, info CustomerInput) (*entity.Customer, error) {
	if info.Email != nil && *info.Email != "" {
		existing, err := customerRepo.GetByEmail(*info.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	name := info.Name
	if name == "" {
		name = defaultCustomerName
	}
	now := time.Now()
	customer := &entity.Customer{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     normalizeEmail(info.Email),
		Phone:     info.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := customerRepo.Create(customer)
	if err == nil {
		return customer, nil
	}
	if errors.Is(err, domain.ErrDuplicate) && customer.Email != nil {
		// otro proceso ganó la carrera por el email: reintentar como lookup
		existing, lookupErr := customerRepo.GetByEmail(*customer.Email)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing != nil {
			return existing, nil
		}
	}
	return nil, err
}

// normalizeEmail convierte el email vacío en NULL para que el índice único
// parcial no lo cuente: clientes sin email siempre se crean nuevos.
func normalizeEmail(email *string) *string {
	if email == nil || *email == "" {
		return nil
	}
	return email
}
