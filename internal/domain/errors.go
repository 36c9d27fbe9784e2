package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas). Los errores con detalle
// (producto, estado actual) envuelven estos centinelas vía Unwrap, de modo
// que los llamadores clasifican con errors.Is y leen el detalle con errors.As.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrProductNotFound   = errors.New("producto no encontrado")
	ErrOutOfStock        = errors.New("stock insuficiente")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
)

// ProductNotFoundError un producto referenciado no existe. Se detecta durante
// la creación del pedido, antes de cualquier mutación.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("producto %s no encontrado", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

// OutOfStockError la cantidad requerida de una línea no puede cubrirse con
// los lotes disponibles. Aborta la confirmación completa del pedido.
type OutOfStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("producto %s sin stock suficiente: se requieren %d y hay %d disponibles",
		e.ProductID, e.Requested, e.Available)
}

func (e *OutOfStockError) Unwrap() error { return ErrOutOfStock }

// InvalidTransitionError la operación no es legal para el estado actual del
// pedido. El mensaje siempre incluye el estado actual.
type InvalidTransitionError struct {
	Op      string // confirm, cancel, delete
	Current string // estado actual del pedido
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("solo pedidos pending permiten %s; estado actual: %s", e.Op, e.Current)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }
