package orders

import "github.com/tu-usuario/orderflow/internal/domain/repository"

// Allocate descuenta la cantidad requerida de los lotes de un producto en
// orden FIFO (received_at ascendente, id como desempate) y devuelve cuánto
// logró descontar. Debe llamarse siempre dentro de una transacción ya
// abierta: ListForUpdateByProduct bloquea las filas leídas (FOR UPDATE) y el
// bloqueo se sostiene hasta commit/rollback, lo que serializa asignaciones
// concurrentes sobre el mismo producto.
//
// Puede devolver menos que needed si el stock se agota; el llamador decide si
// una asignación parcial es aceptable (en este motor nunca lo es: el déficit
// aborta la confirmación completa y el rollback restaura los lotes tocados).
func Allocate(stockRepo repository.StockRepository, productID string, needed int) (int, error) {
	if needed <= 0 {
		return 0, nil
	}
	batches, err := stockRepo.ListForUpdateByProduct(productID)
	if err != nil {
		return 0, err
	}

	remaining := needed
	for _, batch := range batches {
		if remaining == 0 {
			break
		}
		if batch.Quantity <= 0 {
			// lote agotado: se salta, no es error
			continue
		}
		take := batch.Quantity
		if take > remaining {
			take = remaining
		}
		if err := stockRepo.UpdateQuantity(batch.ID, batch.Quantity-take); err != nil {
			return needed - remaining, err
		}
		remaining -= take
	}
	return needed - remaining, nil
}
