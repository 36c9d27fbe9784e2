package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/orderflow/internal/domain/entity"
	"github.com/tu-usuario/orderflow/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `id, product_id, quantity, batch_code, received_at, created_at, updated_at`

// Create persiste un nuevo lote.
func (r *StockRepo) Create(stock *entity.Stock) error {
	query := `
		INSERT INTO stocks (id, product_id, quantity, batch_code, received_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		stock.ID, stock.ProductID, stock.Quantity, stock.BatchCode,
		stock.ReceivedAt, stock.CreatedAt, stock.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID.
func (r *StockRepo) GetByID(id string) (*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE id = $1`
	var s entity.Stock
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&s.ID, &s.ProductID, &s.Quantity, &s.BatchCode, &s.ReceivedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// List lista lotes con paginación.
func (r *StockRepo) List(limit, offset int) ([]*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks ORDER BY received_at, id LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	defer rows.Close()
	return scanStocks(rows)
}

// ListByProduct devuelve los lotes de un producto en orden FIFO
// (received_at ascendente, id como desempate estable).
func (r *StockRepo) ListByProduct(productID string) ([]*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE product_id = $1 ORDER BY received_at, id`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("list stocks by product: %w", err)
	}
	defer rows.Close()
	return scanStocks(rows)
}

// ListForUpdateByProduct igual que ListByProduct pero bloqueando cada fila
// leída (SELECT ... FOR UPDATE). El bloqueo dura hasta el commit/rollback de
// la transacción en curso y serializa asignaciones concurrentes sobre el
// producto. Solo debe llamarse dentro de una tx.
func (r *StockRepo) ListForUpdateByProduct(productID string) ([]*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE product_id = $1 ORDER BY received_at, id FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("lock stocks by product: %w", err)
	}
	defer rows.Close()
	return scanStocks(rows)
}

// UpdateQuantity fija la cantidad restante de un lote.
func (r *StockRepo) UpdateQuantity(id string, quantity int) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE stocks SET quantity = $2, updated_at = now() WHERE id = $1`,
		id, quantity,
	)
	if err != nil {
		return fmt.Errorf("update stock quantity: %w", err)
	}
	return nil
}

// Delete elimina un lote por ID.
func (r *StockRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM stocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stock: %w", err)
	}
	return nil
}

func scanStocks(rows pgx.Rows) ([]*entity.Stock, error) {
	var list []*entity.Stock
	for rows.Next() {
		var s entity.Stock
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Quantity, &s.BatchCode, &s.ReceivedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
