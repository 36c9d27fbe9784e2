package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/orderflow/internal/domain/entity"
	"github.com/tu-usuario/orderflow/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, order_number, customer_id, status, total_amount, ordered_at, created_at, updated_at, deleted_at`

// Create persiste la cabecera de un pedido.
func (r *OrderRepo) Create(order *entity.Order) error {
	query := `
		INSERT INTO orders (id, order_number, customer_id, status, total_amount, ordered_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		order.ID, order.OrderNumber, order.CustomerID, string(order.Status),
		order.TotalAmount, order.OrderedAt, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// CreateLine persiste una línea del pedido.
func (r *OrderRepo) CreateLine(line *entity.OrderLine) error {
	query := `
		INSERT INTO order_lines (id, order_id, product_id, line_number, quantity, price_at_purchase, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.OrderID, line.ProductID, line.LineNumber, line.Quantity, line.PriceAtPurchase, line.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order line: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera de un pedido por ID.
func (r *OrderRepo) GetByID(id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND deleted_at IS NULL`
	return r.scanOne(query, id)
}

// GetByIDForUpdate igual que GetByID pero bloquea la fila del pedido
// (SELECT ... FOR UPDATE) para serializar confirm/cancel/delete sobre el
// mismo pedido. Solo dentro de una tx.
func (r *OrderRepo) GetByIDForUpdate(id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return r.scanOne(query, id)
}

func (r *OrderRepo) scanOne(query, id string) (*entity.Order, error) {
	var o entity.Order
	var status string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &status, &o.TotalAmount,
		&o.OrderedAt, &o.CreatedAt, &o.UpdatedAt, &o.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Status = entity.OrderStatus(status)
	return &o, nil
}

// GetLines devuelve las líneas del pedido ordenadas por posición. Las líneas
// de un pedido comparten created_at, así que el orden lo garantiza la columna
// line_number y no el timestamp.
func (r *OrderRepo) GetLines(orderID string) ([]*entity.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, line_number, quantity, price_at_purchase, created_at
		FROM order_lines WHERE order_id = $1 ORDER BY line_number`
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()
	var lines []*entity.OrderLine
	for rows.Next() {
		var l entity.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.LineNumber, &l.Quantity, &l.PriceAtPurchase, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

// UpdateStatusAndTotal fija estado y total del pedido.
func (r *OrderRepo) UpdateStatusAndTotal(id string, status entity.OrderStatus, total decimal.Decimal) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE orders SET status = $2, total_amount = $3, updated_at = now() WHERE id = $1`,
		id, string(status), total,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

// UpdateTotal fija solo el total del pedido.
func (r *OrderRepo) UpdateTotal(id string, total decimal.Decimal) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE orders SET total_amount = $2, updated_at = now() WHERE id = $1`,
		id, total,
	)
	if err != nil {
		return fmt.Errorf("update order total: %w", err)
	}
	return nil
}

// Delete elimina el pedido; las líneas caen por la FK en cascada.
func (r *OrderRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// List lista cabeceras de pedidos con paginación, más recientes primero.
func (r *OrderRepo) List(limit, offset int) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE deleted_at IS NULL ORDER BY ordered_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.Order
	for rows.Next() {
		var o entity.Order
		var status string
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &status, &o.TotalAmount,
			&o.OrderedAt, &o.CreatedAt, &o.UpdatedAt, &o.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = entity.OrderStatus(status)
		list = append(list, &o)
	}
	return list, rows.Err()
}
