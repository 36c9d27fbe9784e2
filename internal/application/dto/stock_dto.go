package dto

import "time"

// CreateStockRequest alta de un lote de stock (entrada de mercancía).
// ReceivedAt opcional: si falta se usa el momento del alta.
type CreateStockRequest struct {
	ProductID  string     `json:"product_id"`
	Quantity   int        `json:"quantity"`
	BatchCode  string     `json:"batch_code"`
	ReceivedAt *time.Time `json:"received_at"`
}

// StockResponse lote en respuestas.
type StockResponse struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	BatchCode  string    `json:"batch_code,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// StockListResponse listado paginado de lotes.
type StockListResponse struct {
	Items []StockResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
