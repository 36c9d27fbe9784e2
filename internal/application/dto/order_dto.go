package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerInfo datos parciales del cliente en la creación de un pedido.
// Todos los campos pueden faltar; un email no nulo deduplica contra clientes
// existentes.
type CustomerInfo struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone string  `json:"phone"`
}

// OrderItemRequest una línea solicitada: producto y cantidad (>= 1).
type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest petición para crear un pedido.
type CreateOrderRequest struct {
	Customer CustomerInfo       `json:"customer"`
	Items    []OrderItemRequest `json:"items"`
}

// OrderLineResponse línea del pedido en respuestas, con el snapshot del
// producto en el momento de la compra.
type OrderLineResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ProductSKU      string          `json:"product_sku,omitempty"`
	ProductName     string          `json:"product_name,omitempty"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// OrderCustomerResponse cliente asociado al pedido.
type OrderCustomerResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone string  `json:"phone,omitempty"`
}

// OrderResponse pedido completo: cabecera, cliente y líneas.
type OrderResponse struct {
	ID          string                 `json:"id"`
	OrderNumber string                 `json:"order_number"`
	Status      string                 `json:"status"`
	TotalAmount decimal.Decimal        `json:"total_amount"`
	OrderedAt   time.Time              `json:"ordered_at"`
	Customer    *OrderCustomerResponse `json:"customer,omitempty"`
	Lines       []OrderLineResponse    `json:"lines"`
}

// OrderListResponse listado paginado de pedidos (solo cabeceras).
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
