package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/orderflow/internal/domain"
	"github.com/tu-usuario/orderflow/internal/domain/entity"
	"github.com/tu-usuario/orderflow/pkg/logger"
)

// newTestEngine arma el caso de uso completo sobre el store en memoria. Los
// repos del pool y los de la tx comparten el mismo store, igual que en
// producción comparten la misma base.
func newTestEngine(store *memStore) (*OrderUseCase, *recordingPublisher) {
	publisher := &recordingPublisher{}
	uc := NewOrderUseCase(
		&memTxRunner{store: store},
		&memOrderRepo{s: store},
		&memProductRepo{s: store},
		&memCustomerRepo{s: store},
		publisher,
		logger.Nop(),
	)
	return uc, publisher
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateOrder (dos fases: el pedido nace pending sin tocar stock)
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateOrder_NacePendingSinTocarStock(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "12.50")
	seedStock(store, "b1", "prod-1", 10, time.Now())
	uc, publisher := newTestEngine(store)

	resp, err := uc.CreateOrder(context.Background(), CreateOrderInput{
		Customer: CustomerInput{Name: "Ana", Email: strPtr("ana@example.com")},
		Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 2}},
	})

	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
	assert.True(t, resp.TotalAmount.Equal(decimal.RequireFromString("25.00")),
		"total = cantidad × precio snapshot, fue %s", resp.TotalAmount)
	assert.Equal(t, 10, store.totalStock("prod-1"), "un pedido pending no descuenta stock")

	assert.True(t, strings.HasPrefix(resp.OrderNumber, "ORD-"))
	assert.Len(t, resp.OrderNumber, len("ORD-")+13)

	require.Len(t, resp.Lines, 1)
	assert.True(t, resp.Lines[0].PriceAtPurchase.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, "SKU-1", resp.Lines[0].ProductSKU)

	require.NotNil(t, resp.Customer)
	assert.Equal(t, "Ana", resp.Customer.Name)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, EventOrderCreated, publisher.events[0].Type)
	assert.Equal(t, resp.ID, publisher.events[0].OrderID)
}

func TestCreateOrder_ReutilizaClientePorEmail(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	uc, _ := newTestEngine(store)
	ctx := context.Background()

	first, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana", Email: strPtr("ana@example.com")},
		Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 1}},
	})
	require.NoError(t, err)

	second, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Nombre Distinto", Email: strPtr("ana@example.com")},
		Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, first.Customer.ID, second.Customer.ID, "mismo email, mismo cliente")
	assert.Equal(t, "Ana", second.Customer.Name, "el segundo pedido no pisa el nombre")
	assert.Len(t, store.customers, 1)
}

func TestCreateOrder_ProductoInexistenteNoDejaRastros(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	uc, publisher := newTestEngine(store)

	_, err := uc.CreateOrder(context.Background(), CreateOrderInput{
		Customer: CustomerInput{Name: "Ana", Email: strPtr("ana@example.com")},
		Items: []OrderItemInput{
			{ProductID: "prod-1", Quantity: 1},
			{ProductID: "prod-fantasma", Quantity: 2},
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	var pnf *domain.ProductNotFoundError
	require.ErrorAs(t, err, &pnf)
	assert.Equal(t, "prod-fantasma", pnf.ProductID)

	assert.Empty(t, store.orders, "rollback: no queda pedido")
	assert.Empty(t, store.lines, "rollback: no quedan líneas")
	assert.Empty(t, store.customers, "rollback: tampoco el cliente")
	assert.Empty(t, publisher.events)
}

func TestCreateOrder_EntradaInvalida(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	uc, _ := newTestEngine(store)
	ctx := context.Background()

	_, err := uc.CreateOrder(ctx, CreateOrderInput{Customer: CustomerInput{Name: "Ana"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin items")

	_, err = uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana"},
		Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 0}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero")

	_, err = uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana"},
		Items:    []OrderItemInput{{ProductID: "", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "producto vacío")
	assert.Empty(t, store.orders)
}

// El total es la suma de cantidad × precio snapshot sobre todas las líneas,
// igual tras crear y tras confirmar.
func TestCreateOrder_TotalMultilinea(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	seedProduct(store, "prod-2", "SKU-2", "5.00")
	now := time.Now()
	seedStock(store, "b1", "prod-1", 10, now)
	seedStock(store, "b2", "prod-2", 10, now)
	uc, _ := newTestEngine(store)
	ctx := context.Background()

	created, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana"},
		Items: []OrderItemInput{
			{ProductID: "prod-1", Quantity: 2},
			{ProductID: "prod-2", Quantity: 1},
		},
	})
	require.NoError(t, err)
	expected := decimal.RequireFromString("25.00")
	assert.True(t, created.TotalAmount.Equal(expected), "tras crear: %s", created.TotalAmount)

	confirmed, err := uc.ConfirmOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, confirmed.TotalAmount.Equal(expected), "tras confirmar: %s", confirmed.TotalAmount)
}

// ──────────────────────────────────────────────────────────────────────────────
// ConfirmOrder
// ──────────────────────────────────────────────────────────────────────────────

func TestConfirmOrder_DescuentaFIFOYConservaUnidades(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "12.50")
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	seedStock(store, "b1", "prod-1", 10, base)
	seedStock(store, "b2", "prod-1", 5, base.Add(24*time.Hour))
	uc, publisher := newTestEngine(store)
	ctx := context.Background()

	created, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana", Email: strPtr("ana@example.com")},
		Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 12}},
	})
	require.NoError(t, err)

	before := store.totalStock("prod-1")
	resp, err := uc.ConfirmOrder(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "confirmed", resp.Status)
	assert.True(t, resp.TotalAmount.Equal(decimal.RequireFromString("150.00")),
		"total recalculado desde snapshots, fue %s", resp.TotalAmount)

	// conservación: lo descontado es exactamente lo pedido
	assert.Equal(t, 12, before-store.totalStock("prod-1"))
	assert.Equal(t, 0, store.stockByID("b1").Quantity, "el lote más antiguo primero")
	assert.Equal(t, 3, store.stockByID("b2").Quantity)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, EventOrderConfirmed, publisher.events[1].Type)
}

// El precio vigente puede cambiar entre crear y confirmar; el total del
// pedido sale de los snapshots y no se mueve.
func TestConfirmOrder_CambioDePrecioNoAfectaSnapshot(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	seedStock(store, "b1", "prod-1", 10, time.Now())
	uc, _ := newTestEngine(store)
	ctx := context.Background()

	created, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana"},
		Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 2}},
	})
	require.NoError(t, err)

	store.products["prod-1"].Price = decimal.RequireFromString("99.99")

	resp, err := uc.ConfirmOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, resp.TotalAmount.Equal(decimal.RequireFromString("20.00")),
		"el total usa el precio congelado, fue %s", resp.TotalAmount)
}

// Déficit en cualquier línea aborta la confirmación completa: los descuentos
// de líneas anteriores se revierten y el pedido sigue pending.
func TestConfirmOrder_DeficitRevierteTodo(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	seedProduct(store, "prod-2", "SKU-2", "5.00")
	now := time.Now()
	seedStock(store, "b1", "prod-1", 10, now)
	seedStock(store, "b2", "prod-2", 1, now)
	uc, publisher := newTestEngine(store)
	ctx := context.Background()

	created, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana"},
		Items: []OrderItemInput{
			{ProductID: "prod-1", Quantity: 4}, // esta línea sí alcanza
			{ProductID: "prod-2", Quantity: 3}, // esta no
		},
	})
	require.NoError(t, err)
	eventsBefore := len(publisher.events)

	_, err = uc.ConfirmOrder(ctx, created.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	var oos *domain.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "prod-2", oos.ProductID)
	assert.Equal(t, 3, oos.Requested)
	assert.Equal(t, 1, oos.Available)

	assert.Equal(t, 10, store.totalStock("prod-1"), "el descuento parcial de la primera línea se revierte")
	assert.Equal(t, 1, store.totalStock("prod-2"))
	assert.Equal(t, entity.StatusPending, store.orders[created.ID].Status, "el pedido sigue pending")
	assert.Len(t, publisher.events, eventsBefore, "sin commit no hay evento")
}

func TestConfirmOrder_DeficitNombraLaPrimeraLinea(t *testing.T) {
	// Las líneas de un pedido comparten created_at, así que el orden de
	// asignación no puede depender del timestamp ni del orden físico de
	// almacenamiento: lo fija line_number. Con las dos líneas sin stock,
	// el error debe nombrar siempre al producto de la primera línea.
	store := newMemStore()
	seedProduct(store, "prod-a", "SKU-A", "10.00")
	seedProduct(store, "prod-b", "SKU-B", "5.00")
	uc, _ := newTestEngine(store)
	ctx := context.Background()

	created, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana"},
		Items: []OrderItemInput{
			{ProductID: "prod-a", Quantity: 1},
			{ProductID: "prod-b", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, store.lines, 2)

	// Invierte el orden físico de las líneas almacenadas.
	store.lines[0], store.lines[1] = store.lines[1], store.lines[0]

	_, err = uc.ConfirmOrder(ctx, created.ID)

	require.Error(t, err)
	var oos *domain.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "prod-a", oos.ProductID, "la asignación recorre las líneas por posición, no por orden de almacenamiento")
}

func TestConfirmOrder_DobleConfirmacionDescuentaUnaVez(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	seedStock(store, "b1", "prod-1", 10, time.Now())
	uc, _ := newTestEngine(store)
	ctx := context.Background()

	created, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana"},
		Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 4}},
	})
	require.NoError(t, err)

	_, err = uc.ConfirmOrder(ctx, created.ID)
	require.NoError(t, err)

	_, err = uc.ConfirmOrder(ctx, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	var tr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &tr)
	assert.Equal(t, "confirm", tr.Op)
	assert.Equal(t, "confirmed", tr.Current)
	assert.Contains(t, err.Error(), "confirmed", "el mensaje incluye el estado actual")

	assert.Equal(t, 6, store.totalStock("prod-1"), "el stock se descontó exactamente una vez")
}

func TestConfirmOrder_PedidoInexistente(t *testing.T) {
	store := newMemStore()
	uc, _ := newTestEngine(store)

	_, err := uc.ConfirmOrder(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Variante de una sola fase (confirmación inmediata)
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateOrder_ConfirmacionInmediata(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "12.50")
	seedStock(store, "b1", "prod-1", 10, time.Now())
	uc, publisher := newTestEngine(store)

	resp, err := uc.CreateOrder(context.Background(), CreateOrderInput{
		Customer:           CustomerInput{Name: "Ana", Email: strPtr("ana@example.com")},
		Items:              []OrderItemInput{{ProductID: "prod-1", Quantity: 2}},
		ConfirmImmediately: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status, "el pedido nace confirmed sin pasar por pending")
	assert.Equal(t, 8, store.totalStock("prod-1"), "el stock se descuenta en la misma transacción")
	require.Len(t, publisher.events, 1)
	assert.Equal(t, EventOrderConfirmed, publisher.events[0].Type)
}

// En una sola fase el déficit aborta la operación completa: ni pedido, ni
// líneas, ni cliente.
func TestCreateOrder_ConfirmacionInmediataSinStockNoPersisteNada(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "12.50")
	seedStock(store, "b1", "prod-1", 1, time.Now())
	uc, publisher := newTestEngine(store)

	_, err := uc.CreateOrder(context.Background(), CreateOrderInput{
		Customer:           CustomerInput{Name: "Ana", Email: strPtr("ana@example.com")},
		Items:              []OrderItemInput{{ProductID: "prod-1", Quantity: 5}},
		ConfirmImmediately: true,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Empty(t, store.orders)
	assert.Empty(t, store.lines)
	assert.Empty(t, store.customers)
	assert.Equal(t, 1, store.totalStock("prod-1"))
	assert.Empty(t, publisher.events)
}

// ──────────────────────────────────────────────────────────────────────────────
// CancelOrder / DeleteOrder
// ──────────────────────────────────────────────────────────────────────────────

func TestCancelOrder_SoloPending(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	seedStock(store, "b1", "prod-1", 10, time.Now())
	uc, publisher := newTestEngine(store)
	ctx := context.Background()

	created, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana"},
		Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 2}},
	})
	require.NoError(t, err)

	resp, err := uc.CancelOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	assert.Equal(t, 10, store.totalStock("prod-1"), "cancelar un pending no toca stock")
	assert.Equal(t, EventOrderCancelled, publisher.events[len(publisher.events)-1].Type)

	// cancelled es terminal
	_, err = uc.CancelOrder(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancelOrder_ConfirmadoNoSeCancela(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	seedStock(store, "b1", "prod-1", 10, time.Now())
	uc, _ := newTestEngine(store)
	ctx := context.Background()

	created, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana"},
		Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = uc.ConfirmOrder(ctx, created.ID)
	require.NoError(t, err)

	_, err = uc.CancelOrder(ctx, created.ID)
	require.Error(t, err)
	var tr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &tr)
	assert.Equal(t, "cancel", tr.Op)
	assert.Equal(t, 8, store.totalStock("prod-1"), "el stock descontado no se restaura")
}

func TestDeleteOrder_PendingEliminaConLineas(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	uc, _ := newTestEngine(store)
	ctx := context.Background()

	created, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana"},
		Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteOrder(ctx, created.ID))
	assert.Empty(t, store.orders)
	assert.Empty(t, store.lines, "las líneas caen con el pedido")

	err = uc.DeleteOrder(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteOrder_ConfirmadoNoSeBorra(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	seedStock(store, "b1", "prod-1", 10, time.Now())
	uc, _ := newTestEngine(store)
	ctx := context.Background()

	created, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana"},
		Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = uc.ConfirmOrder(ctx, created.ID)
	require.NoError(t, err)

	err = uc.DeleteOrder(ctx, created.ID)
	require.Error(t, err)
	var tr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &tr)
	assert.Equal(t, "delete", tr.Op)
	assert.Len(t, store.orders, 1, "el pedido confirmado permanece")
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas
// ──────────────────────────────────────────────────────────────────────────────

func TestGetOrder_CompletoYNoEncontrado(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	uc, _ := newTestEngine(store)
	ctx := context.Background()

	created, err := uc.CreateOrder(ctx, CreateOrderInput{
		Customer: CustomerInput{Name: "Ana", Email: strPtr("ana@example.com")},
		Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 2}},
	})
	require.NoError(t, err)

	got, err := uc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.OrderNumber, got.OrderNumber)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "Ana", got.Customer.Name)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "SKU-1", got.Lines[0].ProductSKU)

	_, err = uc.GetOrder(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListOrders_PaginacionPorDefecto(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "prod-1", "SKU-1", "10.00")
	uc, _ := newTestEngine(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := uc.CreateOrder(ctx, CreateOrderInput{
			Customer: CustomerInput{Name: "Ana", Email: strPtr("ana@example.com")},
			Items:    []OrderItemInput{{ProductID: "prod-1", Quantity: 1}},
		})
		require.NoError(t, err)
	}

	list, err := uc.ListOrders(ctx, 0, -5)
	require.NoError(t, err)
	assert.Len(t, list.Items, 3)
	assert.Equal(t, 20, list.Page.Limit, "límite por defecto")
	assert.Equal(t, 0, list.Page.Offset)

	list, err = uc.ListOrders(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
}
