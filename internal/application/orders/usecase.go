package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/orderflow/internal/application/dto"
	"github.com/tu-usuario/orderflow/internal/domain"
	"github.com/tu-usuario/orderflow/internal/domain/entity"
	"github.com/tu-usuario/orderflow/internal/domain/repository"
	"github.com/tu-usuario/orderflow/pkg/logger"
)

// OrderUseCase es el gestor del ciclo de vida del pedido: creación,
// confirmación (descuento FIFO de stock), cancelación y borrado, cada uno
// dentro de una transacción atómica vía TxRunner. Los repos sueltos (pool)
// solo se usan para lecturas al armar respuestas.
type OrderUseCase struct {
	txRunner     TxRunner
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	events       EventPublisher
	log          *logger.Logger
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(
	txRunner TxRunner,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	events EventPublisher,
	log *logger.Logger,
) *OrderUseCase {
	if events == nil {
		events = NoopPublisher{}
	}
	return &OrderUseCase{
		txRunner:     txRunner,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		events:       events,
		log:          log,
	}
}

// CustomerInput datos parciales del cliente al crear un pedido.
type CustomerInput struct {
	Name  string
	Email *string
	Phone string
}

// OrderItemInput producto y cantidad de una línea solicitada.
type OrderItemInput struct {
	ProductID string
	Quantity  int
}

// CreateOrderInput entrada de CreateOrder. ConfirmImmediately activa la
// variante de una sola fase: el stock se descuenta en la misma transacción y
// el pedido nace confirmed, sin pasar por pending.
type CreateOrderInput struct {
	Customer           CustomerInput
	Items              []OrderItemInput
	ConfirmImmediately bool
}

// CreateOrder crea un pedido con sus líneas en una sola transacción.
//
// Todos los productos referenciados deben existir (si alguno falta se
// retorna ProductNotFoundError sin mutación alguna). El cliente se resuelve
// first-or-create por email. Cada línea congela el precio vigente del
// producto (price_at_purchase) y el total se recalcula desde las líneas. En
// la variante de dos fases (por defecto) no se toca stock: un pedido pending
// reserva intención, no inventario.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, in CreateOrderInput) (*dto.OrderResponse, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, item := range in.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			return nil, domain.ErrInvalidInput
		}
	}

	now := time.Now()
	var (
		order    *entity.Order
		customer *entity.Customer
		lines    []*entity.OrderLine
		products map[string]*entity.Product
	)
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		stockRepo repository.StockRepository,
		customerRepo repository.CustomerRepository,
		orderRepo repository.OrderRepository,
	) error {
		// Validar que todos los productos existan antes de crear nada
		products = make(map[string]*entity.Product, len(in.Items))
		for _, item := range in.Items {
			if _, ok := products[item.ProductID]; ok {
				continue
			}
			product, err := productRepo.GetByID(item.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return &domain.ProductNotFoundError{ProductID: item.ProductID}
			}
			products[item.ProductID] = product
		}

		var err error
		customer, err = resolveCustomer(customerRepo, in.Customer)
		if err != nil {
			return err
		}

		order = &entity.Order{
			ID:          uuid.New().String(),
			OrderNumber: newOrderNumber(),
			CustomerID:  &customer.ID,
			Status:      entity.StatusPending,
			TotalAmount: decimal.Zero,
			OrderedAt:   now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := orderRepo.Create(order); err != nil {
			return err
		}

		lines = lines[:0]
		for i, item := range in.Items {
			line := &entity.OrderLine{
				ID:              uuid.New().String(),
				OrderID:         order.ID,
				ProductID:       item.ProductID,
				LineNumber:      i + 1,
				Quantity:        item.Quantity,
				PriceAtPurchase: products[item.ProductID].Price,
				CreatedAt:       now,
			}
			if err := orderRepo.CreateLine(line); err != nil {
				return err
			}
			lines = append(lines, line)
		}

		order.TotalAmount = entity.OrderTotal(lines)
		if in.ConfirmImmediately {
			if err := allocateLines(stockRepo, lines); err != nil {
				return err
			}
			order.Status = entity.StatusConfirmed
			return orderRepo.UpdateStatusAndTotal(order.ID, order.Status, order.TotalAmount)
		}
		return orderRepo.UpdateTotal(order.ID, order.TotalAmount)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Str("status", string(order.Status)).
		Msg("pedido creado")
	eventType := EventOrderCreated
	if order.Status == entity.StatusConfirmed {
		eventType = EventOrderConfirmed
	}
	uc.publish(ctx, eventType, order)

	return toOrderResponse(order, customer, lines, products), nil
}

// ConfirmOrder transiciona pending→confirmed descontando stock FIFO.
//
// Todo ocurre en una transacción: la fila del pedido se bloquea, cada línea
// (en orden de creación) pasa por el asignador, y cualquier déficit aborta
// con OutOfStockError revirtiendo los descuentos parciales de esta y las
// líneas anteriores. El total se recalcula desde los precios snapshot ya
// existentes; las cantidades no cambian.
func (uc *OrderUseCase) ConfirmOrder(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	var (
		order *entity.Order
		lines []*entity.OrderLine
	)
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		stockRepo repository.StockRepository,
		customerRepo repository.CustomerRepository,
		orderRepo repository.OrderRepository,
	) error {
		var err error
		order, err = orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status != entity.StatusPending {
			return &domain.InvalidTransitionError{Op: "confirm", Current: string(order.Status)}
		}
		lines, err = orderRepo.GetLines(orderID)
		if err != nil {
			return err
		}
		if err := allocateLines(stockRepo, lines); err != nil {
			return err
		}
		order.Status = entity.StatusConfirmed
		order.TotalAmount = entity.OrderTotal(lines)
		return orderRepo.UpdateStatusAndTotal(order.ID, order.Status, order.TotalAmount)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Msg("pedido confirmado, stock descontado")
	uc.publish(ctx, EventOrderConfirmed, order)

	return uc.buildResponse(order, lines)
}

// CancelOrder transiciona pending→cancelled. Los pedidos confirmados no se
// cancelan aquí: ya descontaron lotes reales (que pudieron seguir bajando o
// borrarse) y restaurar cantidades "a un lote" sería incorrecto; eso es un
// proceso de devolución aparte. Un pedido pending nunca tocó stock, así que
// cancelar es solo cambiar el estado.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	var (
		order *entity.Order
		lines []*entity.OrderLine
	)
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		stockRepo repository.StockRepository,
		customerRepo repository.CustomerRepository,
		orderRepo repository.OrderRepository,
	) error {
		var err error
		order, err = orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status != entity.StatusPending {
			return &domain.InvalidTransitionError{Op: "cancel", Current: string(order.Status)}
		}
		lines, err = orderRepo.GetLines(orderID)
		if err != nil {
			return err
		}
		order.Status = entity.StatusCancelled
		return orderRepo.UpdateStatusAndTotal(order.ID, order.Status, order.TotalAmount)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Msg("pedido cancelado")
	uc.publish(ctx, EventOrderCancelled, order)

	return uc.buildResponse(order, lines)
}

// DeleteOrder borrado administrativo: solo pedidos pending. Elimina el
// pedido y sus líneas (cascada) sin tocar stock.
func (uc *OrderUseCase) DeleteOrder(ctx context.Context, orderID string) error {
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		stockRepo repository.StockRepository,
		customerRepo repository.CustomerRepository,
		orderRepo repository.OrderRepository,
	) error {
		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status != entity.StatusPending {
			return &domain.InvalidTransitionError{Op: "delete", Current: string(order.Status)}
		}
		return orderRepo.Delete(orderID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("order_id", orderID).Msg("pedido eliminado")
	return nil
}

// GetOrder devuelve el pedido completo (cliente y líneas).
func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	order, err := uc.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	lines, err := uc.orderRepo.GetLines(orderID)
	if err != nil {
		return nil, err
	}
	return uc.buildResponse(order, lines)
}

// ListOrders lista cabeceras de pedidos con paginación.
func (uc *OrderUseCase) ListOrders(ctx context.Context, limit, offset int) (*dto.OrderListResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.orderRepo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		items = append(items, dto.OrderResponse{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Status:      string(o.Status),
			TotalAmount: o.TotalAmount,
			OrderedAt:   o.OrderedAt,
			Lines:       []dto.OrderLineResponse{},
		})
	}
	return &dto.OrderListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// allocateLines ejecuta el asignador para cada línea en orden de creación.
// Cualquier déficit retorna OutOfStockError para que la tx haga rollback.
func allocateLines(stockRepo repository.StockRepository, lines []*entity.OrderLine) error {
	for _, line := range lines {
		allocated, err := Allocate(stockRepo, line.ProductID, line.Quantity)
		if err != nil {
			return err
		}
		if allocated < line.Quantity {
			return &domain.OutOfStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: allocated,
			}
		}
	}
	return nil
}

// newOrderNumber genera un número de pedido único y legible (ORD-XXXXXXXXXXXXX).
func newOrderNumber() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "ORD-" + hex[:13]
}

// publish emite el evento tras el commit; un fallo solo se loguea.
func (uc *OrderUseCase) publish(ctx context.Context, eventType string, order *entity.Order) {
	event := OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		At:          time.Now(),
	}
	if err := uc.events.Publish(ctx, event); err != nil {
		uc.log.Warn().Err(err).Str("order_id", order.ID).Str("event", eventType).Msg("publicar evento de pedido")
	}
}

// buildResponse arma la respuesta completa leyendo cliente y productos con
// los repos del pool (fuera de la tx; son lecturas de filas insert-only).
func (uc *OrderUseCase) buildResponse(order *entity.Order, lines []*entity.OrderLine) (*dto.OrderResponse, error) {
	var customer *entity.Customer
	if order.CustomerID != nil {
		var err error
		customer, err = uc.customerRepo.GetByID(*order.CustomerID)
		if err != nil {
			return nil, err
		}
	}
	products := make(map[string]*entity.Product, len(lines))
	for _, line := range lines {
		if _, ok := products[line.ProductID]; ok {
			continue
		}
		product, err := uc.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		products[line.ProductID] = product
	}
	return toOrderResponse(order, customer, lines, products), nil
}

func toOrderResponse(
	order *entity.Order,
	customer *entity.Customer,
	lines []*entity.OrderLine,
	products map[string]*entity.Product,
) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		OrderedAt:   order.OrderedAt,
		Lines:       make([]dto.OrderLineResponse, 0, len(lines)),
	}
	if customer != nil {
		resp.Customer = &dto.OrderCustomerResponse{
			ID:    customer.ID,
			Name:  customer.Name,
			Email: customer.Email,
			Phone: customer.Phone,
		}
	}
	for _, line := range lines {
		lineResp := dto.OrderLineResponse{
			ID:              line.ID,
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.PriceAtPurchase,
			Subtotal:        line.Subtotal(),
		}
		if product := products[line.ProductID]; product != nil {
			lineResp.ProductSKU = product.SKU
			lineResp.ProductName = product.Name
		}
		resp.Lines = append(resp.Lines, lineResp)
	}
	return resp
}
