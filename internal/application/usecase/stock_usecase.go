package usecase

import (
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/orderflow/internal/application/dto"
	"github.com/tu-usuario/orderflow/internal/domain"
	"github.com/tu-usuario/orderflow/internal/domain/entity"
	"github.com/tu-usuario/orderflow/internal/domain/repository"
)

// StockUseCase entrada de mercancía y consulta de lotes. La entrada (intake)
// es el único camino que incrementa stock; los descuentos son exclusivos del
// asignador del motor de pedidos.
type StockUseCase struct {
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(stockRepo repository.StockRepository, productRepo repository.ProductRepository) *StockUseCase {
	return &StockUseCase{stockRepo: stockRepo, productRepo: productRepo}
}

// Intake da de alta un lote para un producto existente. ReceivedAt define la
// posición del lote en la cola FIFO; si falta se usa el momento del alta.
func (uc *StockUseCase) Intake(in dto.CreateStockRequest) (*dto.StockResponse, error) {
	if in.ProductID == "" || in.Quantity < 0 {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.ProductNotFoundError{ProductID: in.ProductID}
	}
	now := time.Now()
	receivedAt := now
	if in.ReceivedAt != nil {
		receivedAt = *in.ReceivedAt
	}
	stock := &entity.Stock{
		ID:         uuid.New().String(),
		ProductID:  in.ProductID,
		Quantity:   in.Quantity,
		BatchCode:  in.BatchCode,
		ReceivedAt: receivedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.stockRepo.Create(stock); err != nil {
		return nil, err
	}
	return toStockResponse(stock), nil
}

// GetByID obtiene un lote por ID.
func (uc *StockUseCase) GetByID(id string) (*dto.StockResponse, error) {
	stock, err := uc.stockRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, domain.ErrNotFound
	}
	return toStockResponse(stock), nil
}

// List lista lotes con paginación.
func (uc *StockUseCase) List(limit, offset int) (*dto.StockListResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.stockRepo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *toStockResponse(s))
	}
	return &dto.StockListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// ListByProduct lista los lotes de un producto en orden FIFO.
func (uc *StockUseCase) ListByProduct(productID string) ([]dto.StockResponse, error) {
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.ProductNotFoundError{ProductID: productID}
	}
	list, err := uc.stockRepo.ListByProduct(productID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *toStockResponse(s))
	}
	return items, nil
}

// Delete elimina un lote.
func (uc *StockUseCase) Delete(id string) error {
	stock, err := uc.stockRepo.GetByID(id)
	if err != nil {
		return err
	}
	if stock == nil {
		return domain.ErrNotFound
	}
	return uc.stockRepo.Delete(id)
}

func toStockResponse(s *entity.Stock) *dto.StockResponse {
	return &dto.StockResponse{
		ID:         s.ID,
		ProductID:  s.ProductID,
		Quantity:   s.Quantity,
		BatchCode:  s.BatchCode,
		ReceivedAt: s.ReceivedAt,
	}
}
