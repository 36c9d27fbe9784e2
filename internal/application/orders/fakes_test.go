package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/orderflow/internal/domain"
	"github.com/tu-usuario/orderflow/internal/domain/entity"
	"github.com/tu-usuario/orderflow/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles en memoria: repos + TxRunner con semántica real de rollback.
// El runner clona el estado, ejecuta el callback sobre el clon y solo si
// no hay error lo promueve a estado real. Así los tests verifican
// atomicidad de verdad, no solo códigos de error.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	products  map[string]*entity.Product
	stocks    []*entity.Stock
	customers map[string]*entity.Customer
	orders    map[string]*entity.Order
	lines     []*entity.OrderLine
}

func newMemStore() *memStore {
	return &memStore{
		products:  map[string]*entity.Product{},
		customers: map[string]*entity.Customer{},
		orders:    map[string]*entity.Order{},
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for id, p := range s.products {
		cp := *p
		c.products[id] = &cp
	}
	for _, st := range s.stocks {
		cp := *st
		c.stocks = append(c.stocks, &cp)
	}
	for id, cu := range s.customers {
		cp := *cu
		if cu.Email != nil {
			email := *cu.Email
			cp.Email = &email
		}
		c.customers[id] = &cp
	}
	for id, o := range s.orders {
		cp := *o
		if o.CustomerID != nil {
			cid := *o.CustomerID
			cp.CustomerID = &cid
		}
		c.orders[id] = &cp
	}
	for _, l := range s.lines {
		cp := *l
		c.lines = append(c.lines, &cp)
	}
	return c
}

// adopt reemplaza el contenido de s con el de otro store (commit).
func (s *memStore) adopt(other *memStore) {
	s.products = other.products
	s.stocks = other.stocks
	s.customers = other.customers
	s.orders = other.orders
	s.lines = other.lines
}

// totalStock suma las cantidades de todos los lotes de un producto.
func (s *memStore) totalStock(productID string) int {
	total := 0
	for _, st := range s.stocks {
		if st.ProductID == productID {
			total += st.Quantity
		}
	}
	return total
}

func (s *memStore) stockByID(id string) *entity.Stock {
	for _, st := range s.stocks {
		if st.ID == id {
			return st
		}
	}
	return nil
}

// ── ProductRepository ─────────────────────────────────────────────────────────

type memProductRepo struct{ s *memStore }

var _ repository.ProductRepository = (*memProductRepo)(nil)

func (r *memProductRepo) Create(p *entity.Product) error {
	r.s.products[p.ID] = p
	return nil
}

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok || p.DeletedAt != nil {
		return nil, nil
	}
	return p, nil
}

func (r *memProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	for _, p := range r.s.products {
		if p.SKU == sku && p.DeletedAt == nil {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) Update(p *entity.Product) error {
	r.s.products[p.ID] = p
	return nil
}

func (r *memProductRepo) SoftDelete(id string) error {
	if p, ok := r.s.products[id]; ok {
		now := time.Now()
		p.DeletedAt = &now
	}
	return nil
}

func (r *memProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	out := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if p.DeletedAt == nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

func (r *memProductRepo) HasOrderLines(productID string) (bool, error) {
	for _, l := range r.s.lines {
		if l.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

// ── StockRepository ───────────────────────────────────────────────────────────

type memStockRepo struct{ s *memStore }

var _ repository.StockRepository = (*memStockRepo)(nil)

func (r *memStockRepo) Create(st *entity.Stock) error {
	r.s.stocks = append(r.s.stocks, st)
	return nil
}

func (r *memStockRepo) GetByID(id string) (*entity.Stock, error) {
	return r.s.stockByID(id), nil
}

func (r *memStockRepo) List(limit, offset int) ([]*entity.Stock, error) {
	out := append([]*entity.Stock(nil), r.s.stocks...)
	return page(out, limit, offset), nil
}

func (r *memStockRepo) ListByProduct(productID string) ([]*entity.Stock, error) {
	var out []*entity.Stock
	for _, st := range r.s.stocks {
		if st.ProductID == productID {
			out = append(out, st)
		}
	}
	// orden FIFO: received_at ascendente, id como desempate
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ReceivedAt.Before(out[j].ReceivedAt)
	})
	return out, nil
}

func (r *memStockRepo) ListForUpdateByProduct(productID string) ([]*entity.Stock, error) {
	return r.ListByProduct(productID)
}

func (r *memStockRepo) UpdateQuantity(id string, quantity int) error {
	st := r.s.stockByID(id)
	if st == nil {
		return domain.ErrNotFound
	}
	st.Quantity = quantity
	st.UpdatedAt = time.Now()
	return nil
}

func (r *memStockRepo) Delete(id string) error {
	for i, st := range r.s.stocks {
		if st.ID == id {
			r.s.stocks = append(r.s.stocks[:i], r.s.stocks[i+1:]...)
			return nil
		}
	}
	return nil
}

// ── CustomerRepository ────────────────────────────────────────────────────────

type memCustomerRepo struct{ s *memStore }

var _ repository.CustomerRepository = (*memCustomerRepo)(nil)

func (r *memCustomerRepo) Create(c *entity.Customer) error {
	if c.Email != nil {
		for _, existing := range r.s.customers {
			if existing.Email != nil && *existing.Email == *c.Email {
				return domain.ErrDuplicate
			}
		}
	}
	r.s.customers[c.ID] = c
	return nil
}

func (r *memCustomerRepo) GetByID(id string) (*entity.Customer, error) {
	c, ok := r.s.customers[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (r *memCustomerRepo) GetByEmail(email string) (*entity.Customer, error) {
	for _, c := range r.s.customers {
		if c.Email != nil && *c.Email == email {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memCustomerRepo) List(limit, offset int) ([]*entity.Customer, error) {
	out := make([]*entity.Customer, 0, len(r.s.customers))
	for _, c := range r.s.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

func (r *memCustomerRepo) Update(c *entity.Customer) error {
	r.s.customers[c.ID] = c
	return nil
}

func (r *memCustomerRepo) Delete(id string) error {
	delete(r.s.customers, id)
	return nil
}

func (r *memCustomerRepo) HasOrders(customerID string) (bool, error) {
	for _, o := range r.s.orders {
		if o.CustomerID != nil && *o.CustomerID == customerID {
			return true, nil
		}
	}
	return false, nil
}

// ── OrderRepository ───────────────────────────────────────────────────────────

type memOrderRepo struct{ s *memStore }

var _ repository.OrderRepository = (*memOrderRepo)(nil)

func (r *memOrderRepo) Create(o *entity.Order) error {
	r.s.orders[o.ID] = o
	return nil
}

func (r *memOrderRepo) CreateLine(l *entity.OrderLine) error {
	r.s.lines = append(r.s.lines, l)
	return nil
}

func (r *memOrderRepo) GetByID(id string) (*entity.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	return o, nil
}

func (r *memOrderRepo) GetByIDForUpdate(id string) (*entity.Order, error) {
	return r.GetByID(id)
}

func (r *memOrderRepo) GetLines(orderID string) ([]*entity.OrderLine, error) {
	var out []*entity.OrderLine
	for _, l := range r.s.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNumber < out[j].LineNumber })
	return out, nil
}

func (r *memOrderRepo) UpdateStatusAndTotal(id string, status entity.OrderStatus, total decimal.Decimal) error {
	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	o.TotalAmount = total
	o.UpdatedAt = time.Now()
	return nil
}

func (r *memOrderRepo) UpdateTotal(id string, total decimal.Decimal) error {
	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.TotalAmount = total
	o.UpdatedAt = time.Now()
	return nil
}

func (r *memOrderRepo) Delete(id string) error {
	delete(r.s.orders, id)
	kept := r.s.lines[:0]
	for _, l := range r.s.lines {
		if l.OrderID != id {
			kept = append(kept, l)
		}
	}
	r.s.lines = kept
	return nil
}

func (r *memOrderRepo) List(limit, offset int) ([]*entity.Order, error) {
	out := make([]*entity.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderedAt.After(out[j].OrderedAt) })
	return page(out, limit, offset), nil
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

type memTxRunner struct {
	mu    sync.Mutex
	store *memStore
	// customerRepo permite inyectar un doble alternativo atado al store de
	// la tx (p. ej. uno que simule la carrera por el email).
	customerRepo func(*memStore) repository.CustomerRepository
}

var _ TxRunner = (*memTxRunner)(nil)

func (t *memTxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	customerRepo repository.CustomerRepository,
	orderRepo repository.OrderRepository,
) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	work := t.store.clone()
	var customerRepo repository.CustomerRepository = &memCustomerRepo{s: work}
	if t.customerRepo != nil {
		customerRepo = t.customerRepo(work)
	}
	err := fn(
		&memProductRepo{s: work},
		&memStockRepo{s: work},
		customerRepo,
		&memOrderRepo{s: work},
	)
	if err != nil {
		return err // rollback: el clon se descarta
	}
	t.store.adopt(work)
	return nil
}

// ── EventPublisher ────────────────────────────────────────────────────────────

type recordingPublisher struct {
	events []OrderEvent
}

var _ EventPublisher = (*recordingPublisher)(nil)

func (p *recordingPublisher) Publish(ctx context.Context, event OrderEvent) error {
	p.events = append(p.events, event)
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func seedProduct(s *memStore, id, sku, price string) *entity.Product {
	p := &entity.Product{
		ID:        id,
		SKU:       sku,
		Name:      "Producto " + sku,
		Price:     decimal.RequireFromString(price),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.products[id] = p
	return p
}

func seedStock(s *memStore, id, productID string, qty int, receivedAt time.Time) *entity.Stock {
	st := &entity.Stock{
		ID:         id,
		ProductID:  productID,
		Quantity:   qty,
		ReceivedAt: receivedAt,
		CreatedAt:  receivedAt,
		UpdatedAt:  receivedAt,
	}
	s.stocks = append(s.stocks, st)
	return st
}

func strPtr(s string) *string { return &s }
