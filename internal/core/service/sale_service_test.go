package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbarbosa/retail-pos/internal/core/domain"
)

// Mock CatalogRepository backed by an in-memory product table. The mutex
// stands in for the store's row-level serialization of the conditional
// update.
type mockCatalog struct {
	mu           sync.Mutex
	products     map[int64]*domain.Product
	getCalls     int
	reserveCalls int
	releaseCalls int
}

func newMockCatalog(products ...domain.Product) *mockCatalog {
	m := &mockCatalog{products: make(map[int64]*domain.Product)}
	for i := range products {
		p := products[i]
		m.products[p.ID] = &p
	}
	return m
}

func (m *mockCatalog) stock(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].StockQuantity
}

func (m *mockCatalog) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockCatalog) ReserveStock(ctx context.Context, id int64, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserveCalls++
	p, ok := m.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.StockQuantity < qty {
		return &domain.InsufficientStockError{ProductID: id, Requested: qty, Remaining: p.StockQuantity}
	}
	p.StockQuantity -= qty
	return nil
}

func (m *mockCatalog) ReleaseStock(ctx context.Context, id int64, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseCalls++
	p, ok := m.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.StockQuantity += qty
	return nil
}

func (m *mockCatalog) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	return 0, errors.New("not implemented")
}

func (m *mockCatalog) SearchProducts(ctx context.Context, term string) ([]domain.Product, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCatalog) UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	return errors.New("not implemented")
}

func (m *mockCatalog) AddStock(ctx context.Context, id int64, qty int) error {
	return errors.New("not implemented")
}

func (m *mockCatalog) DeleteProduct(ctx context.Context, id int64) error {
	return errors.New("not implemented")
}

// Mock SaleRepository recording manual inserts, with failures injectable on
// either strategy.
type mockSales struct {
	mu         sync.Mutex
	routineErr error
	createErr  error
	nextID     int64
	created    []domain.Sale
}

func (m *mockSales) RecordSaleRoutine(ctx context.Context, req domain.SaleRequest) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.routineErr != nil {
		return 0, m.routineErr
	}
	m.nextID++
	return m.nextID, nil
}

func (m *mockSales) CreateSale(ctx context.Context, sale domain.Sale, line domain.SaleLine) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.nextID++
	sale.ID = m.nextID
	m.created = append(m.created, sale)
	return m.nextID, nil
}

func (m *mockSales) ListRecentSales(ctx context.Context, limit int) ([]domain.SaleSummary, error) {
	return nil, nil
}

func (m *mockSales) SalesStatistics(ctx context.Context) ([]domain.ResultSet, error) {
	return nil, nil
}

func (m *mockSales) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type mockCache struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *mockCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func (m *mockCache) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, key)
	return nil
}

func testProduct() domain.Product {
	return domain.Product{
		ID:            7,
		Name:          "Produto 7",
		StockQuantity: 10,
		UnitPrice:     decimal.RequireFromString("50.00"),
	}
}

func testRequest() domain.SaleRequest {
	return domain.SaleRequest{
		RequestID:  uuid.NewString(),
		CustomerID: 3,
		Address:    "Rua A, 100",
		ProductID:  7,
		Quantity:   2,
	}
}

func TestRecordSale_RoutinePath(t *testing.T) {
	catalog := newMockCatalog(testProduct())
	sales := &mockSales{}
	svc := NewSaleService(catalog, sales, nil)

	outcome, err := svc.RecordSale(context.Background(), "funcionario1", testRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), outcome.SaleID)
	assert.True(t, outcome.TotalAmount.Equal(decimal.RequireFromString("100.00")))

	// the routine owns the decrement on this path
	assert.Equal(t, 0, catalog.reserveCalls)
	assert.Empty(t, sales.created)
}

func TestRecordSale_FallbackManualPath(t *testing.T) {
	catalog := newMockCatalog(testProduct())
	sales := &mockSales{routineErr: domain.ErrRoutineUnavailable}
	svc := NewSaleService(catalog, sales, nil)

	outcome, err := svc.RecordSale(context.Background(), "funcionario1", testRequest())
	require.NoError(t, err)
	assert.True(t, outcome.TotalAmount.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, 8, catalog.stock(7))

	require.Len(t, sales.created, 1)
	assert.True(t, sales.created[0].TotalAmount.Equal(outcome.TotalAmount))
	assert.Equal(t, 1, catalog.reserveCalls)
	assert.Equal(t, 0, catalog.releaseCalls)
}

func TestRecordSale_FallbackTransparency(t *testing.T) {
	// Both strategies must agree on the total for the same product/quantity.
	req := testRequest()

	viaRoutine, err := NewSaleService(newMockCatalog(testProduct()), &mockSales{}, nil).
		RecordSale(context.Background(), "funcionario1", req)
	require.NoError(t, err)

	viaManual, err := NewSaleService(newMockCatalog(testProduct()), &mockSales{routineErr: domain.ErrRoutineUnavailable}, nil).
		RecordSale(context.Background(), "funcionario1", req)
	require.NoError(t, err)

	assert.True(t, viaRoutine.TotalAmount.Equal(viaManual.TotalAmount))
}

func TestRecordSale_Denied(t *testing.T) {
	catalog := newMockCatalog(testProduct())
	sales := &mockSales{}
	svc := NewSaleService(catalog, sales, nil)

	_, err := svc.RecordSale(context.Background(), "guest123", testRequest())

	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, domain.RoleGuest, denied.Role)

	// denial happens before any store access
	assert.Equal(t, 0, catalog.getCalls)
	assert.Equal(t, 0, catalog.reserveCalls)
	assert.Empty(t, sales.created)
}

func TestRecordSale_ProductNotFound(t *testing.T) {
	svc := NewSaleService(newMockCatalog(), &mockSales{}, nil)

	req := testRequest()
	req.ProductID = 999
	_, err := svc.RecordSale(context.Background(), "admin", req)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestRecordSale_InsufficientStock(t *testing.T) {
	p := testProduct()
	p.StockQuantity = 1
	catalog := newMockCatalog(p)
	sales := &mockSales{routineErr: domain.ErrRoutineUnavailable}
	svc := NewSaleService(catalog, sales, nil)

	req := testRequest()
	req.Quantity = 5
	_, err := svc.RecordSale(context.Background(), "funcionario1", req)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Remaining)
	assert.Equal(t, 1, catalog.stock(7))
	assert.Empty(t, sales.created)
}

func TestRecordSale_RoutineRejectionIsTerminal(t *testing.T) {
	// A business rejection from the routine must not trigger the fallback.
	catalog := newMockCatalog(testProduct())
	sales := &mockSales{routineErr: &domain.InsufficientStockError{ProductID: 7, Requested: 20, Remaining: 10}}
	svc := NewSaleService(catalog, sales, nil)

	_, err := svc.RecordSale(context.Background(), "funcionario1", testRequest())

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 0, catalog.reserveCalls)
	assert.Equal(t, 10, catalog.stock(7))
}

func TestRecordSale_CompensatesReservationOnInsertFailure(t *testing.T) {
	catalog := newMockCatalog(testProduct())
	sales := &mockSales{
		routineErr: domain.ErrRoutineUnavailable,
		createErr:  errors.New("sale insert failed"),
	}
	svc := NewSaleService(catalog, sales, nil)

	_, err := svc.RecordSale(context.Background(), "funcionario1", testRequest())
	require.Error(t, err)

	// stock restored to its pre-reservation value, nothing recorded
	assert.Equal(t, 10, catalog.stock(7))
	assert.Equal(t, 1, catalog.reserveCalls)
	assert.Equal(t, 1, catalog.releaseCalls)
	assert.Empty(t, sales.created)
}

func TestRecordSale_DuplicateRequest(t *testing.T) {
	catalog := newMockCatalog(testProduct())
	svc := NewSaleService(catalog, &mockSales{}, &mockCache{})

	req := testRequest()
	_, err := svc.RecordSale(context.Background(), "funcionario1", req)
	require.NoError(t, err)

	_, err = svc.RecordSale(context.Background(), "funcionario1", req)
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)
}

func TestRecordSale_RetryAfterFailureIsNotDuplicate(t *testing.T) {
	// A request id consumed by a failed attempt must be usable again:
	// nothing was recorded, so the retry is not a duplicate.
	catalog := newMockCatalog(testProduct())
	sales := &mockSales{
		routineErr: domain.ErrRoutineUnavailable,
		createErr:  errors.New("sale insert failed"),
	}
	svc := NewSaleService(catalog, sales, &mockCache{})

	req := testRequest()
	_, err := svc.RecordSale(context.Background(), "funcionario1", req)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateRequest)

	sales.mu.Lock()
	sales.createErr = nil
	sales.mu.Unlock()

	outcome, err := svc.RecordSale(context.Background(), "funcionario1", req)
	require.NoError(t, err)
	assert.True(t, outcome.TotalAmount.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, 8, catalog.stock(7))
}

func TestRecordSale_InvalidRequest(t *testing.T) {
	svc := NewSaleService(newMockCatalog(testProduct()), &mockSales{}, nil)

	req := testRequest()
	req.Quantity = 0
	_, err := svc.RecordSale(context.Background(), "funcionario1", req)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRecordSale_Concurrent(t *testing.T) {
	initialStock := 20
	totalRequests := 50

	p := testProduct()
	p.StockQuantity = initialStock
	catalog := newMockCatalog(p)
	sales := &mockSales{routineErr: domain.ErrRoutineUnavailable}
	svc := NewSaleService(catalog, sales, nil)

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := testRequest()
			req.Quantity = 1
			if _, err := svc.RecordSale(context.Background(), "funcionario1", req); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(initialStock), successCount.Load())
	assert.Equal(t, 0, catalog.stock(7))
	assert.Len(t, sales.created, initialStock)
}

func TestListRecentSales_Denied(t *testing.T) {
	svc := NewSaleService(newMockCatalog(), &mockSales{}, nil)

	_, err := svc.ListRecentSales(context.Background(), "guest123", 10)

	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, domain.RoleGuest, denied.Role)
}

func TestResolveRole(t *testing.T) {
	svc := NewSaleService(newMockCatalog(), &mockSales{}, nil)
	assert.Equal(t, domain.RoleClerk, svc.ResolveRole("funcionario1"))
	assert.Equal(t, domain.RoleAdministrator, svc.ResolveRole("admin"))
}
