package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vbarbosa/retail-pos/internal/core/auth"
	"github.com/vbarbosa/retail-pos/internal/core/domain"
	"github.com/vbarbosa/retail-pos/internal/port"
)

var saleRoles = []domain.Role{domain.RoleClerk}

// SaleService coordinates one sale attempt end to end: authorization,
// pricing, the server-side routine path, and the manual transactional
// fallback with stock compensation. Every attempt either records the sale
// header, its line and the stock decrement together, or leaves the store
// untouched.
type SaleService struct {
	catalog port.CatalogRepository
	sales   port.SaleRepository
	cache   port.CacheRepository // optional duplicate-submission guard
}

func NewSaleService(catalog port.CatalogRepository, sales port.SaleRepository, cache port.CacheRepository) *SaleService {
	return &SaleService{
		catalog: catalog,
		sales:   sales,
		cache:   cache,
	}
}

// ResolveRole exposes role derivation for menu routing.
func (s *SaleService) ResolveRole(identity string) domain.Role {
	return auth.ResolveRole(identity)
}

// RecordSale runs the sale state machine for the acting identity.
//
// The routine path is tried first: RecordSale performs the conditional stock
// decrement itself, so that decrement is the reservation. Only when the
// routine is unavailable does the coordinator take an explicit reservation
// and record the sale manually; a failure after that reservation rolls the
// inserts back and restores the stock.
func (s *SaleService) RecordSale(ctx context.Context, identity string, req domain.SaleRequest) (*domain.SaleOutcome, error) {
	if err := validateSaleRequest(req); err != nil {
		return nil, err
	}
	if !auth.Authorize(identity, saleRoles...) {
		return nil, &domain.AccessDeniedError{Identity: identity, Role: auth.ResolveRole(identity)}
	}

	var guardKey string
	if s.cache != nil && req.RequestID != "" {
		guardKey = fmt.Sprintf("sale:%s:%s", identity, req.RequestID)
		ok, err := s.cache.SetIdempotency(ctx, guardKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}
	}

	outcome, err := s.record(ctx, req)
	if err != nil && guardKey != "" {
		// A terminal failure recorded nothing, so retrying the same request
		// id is legitimate. The release is best effort; the guard is advisory
		// and the key expires on its own.
		_ = s.cache.ReleaseIdempotency(ctx, guardKey)
	}
	return outcome, err
}

// record runs the priced attempt: routine first, manual fallback second.
func (s *SaleService) record(ctx context.Context, req domain.SaleRequest) (*domain.SaleOutcome, error) {
	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	total := product.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))

	saleID, err := s.sales.RecordSaleRoutine(ctx, req)
	if err == nil {
		return &domain.SaleOutcome{SaleID: saleID, TotalAmount: total}, nil
	}
	if !errors.Is(err, domain.ErrRoutineUnavailable) {
		// Business rejection or hard failure from the routine is terminal.
		return nil, err
	}

	return s.recordSaleManual(ctx, req, total)
}

// recordSaleManual is the fallback strategy: an explicit atomic reservation,
// then the header and line inserts in one transaction. The reservation is
// committed before the inserts, so an insert failure must compensate it.
func (s *SaleService) recordSaleManual(ctx context.Context, req domain.SaleRequest, total decimal.Decimal) (*domain.SaleOutcome, error) {
	if err := s.catalog.ReserveStock(ctx, req.ProductID, req.Quantity); err != nil {
		return nil, err
	}

	sale := domain.Sale{
		TotalAmount: total,
		Address:     req.Address,
		CustomerID:  req.CustomerID,
		CarrierID:   req.CarrierID,
	}
	line := domain.SaleLine{
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		LineAmount: total,
	}

	saleID, err := s.sales.CreateSale(ctx, sale, line)
	if err != nil {
		if relErr := s.catalog.ReleaseStock(ctx, req.ProductID, req.Quantity); relErr != nil {
			return nil, fmt.Errorf("record sale: %w (stock release also failed: %v)", err, relErr)
		}
		return nil, fmt.Errorf("record sale: %w", err)
	}

	return &domain.SaleOutcome{SaleID: saleID, TotalAmount: total}, nil
}

// ListRecentSales returns the newest sales, capped at limit.
func (s *SaleService) ListRecentSales(ctx context.Context, identity string, limit int) ([]domain.SaleSummary, error) {
	if !auth.Authorize(identity, saleRoles...) {
		return nil, &domain.AccessDeniedError{Identity: identity, Role: auth.ResolveRole(identity)}
	}
	if limit <= 0 {
		limit = 10
	}
	return s.sales.ListRecentSales(ctx, limit)
}

func validateSaleRequest(req domain.SaleRequest) error {
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidRequest)
	}
	if req.ProductID <= 0 {
		return fmt.Errorf("%w: product id is required", domain.ErrInvalidRequest)
	}
	if req.CustomerID <= 0 {
		return fmt.Errorf("%w: customer id is required", domain.ErrInvalidRequest)
	}
	return nil
}
