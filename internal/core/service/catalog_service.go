package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vbarbosa/retail-pos/internal/core/auth"
	"github.com/vbarbosa/retail-pos/internal/core/domain"
	"github.com/vbarbosa/retail-pos/internal/port"
)

var managerRoles = []domain.Role{domain.RoleManager}

// CatalogService carries the clerk/manager/administrator operations around
// the catalog: registration, search, price and stock maintenance, and the
// reporting routines. Every operation consults the gate before touching the
// store.
type CatalogService struct {
	catalog   port.CatalogRepository
	customers port.CustomerRepository
	sales     port.SaleRepository
}

func NewCatalogService(catalog port.CatalogRepository, customers port.CustomerRepository, sales port.SaleRepository) *CatalogService {
	return &CatalogService{
		catalog:   catalog,
		customers: customers,
		sales:     sales,
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, identity string, p domain.Product) (int64, error) {
	if !auth.Authorize(identity, saleRoles...) {
		return 0, &domain.AccessDeniedError{Identity: identity, Role: auth.ResolveRole(identity)}
	}
	if strings.TrimSpace(p.Name) == "" {
		return 0, fmt.Errorf("%w: product name is required", domain.ErrInvalidRequest)
	}
	if p.StockQuantity < 0 || p.UnitPrice.IsNegative() {
		return 0, fmt.Errorf("%w: stock and price must not be negative", domain.ErrInvalidRequest)
	}
	return s.catalog.CreateProduct(ctx, p)
}

func (s *CatalogService) SearchProducts(ctx context.Context, identity, term string) ([]domain.Product, error) {
	if !auth.Authorize(identity, managerRoles...) {
		return nil, &domain.AccessDeniedError{Identity: identity, Role: auth.ResolveRole(identity)}
	}
	return s.catalog.SearchProducts(ctx, term)
}

func (s *CatalogService) UpdateProductPrice(ctx context.Context, identity string, productID int64, price decimal.Decimal) error {
	if !auth.Authorize(identity, managerRoles...) {
		return &domain.AccessDeniedError{Identity: identity, Role: auth.ResolveRole(identity)}
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidRequest)
	}
	return s.catalog.UpdateProductPrice(ctx, productID, price)
}

func (s *CatalogService) RestockProduct(ctx context.Context, identity string, productID int64, quantity int) error {
	if !auth.Authorize(identity, managerRoles...) {
		return &domain.AccessDeniedError{Identity: identity, Role: auth.ResolveRole(identity)}
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: restock quantity must be positive", domain.ErrInvalidRequest)
	}
	return s.catalog.AddStock(ctx, productID, quantity)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, identity string, productID int64) error {
	if !auth.Authorize(identity, managerRoles...) {
		return &domain.AccessDeniedError{Identity: identity, Role: auth.ResolveRole(identity)}
	}
	return s.catalog.DeleteProduct(ctx, productID)
}

// CreateCustomer registers a customer; the age column is derived from the
// birth date at registration time, as the sale reports expect it.
func (s *CatalogService) CreateCustomer(ctx context.Context, identity string, c domain.Customer) (int64, error) {
	if !auth.Authorize(identity) { // administrator only
		return 0, &domain.AccessDeniedError{Identity: identity, Role: auth.ResolveRole(identity)}
	}
	if strings.TrimSpace(c.Name) == "" {
		return 0, fmt.Errorf("%w: customer name is required", domain.ErrInvalidRequest)
	}
	birth, err := time.Parse("2006-01-02", c.BirthDate)
	if err != nil {
		return 0, fmt.Errorf("%w: birth date must be YYYY-MM-DD", domain.ErrInvalidRequest)
	}
	c.Age = yearsSince(birth, time.Now())
	return s.customers.CreateCustomer(ctx, c)
}

func (s *CatalogService) SearchCustomers(ctx context.Context, identity, term string) ([]domain.Customer, error) {
	if !auth.Authorize(identity, managerRoles...) {
		return nil, &domain.AccessDeniedError{Identity: identity, Role: auth.ResolveRole(identity)}
	}
	return s.customers.SearchCustomers(ctx, term)
}

// SalesStatistics runs the reporting routine and returns every result set it
// emitted.
func (s *CatalogService) SalesStatistics(ctx context.Context, identity string) ([]domain.ResultSet, error) {
	if !auth.Authorize(identity, managerRoles...) {
		return nil, &domain.AccessDeniedError{Identity: identity, Role: auth.ResolveRole(identity)}
	}
	return s.sales.SalesStatistics(ctx)
}

func (s *CatalogService) TotalRevenue(ctx context.Context, identity string) (decimal.Decimal, error) {
	if !auth.Authorize(identity) { // administrator only
		return decimal.Zero, &domain.AccessDeniedError{Identity: identity, Role: auth.ResolveRole(identity)}
	}
	return s.sales.TotalRevenue(ctx)
}

func yearsSince(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
