package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vbarbosa/retail-pos/internal/core/domain"
)

type CatalogRepository interface {
	// GetProduct returns the product or domain.ErrProductNotFound. The read
	// is advisory; it never authorizes a stock decrement.
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)

	// ReserveStock decrements stock with a single conditional update, so the
	// check and the decrement are atomic at the store. Zero affected rows
	// yields domain.ErrProductNotFound or *domain.InsufficientStockError.
	ReserveStock(ctx context.Context, productID int64, quantity int) error

	// ReleaseStock restores a reservation after a later step failed.
	ReleaseStock(ctx context.Context, productID int64, quantity int) error

	CreateProduct(ctx context.Context, p domain.Product) (int64, error)
	SearchProducts(ctx context.Context, term string) ([]domain.Product, error)
	UpdateProductPrice(ctx context.Context, productID int64, price decimal.Decimal) error
	AddStock(ctx context.Context, productID int64, quantity int) error
	DeleteProduct(ctx context.Context, productID int64) error
}
