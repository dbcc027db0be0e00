package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vbarbosa/retail-pos/internal/core/domain"
)

type SaleRepository interface {
	// RecordSaleRoutine invokes the server-side RecordSale routine, which
	// inserts the sale and its line and decrements stock as one atomic unit.
	// An absent, restricted or transiently failing routine is reported as
	// domain.ErrRoutineUnavailable so the caller can fall back to CreateSale.
	RecordSaleRoutine(ctx context.Context, req domain.SaleRequest) (int64, error)

	// CreateSale inserts the sale header and its line inside one transaction
	// and returns the generated sale id. Stock is NOT touched here; the
	// caller reserves it first and compensates on failure.
	CreateSale(ctx context.Context, sale domain.Sale, line domain.SaleLine) (int64, error)

	// ListRecentSales returns the flattened sale view, newest first.
	ListRecentSales(ctx context.Context, limit int) ([]domain.SaleSummary, error)

	// SalesStatistics drains every result set the statistics routine emits.
	SalesStatistics(ctx context.Context) ([]domain.ResultSet, error)

	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
}
