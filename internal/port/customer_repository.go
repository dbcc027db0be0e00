package port

import (
	"context"

	"github.com/vbarbosa/retail-pos/internal/core/domain"
)

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, c domain.Customer) (int64, error)
	SearchCustomers(ctx context.Context, term string) ([]domain.Customer, error)
}
