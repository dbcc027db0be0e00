package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRequest is the transient input for one sale attempt. CarrierID is
// optional; nil maps to a NULL carrier on the sale row.
type SaleRequest struct {
	RequestID  string
	CustomerID int64
	Address    string
	CarrierID  *int64
	ProductID  int64
	Quantity   int
}

type Sale struct {
	ID          int64
	TotalAmount decimal.Decimal
	Address     string
	CustomerID  int64
	CarrierID   *int64
}

type SaleLine struct {
	SaleID     int64
	ProductID  int64
	Quantity   int
	LineAmount decimal.Decimal
}

// SaleOutcome is the terminal success of a coordinator run.
type SaleOutcome struct {
	SaleID      int64
	TotalAmount decimal.Decimal
}

// SaleSummary is one row of the flattened recent-sales view.
type SaleSummary struct {
	ID          int64
	Date        time.Time
	TotalAmount decimal.Decimal
	Customer    string
	Products    string
}

// ResultSet is one labelled result set drained from a stored routine.
type ResultSet struct {
	Columns []string
	Rows    [][]string
}
