package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID            int64
	Name          string
	Description   string
	StockQuantity int
	UnitPrice     decimal.Decimal
	Notes         string
	SellerID      int64
}

type Customer struct {
	ID        int64
	Name      string
	Age       int
	Sex       string
	BirthDate string // YYYY-MM-DD
}
