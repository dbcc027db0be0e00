package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/vbarbosa/retail-pos/internal/core/domain"
)

// errSignalException is raised by user-defined SIGNAL conditions, which the
// RecordSale routine uses to reject a sale on insufficient stock.
const errSignalException = 1644

type MySQLSales struct {
	gw *Gateway
}

func NewMySQLSales(gw *Gateway) *MySQLSales {
	return &MySQLSales{gw: gw}
}

// RecordSaleRoutine runs the server-side RecordSale routine, which performs
// the header insert, line insert and conditional stock decrement as one unit
// and returns the generated sale id as a single-row result set.
func (s *MySQLSales) RecordSaleRoutine(ctx context.Context, req domain.SaleRequest) (int64, error) {
	var carrier any
	if req.CarrierID != nil {
		carrier = *req.CarrierID
	}

	sets, err := s.gw.CallRoutine(ctx, "RecordSale", req.CustomerID, req.ProductID, req.Quantity, carrier, req.Address)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == errSignalException {
			// Business rejection: the routine refused the decrement. Read
			// the remaining quantity for the report.
			var remaining int
			if readErr := s.gw.QueryRow(ctx, `SELECT stock_quantity FROM product WHERE id = ?`, req.ProductID).Scan(&remaining); readErr != nil {
				if errors.Is(readErr, sql.ErrNoRows) {
					return 0, domain.ErrProductNotFound
				}
				return 0, fmt.Errorf("record sale routine: %w", classify(readErr))
			}
			return 0, &domain.InsufficientStockError{ProductID: req.ProductID, Requested: req.Quantity, Remaining: remaining}
		}

		var te *domain.TransientError
		if errors.As(err, &te) {
			// A transient failure of the routine path is absorbed; the
			// manual path takes over.
			return 0, fmt.Errorf("%w: %v", domain.ErrRoutineUnavailable, err)
		}
		return 0, fmt.Errorf("record sale routine: %w", err)
	}

	if len(sets) == 0 || len(sets[0].Rows) == 0 || len(sets[0].Rows[0]) == 0 {
		// A routine that answers without the sale id cannot be trusted to
		// have recorded anything; treat it as unavailable.
		return 0, fmt.Errorf("%w: routine returned no sale id", domain.ErrRoutineUnavailable)
	}
	saleID, convErr := strconv.ParseInt(sets[0].Rows[0][0], 10, 64)
	if convErr != nil {
		return 0, fmt.Errorf("%w: malformed sale id %q", domain.ErrRoutineUnavailable, sets[0].Rows[0][0])
	}
	return saleID, nil
}

// CreateSale inserts the sale header and its line inside one transaction.
// The stock decrement is owned by the caller's reservation, so a rollback
// here leaves only that reservation to compensate.
func (s *MySQLSales) CreateSale(ctx context.Context, sale domain.Sale, line domain.SaleLine) (int64, error) {
	var saleID int64
	err := s.gw.WithinTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO sale (sale_date, sale_time, total_amount, address, customer_id, carrier_id)
			VALUES (CURDATE(), CURTIME(), ?, ?, ?, ?)`,
			sale.TotalAmount, sale.Address, sale.CustomerID, sale.CarrierID,
		)
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		saleID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sale id: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_line (sale_id, product_id, quantity, line_amount)
			VALUES (?, ?, ?, ?)`,
			saleID, line.ProductID, line.Quantity, line.LineAmount,
		)
		if err != nil {
			return fmt.Errorf("insert sale line: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return saleID, nil
}

func (s *MySQLSales) ListRecentSales(ctx context.Context, limit int) ([]domain.SaleSummary, error) {
	rows, err := s.gw.Query(ctx, `
		SELECT s.id, s.sale_date, s.total_amount, c.name AS customer,
		       GROUP_CONCAT(CONCAT(p.name, ' (', sl.quantity, 'x)')) AS products
		FROM sale s
		JOIN customer c ON s.customer_id = c.id
		JOIN sale_line sl ON s.id = sl.sale_id
		JOIN product p ON sl.product_id = p.id
		GROUP BY s.id, s.sale_date, s.total_amount, c.name
		ORDER BY s.sale_date DESC, s.id DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []domain.SaleSummary
	for rows.Next() {
		var sm domain.SaleSummary
		if err := rows.Scan(&sm.ID, &sm.Date, &sm.TotalAmount, &sm.Customer, &sm.Products); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *MySQLSales) SalesStatistics(ctx context.Context) ([]domain.ResultSet, error) {
	sets, err := s.gw.CallRoutine(ctx, "SalesStatistics")
	if err != nil {
		return nil, fmt.Errorf("sales statistics: %w", err)
	}
	return sets, nil
}

func (s *MySQLSales) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	sets, err := s.gw.CallRoutine(ctx, "TotalRevenue")
	if err != nil {
		return decimal.Zero, fmt.Errorf("total revenue: %w", err)
	}
	if len(sets) == 0 || len(sets[0].Rows) == 0 || len(sets[0].Rows[0]) == 0 || sets[0].Rows[0][0] == "" {
		return decimal.Zero, nil
	}
	total, convErr := decimal.NewFromString(sets[0].Rows[0][0])
	if convErr != nil {
		return decimal.Zero, fmt.Errorf("total revenue: malformed amount %q", sets[0].Rows[0][0])
	}
	return total, nil
}
