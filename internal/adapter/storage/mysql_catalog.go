package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vbarbosa/retail-pos/internal/core/domain"
)

const searchLimit = 10

type MySQLCatalog struct {
	gw *Gateway
}

func NewMySQLCatalog(gw *Gateway) *MySQLCatalog {
	return &MySQLCatalog{gw: gw}
}

func (c *MySQLCatalog) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var p domain.Product
	var seller sql.NullInt64
	err := c.gw.QueryRow(ctx, `
		SELECT id, name, description, stock_quantity, unit_price, notes, seller_id
		FROM product WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name, &p.Description, &p.StockQuantity, &p.UnitPrice, &p.Notes, &seller)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", classify(err))
	}
	p.SellerID = seller.Int64
	return &p, nil
}

// ReserveStock is the availability check and the decrement in one statement.
// Two concurrent reservations of the last unit are serialized by the store's
// row lock: exactly one applies, the other sees zero affected rows.
func (c *MySQLCatalog) ReserveStock(ctx context.Context, productID int64, quantity int) error {
	res, err := c.gw.Exec(ctx, `
		UPDATE product
		SET stock_quantity = stock_quantity - ?
		WHERE id = ? AND stock_quantity >= ?`,
		quantity, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows > 0 {
		return nil
	}

	// Zero rows: the id is missing or the stock ran short. The follow-up
	// read only shapes the report, it never authorizes anything.
	var remaining int
	err = c.gw.QueryRow(ctx, `SELECT stock_quantity FROM product WHERE id = ?`, productID).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("reserve stock: %w", classify(err))
	}
	return &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Remaining: remaining}
}

// ReleaseStock compensates a reservation whose owning transaction failed.
func (c *MySQLCatalog) ReleaseStock(ctx context.Context, productID int64, quantity int) error {
	res, err := c.gw.Exec(ctx, `
		UPDATE product SET stock_quantity = stock_quantity + ? WHERE id = ?`,
		quantity, productID,
	)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (c *MySQLCatalog) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	var seller any // zero means no seller, stored as NULL
	if p.SellerID != 0 {
		seller = p.SellerID
	}
	res, err := c.gw.Exec(ctx, `
		INSERT INTO product (name, description, stock_quantity, unit_price, notes, seller_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.StockQuantity, p.UnitPrice, p.Notes, seller,
	)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return res.LastInsertId()
}

// SearchProducts looks up by id when the term is numeric, otherwise by name.
func (c *MySQLCatalog) SearchProducts(ctx context.Context, term string) ([]domain.Product, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if id, convErr := strconv.ParseInt(term, 10, 64); convErr == nil {
		rows, err = c.gw.Query(ctx, `
			SELECT id, name, description, stock_quantity, unit_price, notes, seller_id
			FROM product WHERE id = ?`, id)
	} else {
		rows, err = c.gw.Query(ctx, `
			SELECT id, name, description, stock_quantity, unit_price, notes, seller_id
			FROM product WHERE name LIKE ? LIMIT ?`, "%"+term+"%", searchLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		var seller sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.StockQuantity, &p.UnitPrice, &p.Notes, &seller); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.SellerID = seller.Int64
		out = append(out, p)
	}
	return out, rows.Err()
}

func (c *MySQLCatalog) UpdateProductPrice(ctx context.Context, productID int64, price decimal.Decimal) error {
	res, err := c.gw.Exec(ctx, `UPDATE product SET unit_price = ? WHERE id = ?`, price, productID)
	if err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (c *MySQLCatalog) AddStock(ctx context.Context, productID int64, quantity int) error {
	res, err := c.gw.Exec(ctx, `
		UPDATE product SET stock_quantity = stock_quantity + ? WHERE id = ?`,
		quantity, productID,
	)
	if err != nil {
		return fmt.Errorf("add stock: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (c *MySQLCatalog) DeleteProduct(ctx context.Context, productID int64) error {
	res, err := c.gw.Exec(ctx, `DELETE FROM product WHERE id = ?`, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
