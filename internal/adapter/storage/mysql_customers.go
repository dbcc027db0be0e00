package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/vbarbosa/retail-pos/internal/core/domain"
)

type MySQLCustomers struct {
	gw *Gateway
}

func NewMySQLCustomers(gw *Gateway) *MySQLCustomers {
	return &MySQLCustomers{gw: gw}
}

func (c *MySQLCustomers) CreateCustomer(ctx context.Context, cust domain.Customer) (int64, error) {
	res, err := c.gw.Exec(ctx, `
		INSERT INTO customer (name, age, sex, birth_date)
		VALUES (?, ?, ?, ?)`,
		cust.Name, cust.Age, cust.Sex, cust.BirthDate,
	)
	if err != nil {
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	return res.LastInsertId()
}

func (c *MySQLCustomers) SearchCustomers(ctx context.Context, term string) ([]domain.Customer, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if id, convErr := strconv.ParseInt(term, 10, 64); convErr == nil {
		rows, err = c.gw.Query(ctx, `
			SELECT id, name, age, sex, birth_date FROM customer WHERE id = ?`, id)
	} else {
		rows, err = c.gw.Query(ctx, `
			SELECT id, name, age, sex, birth_date FROM customer
			WHERE name LIKE ? LIMIT ?`, "%"+term+"%", searchLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var cust domain.Customer
		var birth sql.NullTime
		if err := rows.Scan(&cust.ID, &cust.Name, &cust.Age, &cust.Sex, &birth); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		if birth.Valid {
			cust.BirthDate = birth.Time.Format("2006-01-02")
		}
		out = append(out, cust)
	}
	return out, rows.Err()
}
