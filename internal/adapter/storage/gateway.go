package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/vbarbosa/retail-pos/internal/core/domain"
)

// Gateway funnels every statement against the relational store: parameterized
// execs and queries, stored-routine calls with full result-set draining, and
// transaction scopes that never leave partially applied work committed.
// Driver errors are translated into the domain taxonomy before they escape.
type Gateway struct {
	db *sql.DB
}

func NewGateway(db *sql.DB) *Gateway {
	return &Gateway{db: db}
}

// Exec runs a mutating statement as its own implicit transaction.
func (g *Gateway) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := g.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	return res, nil
}

// Query runs a read statement; rows come back in store order.
func (g *Gateway) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func (g *Gateway) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return g.db.QueryRowContext(ctx, query, args...)
}

// WithinTx runs fn inside one transaction, committing on success and rolling
// back on any error.
func (g *Gateway) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", classify(err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", classify(err))
	}
	return nil
}

// CallRoutine invokes a stored routine and drains every result set it
// produces. A routine may legitimately emit zero, one, or several sets;
// running out of sets is the normal stop condition, not an error.
func (g *Gateway) CallRoutine(ctx context.Context, name string, args ...any) ([]domain.ResultSet, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	rows, err := g.db.QueryContext(ctx, fmt.Sprintf("CALL %s(%s)", name, placeholders), args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var sets []domain.ResultSet
	for {
		cols, err := rows.Columns()
		if err != nil {
			return nil, classify(err)
		}
		if len(cols) > 0 {
			set := domain.ResultSet{Columns: cols}
			raw := make([]sql.RawBytes, len(cols))
			scan := make([]any, len(cols))
			for i := range raw {
				scan[i] = &raw[i]
			}
			for rows.Next() {
				if err := rows.Scan(scan...); err != nil {
					return nil, classify(err)
				}
				row := make([]string, len(cols))
				for i, rb := range raw {
					row[i] = string(rb)
				}
				set.Rows = append(set.Rows, row)
			}
			if err := rows.Err(); err != nil {
				return nil, classify(err)
			}
			sets = append(sets, set)
		}
		if !rows.NextResultSet() {
			break
		}
	}
	return sets, nil
}

// MySQL server error numbers this gateway cares about.
const (
	errDuplicateEntry  = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
	errRoutineMissing  = 1305
	errWrongArgCount   = 1318
	errExecuteDenied   = 1370
	errFKParentRow     = 1451
	errFKChildRow      = 1452
)

// classify maps a store-level error onto the domain taxonomy. User-defined
// SIGNAL conditions (1644) are left untouched for call sites to interpret.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDuplicateEntry, errFKParentRow, errFKChildRow:
			return &domain.IntegrityError{Relation: relationFrom(me.Message), Err: err}
		case errLockWaitTimeout, errDeadlock:
			return &domain.TransientError{Err: err}
		case errRoutineMissing, errWrongArgCount, errExecuteDenied:
			return fmt.Errorf("%w: %v", domain.ErrRoutineUnavailable, err)
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return &domain.TransientError{Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return &domain.TransientError{Err: err}
	}
	return err
}

// relationFrom pulls the offending table out of a constraint-violation
// message when the server included it, e.g.
// "... a foreign key constraint fails (`shop`.`sale_line`, CONSTRAINT ...)".
func relationFrom(msg string) string {
	parts := strings.Split(msg, "`")
	// backtick-delimited tokens come as db, ".", table, ...
	if len(parts) >= 4 {
		return parts[3]
	}
	return ""
}
