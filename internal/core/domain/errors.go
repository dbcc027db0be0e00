package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrDuplicateRequest   = errors.New("duplicate request")
	ErrRoutineUnavailable = errors.New("store routine unavailable")
	ErrInvalidRequest     = errors.New("invalid request")
)

// AccessDeniedError reports the resolved role so callers can surface it to
// the operator. Denial is a normal outcome, not a fault.
type AccessDeniedError struct {
	Identity string
	Role     Role
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: role %s is not permitted for this operation", e.Role)
}

// InsufficientStockError carries the remaining quantity observed after the
// conditional update applied zero rows.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Remaining int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, %d remaining", e.ProductID, e.Requested, e.Remaining)
}

// TransientError marks connectivity and lock-timeout class store failures.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient store failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IntegrityError marks constraint violations surfaced by the store. Relation
// holds the offending relation when it can be derived from the driver error.
type IntegrityError struct {
	Relation string
	Err      error
}

func (e *IntegrityError) Error() string {
	if e.Relation != "" {
		return fmt.Sprintf("integrity violation on %s: %v", e.Relation, e.Err)
	}
	return fmt.Sprintf("integrity violation: %v", e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }
