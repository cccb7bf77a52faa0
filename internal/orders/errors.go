package orders

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyCart means there were no cart lines to order from.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNotFound covers order and product lookup misses, including
	// ownership mismatches: a caller asking for someone else's order
	// learns nothing beyond "not found".
	ErrNotFound = errors.New("not found")

	// ErrCodeTaken signals an order code collision inside the store.
	// Placement retries with a fresh code; callers never see it.
	ErrCodeTaken = errors.New("order code already taken")

	// ErrOperationFailed is the generic mutation-phase failure. The
	// underlying cause is logged, never surfaced, so a client cannot
	// learn partial information about what succeeded.
	ErrOperationFailed = errors.New("order operation failed")
)

// ValidationError enumerates every offending input field.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

// InsufficientStockError names the product that cannot be fulfilled.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s", e.Name)
}

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// ConflictError surfaces races that persisted past internal retries: order
// code allocation gave up, or a concurrent stock change was detected during
// the transaction.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }
