package cart

import (
	"context"
	"errors"
	"time"
)

var ErrLineNotFound = errors.New("item not found in cart")

// Line is a single product+quantity entry in a cart. Owner is either an
// authenticated user id or an anonymous session key; the store does not
// distinguish the two.
type Line struct {
	Owner     string    `json:"-"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	ListLines(ctx context.Context, owner string) ([]Line, error)

	// AddLine upserts: at most one line exists per (owner, product), a
	// repeated add increments the quantity.
	AddLine(ctx context.Context, owner, productID string, qty int) (*Line, error)

	// DecrementLine lowers quantity by one, deleting the line when it
	// reaches zero. Returns the remaining line, or nil when deleted.
	DecrementLine(ctx context.Context, owner, productID string) (*Line, error)

	RemoveLine(ctx context.Context, owner, productID string) error
	ClearLines(ctx context.Context, owner string) error
}
