package orders

import "context"

// Store persists orders. PlaceOrder is the single atomic mutation of the
// system: it must make the order row, its items, the stock decrements and
// the cart clearing visible together or not at all.
type Store interface {
	// PlaceOrder persists o, decrements stock for every item and clears
	// the owner's cart lines in one transaction. It returns ErrCodeTaken
	// when o.Code collides with a live order, a ConflictError when a
	// concurrent stock change defeats the decrement, and leaves all state
	// untouched on any failure.
	PlaceOrder(ctx context.Context, o *Order) error

	GetOrder(ctx context.Context, id string) (*Order, error)

	// GetUserOrder fails with ErrNotFound when the order does not exist
	// or is owned by someone else.
	GetUserOrder(ctx context.Context, id, userID string) (*Order, error)

	ListUserOrders(ctx context.Context, userID string) ([]Order, error)

	// CancelPending flips a Pending order owned by userID to Cancelled.
	// Any other current status fails with InvalidTransitionError.
	CancelPending(ctx context.Context, id, userID string) (*Order, error)

	// SetStatus is the administrative override: any valid status may
	// replace any other, no transition graph applies.
	SetStatus(ctx context.Context, id string, status Status) (*Order, error)
}
