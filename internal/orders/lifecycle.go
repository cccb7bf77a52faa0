package orders

import (
	"context"
	"errors"
	"log/slog"
)

// Lifecycle manages status changes on orders the engine has already
// persisted.
type Lifecycle struct {
	Store Store
	Log   *slog.Logger
}

// Cancel flips a Pending order to Cancelled. Only the owning user may
// cancel, and only from Pending. Stock is not restored on cancellation.
func (l *Lifecycle) Cancel(ctx context.Context, orderID, userID string) (*Order, error) {
	o, err := l.Store.CancelPending(ctx, orderID, userID)
	if err != nil {
		var transition *InvalidTransitionError
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, err
		case errors.As(err, &transition):
			l.logger().Warn("cancel rejected", "order_id", orderID, "from", transition.From)
			return nil, err
		default:
			l.logger().Error("cancel order", "order_id", orderID, "err", err)
			return nil, ErrOperationFailed
		}
	}
	l.logger().Info("order cancelled", "order_id", o.ID, "order_code", o.Code)
	return o, nil
}

// UpdateStatus is the administrative path: any defined status may replace
// any other, unknown values are rejected.
func (l *Lifecycle) UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, &ValidationError{Fields: []string{"status"}}
	}
	o, err := l.Store.SetStatus(ctx, orderID, status)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		l.logger().Error("update order status", "order_id", orderID, "status", status, "err", err)
		return nil, ErrOperationFailed
	}
	l.logger().Info("order status updated", "order_id", o.ID, "status", status)
	return o, nil
}

// Track returns the current status of an order owned by the caller.
func (l *Lifecycle) Track(ctx context.Context, orderID, userID string) (*Tracking, error) {
	o, err := l.Store.GetUserOrder(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		l.logger().Error("track order", "order_id", orderID, "err", err)
		return nil, ErrOperationFailed
	}
	return &Tracking{OrderID: o.ID, Status: o.Status}, nil
}

func (l *Lifecycle) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	out, err := l.Store.ListUserOrders(ctx, userID)
	if err != nil {
		l.logger().Error("list orders", "user_id", userID, "err", err)
		return nil, ErrOperationFailed
	}
	return out, nil
}

func (l *Lifecycle) logger() *slog.Logger {
	if l.Log != nil {
		return l.Log
	}
	return slog.Default()
}
