package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/electrohub/shop-api/internal/cart"
	"github.com/electrohub/shop-api/internal/catalog"
)

const defaultCodeAttempts = 5

// Engine turns a user's cart into a persisted order: it validates input,
// re-reads stock for every line, computes the total once, and hands the
// whole mutation to the store as a single transaction.
type Engine struct {
	Store   Store
	Catalog catalog.Store
	Cart    cart.Store

	// DeliveryFee is the flat surcharge applied when delivery is
	// requested. The fee stored on the order is this value or zero,
	// never derived later.
	DeliveryFee decimal.Decimal

	// CodeAttempts bounds order-code collision retries.
	CodeAttempts int

	Log *slog.Logger
}

// PlaceOrder converts userID's cart into an order.
//
// Validation runs in a fixed sequence before any mutation: empty cart,
// then buyer details (all violations reported at once), then a stock
// pre-check across every line. Totals are snapshots of catalog prices at
// this moment and are never recomputed.
func (e *Engine) PlaceOrder(ctx context.Context, userID string, delivery bool, buyer BuyerDetails) (*Order, error) {
	lines, err := e.Cart.ListLines(ctx, userID)
	if err != nil {
		e.logger().Error("list cart lines", "user_id", userID, "err", err)
		return nil, ErrOperationFailed
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if v := buyer.Violations(); len(v) > 0 {
		return nil, &ValidationError{Fields: v}
	}

	// Check every line before touching anything, so a late shortage can
	// never leave a partial deduction behind.
	items := make([]Item, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		p, err := e.Catalog.GetProduct(ctx, l.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", l.ProductID, ErrNotFound)
		}
		if err != nil {
			e.logger().Error("read product", "product_id", l.ProductID, "err", err)
			return nil, ErrOperationFailed
		}
		if p.Stock < l.Quantity {
			return nil, &InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: l.Quantity,
				Available: p.Stock,
			}
		}
		items = append(items, Item{
			ID:        uuid.NewString(),
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  l.Quantity,
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	fee := decimal.Zero
	if delivery {
		fee = e.DeliveryFee
	}
	total = total.Add(fee)

	o := &Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		TotalAmount: total,
		Delivery:    delivery,
		DeliveryFee: fee,
		Status:      StatusPending,
		Buyer:       buyer,
		Items:       items,
		CreatedAt:   time.Now().UTC(),
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}

	attempts := e.CodeAttempts
	if attempts <= 0 {
		attempts = defaultCodeAttempts
	}
	for i := 0; i < attempts; i++ {
		o.Code = NewCode()
		err = e.Store.PlaceOrder(ctx, o)
		if !errors.Is(err, ErrCodeTaken) {
			break
		}
	}

	switch {
	case err == nil:
		e.logger().Info("order placed",
			"order_id", o.ID, "order_code", o.Code, "user_id", userID,
			"total", o.TotalAmount.String(), "items", len(o.Items))
		return o, nil
	case errors.Is(err, ErrCodeTaken):
		e.logger().Error("order code retries exhausted", "user_id", userID, "attempts", attempts)
		return nil, &ConflictError{Reason: "could not allocate a unique order code"}
	}

	var conflict *ConflictError
	if errors.As(err, &conflict) {
		e.logger().Warn("stock conflict during placement", "user_id", userID, "err", err)
		return nil, err
	}
	e.logger().Error("place order", "user_id", userID, "err", err)
	return nil, ErrOperationFailed
}

func (e *Engine) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}
