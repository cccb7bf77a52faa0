package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/electrohub/shop-api/internal/cart"
	"github.com/electrohub/shop-api/internal/catalog"
)

// MemoryStore keeps orders in maps and applies placements through the
// catalog's compare-and-swap stock decrement. Placements are serialized by
// a single mutex; a decrement that still fails (an admin adjusted stock
// concurrently) is compensated so no partial deduction survives.
type MemoryStore struct {
	Catalog catalog.Store
	Cart    cart.Store

	mu     sync.RWMutex
	orders map[string]*Order
	codes  map[string]string // order code -> order id
}

func NewMemoryStore(cat catalog.Store, crt cart.Store) *MemoryStore {
	return &MemoryStore{
		Catalog: cat,
		Cart:    crt,
		orders:  make(map[string]*Order),
		codes:   make(map[string]string),
	}
}

func (s *MemoryStore) PlaceOrder(ctx context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.codes[o.Code]; taken {
		return ErrCodeTaken
	}

	// Decrement stock item by item; on failure undo what was applied.
	applied := make([]Item, 0, len(o.Items))
	for _, it := range o.Items {
		if err := s.Catalog.AdjustStock(ctx, it.ProductID, -it.Quantity); err != nil {
			for _, done := range applied {
				_ = s.Catalog.AdjustStock(ctx, done.ProductID, done.Quantity)
			}
			return &ConflictError{Reason: fmt.Sprintf("stock changed for %s", it.Name)}
		}
		applied = append(applied, it)
	}

	if err := s.Cart.ClearLines(ctx, o.UserID); err != nil {
		for _, done := range applied {
			_ = s.Catalog.AdjustStock(ctx, done.ProductID, done.Quantity)
		}
		return err
	}

	cp := cloneOrder(o)
	s.orders[o.ID] = cp
	s.codes[o.Code] = o.ID
	return nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) GetUserOrder(_ context.Context, id, userID string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok || o.UserID != userID {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) ListUserOrders(_ context.Context, userID string) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CancelPending(_ context.Context, id, userID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.UserID != userID {
		return nil, ErrNotFound
	}
	if o.Status != StatusPending {
		return nil, &InvalidTransitionError{From: o.Status, To: StatusCancelled}
	}
	o.Status = StatusCancelled
	return cloneOrder(o), nil
}

func (s *MemoryStore) SetStatus(_ context.Context, id string, status Status) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	return cloneOrder(o), nil
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = make([]Item, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}
