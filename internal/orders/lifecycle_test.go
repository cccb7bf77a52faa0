package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electrohub/shop-api/internal/cart"
	"github.com/electrohub/shop-api/internal/catalog"
)

func placeTestOrder(t *testing.T, e *Engine, userID string) *Order {
	t.Helper()
	o, err := e.PlaceOrder(context.Background(), userID, false, validBuyer())
	require.NoError(t, err)
	return o
}

func newLifecycleFixture(t *testing.T) (*Lifecycle, *Engine, *catalog.MemoryStore, *cart.MemoryStore) {
	t.Helper()
	e, cat, crt := newTestEngine(t)
	return &Lifecycle{Store: e.Store}, e, cat, crt
}

func TestCancel_PendingOrder(t *testing.T) {
	lc, e, cat, crt := newLifecycleFixture(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Heater", "500", 4)
	_, err := crt.AddLine(ctx, "user-1", p.ID, 2)
	require.NoError(t, err)
	o := placeTestOrder(t, e, "user-1")

	got, err := lc.Cancel(ctx, o.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	// stock is not restored
	prod, err := cat.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, prod.Stock)
}

func TestCancel_TwiceIsRejected(t *testing.T) {
	lc, e, cat, crt := newLifecycleFixture(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Heater", "500", 4)
	_, err := crt.AddLine(ctx, "user-1", p.ID, 1)
	require.NoError(t, err)
	o := placeTestOrder(t, e, "user-1")

	_, err = lc.Cancel(ctx, o.ID, "user-1")
	require.NoError(t, err)

	_, err = lc.Cancel(ctx, o.ID, "user-1")
	var terr *InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, StatusCancelled, terr.From)
}

func TestCancel_OnlyFromPending(t *testing.T) {
	lc, e, cat, crt := newLifecycleFixture(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Heater", "500", 4)
	_, err := crt.AddLine(ctx, "user-1", p.ID, 1)
	require.NoError(t, err)
	o := placeTestOrder(t, e, "user-1")

	_, err = lc.UpdateStatus(ctx, o.ID, StatusShipping)
	require.NoError(t, err)

	_, err = lc.Cancel(ctx, o.ID, "user-1")
	var terr *InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, StatusShipping, terr.From)
}

func TestCancel_OwnershipIsOpaque(t *testing.T) {
	lc, e, cat, crt := newLifecycleFixture(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Heater", "500", 4)
	_, err := crt.AddLine(ctx, "user-1", p.ID, 1)
	require.NoError(t, err)
	o := placeTestOrder(t, e, "user-1")

	// another user's attempt looks identical to a missing order
	_, err = lc.Cancel(ctx, o.ID, "user-2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = lc.Cancel(ctx, "no-such-order", "user-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_AnyDefinedTransition(t *testing.T) {
	lc, e, cat, crt := newLifecycleFixture(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Heater", "500", 4)
	_, err := crt.AddLine(ctx, "user-1", p.ID, 1)
	require.NoError(t, err)
	o := placeTestOrder(t, e, "user-1")

	// admin moves are unconstrained between defined statuses
	for _, st := range []Status{StatusDelivered, StatusCancelled, StatusProcessing, StatusPending} {
		got, err := lc.UpdateStatus(ctx, o.ID, st)
		require.NoError(t, err)
		assert.Equal(t, st, got.Status)
	}
}

func TestUpdateStatus_RejectsUnknownValue(t *testing.T) {
	lc, _, _, _ := newLifecycleFixture(t)

	_, err := lc.UpdateStatus(context.Background(), "any", Status("Teleported"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"status"}, verr.Fields)
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	lc, _, _, _ := newLifecycleFixture(t)

	_, err := lc.UpdateStatus(context.Background(), "no-such-order", StatusShipping)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrack(t *testing.T) {
	lc, e, cat, crt := newLifecycleFixture(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Heater", "500", 4)
	_, err := crt.AddLine(ctx, "user-1", p.ID, 1)
	require.NoError(t, err)
	o := placeTestOrder(t, e, "user-1")

	tr, err := lc.Track(ctx, o.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, tr.OrderID)
	assert.Equal(t, StatusPending, tr.Status)

	_, err = lc.Track(ctx, o.ID, "user-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForUser(t *testing.T) {
	lc, e, cat, crt := newLifecycleFixture(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Heater", "500", 10)
	for _, user := range []string{"user-1", "user-1", "user-2"} {
		_, err := crt.AddLine(ctx, user, p.ID, 1)
		require.NoError(t, err)
		placeTestOrder(t, e, user)
	}

	mine, err := lc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, "user-1", o.UserID)
	}

	none, err := lc.ListForUser(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}
