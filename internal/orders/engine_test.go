package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electrohub/shop-api/internal/cart"
	"github.com/electrohub/shop-api/internal/catalog"
)

func newTestEngine(t *testing.T) (*Engine, *catalog.MemoryStore, *cart.MemoryStore) {
	t.Helper()
	cat := catalog.NewMemoryStore()
	crt := cart.NewMemoryStore()
	e := &Engine{
		Store:       NewMemoryStore(cat, crt),
		Catalog:     cat,
		Cart:        crt,
		DeliveryFee: decimal.NewFromInt(1000),
	}
	return e, cat, crt
}

func seedProduct(t *testing.T, cat *catalog.MemoryStore, name, price string, stock int) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: catalog.CategoryAppliances,
	}
	require.NoError(t, cat.CreateProduct(context.Background(), p))
	return p
}

func validBuyer() BuyerDetails {
	return BuyerDetails{
		MpesaCode:   "QK12XY89Z",
		FirstName:   "Jane",
		LastName:    "Wanjiru",
		PhoneNumber: "0712345678",
		Location:    "Nairobi",
		Age:         28,
		Email:       "jane@example.com",
		Gender:      GenderFemale,
	}
}

func TestPlaceOrder_TotalWithoutDelivery(t *testing.T) {
	e, cat, crt := newTestEngine(t)
	ctx := context.Background()

	pa := seedProduct(t, cat, "TV Decoder", "100", 10)
	pb := seedProduct(t, cat, "HDMI Cable", "50", 10)
	_, err := crt.AddLine(ctx, "user-1", pa.ID, 2)
	require.NoError(t, err)
	_, err = crt.AddLine(ctx, "user-1", pb.ID, 1)
	require.NoError(t, err)

	o, err := e.PlaceOrder(ctx, "user-1", false, validBuyer())
	require.NoError(t, err)

	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(250)), "total %s", o.TotalAmount)
	assert.True(t, o.DeliveryFee.IsZero())
	assert.False(t, o.Delivery)
	assert.Equal(t, StatusPending, o.Status)
	assert.Len(t, o.Items, 2)
	assert.Regexp(t, `^EH-\d{7}$`, o.Code)

	// cart emptied
	lines, err := crt.ListLines(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	// stock deducted by exactly the ordered quantities
	gotA, err := cat.GetProduct(ctx, pa.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, gotA.Stock)
	gotB, err := cat.GetProduct(ctx, pb.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, gotB.Stock)
}

func TestPlaceOrder_TotalWithDelivery(t *testing.T) {
	e, cat, crt := newTestEngine(t)
	ctx := context.Background()

	pa := seedProduct(t, cat, "TV Decoder", "100", 10)
	pb := seedProduct(t, cat, "HDMI Cable", "50", 10)
	_, err := crt.AddLine(ctx, "user-1", pa.ID, 2)
	require.NoError(t, err)
	_, err = crt.AddLine(ctx, "user-1", pb.ID, 1)
	require.NoError(t, err)

	o, err := e.PlaceOrder(ctx, "user-1", true, validBuyer())
	require.NoError(t, err)

	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(1250)), "total %s", o.TotalAmount)
	assert.True(t, o.DeliveryFee.Equal(decimal.NewFromInt(1000)))
	assert.True(t, o.Delivery)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	e, _, _ := newTestEngine(t)

	o, err := e.PlaceOrder(context.Background(), "user-1", false, validBuyer())
	assert.Nil(t, o)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_MissingBuyerFieldsAllListed(t *testing.T) {
	e, cat, crt := newTestEngine(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Kettle", "30", 5)
	_, err := crt.AddLine(ctx, "user-1", p.ID, 1)
	require.NoError(t, err)

	buyer := validBuyer()
	buyer.MpesaCode = ""
	buyer.Email = ""
	buyer.Age = 0

	_, err = e.PlaceOrder(ctx, "user-1", false, buyer)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"mpesa_code", "email", "age"}, verr.Fields)

	// validation fails before any mutation
	got, err := cat.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	lines, err := crt.ListLines(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestPlaceOrder_InsufficientStockIsAllOrNothing(t *testing.T) {
	e, cat, crt := newTestEngine(t)
	ctx := context.Background()

	ok := seedProduct(t, cat, "Blender", "80", 10)
	short := seedProduct(t, cat, "Microwave", "200", 3)
	_, err := crt.AddLine(ctx, "user-1", ok.ID, 2)
	require.NoError(t, err)
	_, err = crt.AddLine(ctx, "user-1", short.ID, 5)
	require.NoError(t, err)

	_, err = e.PlaceOrder(ctx, "user-1", false, validBuyer())
	var serr *InsufficientStockError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Microwave", serr.Name)
	assert.Equal(t, 5, serr.Requested)
	assert.Equal(t, 3, serr.Available)

	// nothing changed, not even the line that had enough stock
	gotOK, err := cat.GetProduct(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, gotOK.Stock)
	gotShort, err := cat.GetProduct(ctx, short.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, gotShort.Stock)
	lines, err := crt.ListLines(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestPlaceOrder_ProductRemovedFromCatalog(t *testing.T) {
	e, cat, crt := newTestEngine(t)
	ctx := context.Background()

	_, err := crt.AddLine(ctx, "user-1", "gone", 1)
	require.NoError(t, err)
	_ = cat // product never existed

	_, err = e.PlaceOrder(ctx, "user-1", false, validBuyer())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceOrder_TotalIsPriceSnapshot(t *testing.T) {
	e, cat, crt := newTestEngine(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Iron Box", "100", 10)
	_, err := crt.AddLine(ctx, "user-1", p.ID, 1)
	require.NoError(t, err)

	o, err := e.PlaceOrder(ctx, "user-1", false, validBuyer())
	require.NoError(t, err)

	// a later price change must not affect the stored total
	p.Price = decimal.RequireFromString("999")
	require.NoError(t, cat.UpdateProduct(ctx, p))

	got, err := e.Store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))
}

// codeCollideStore forces order-code collisions for a number of calls.
type codeCollideStore struct {
	Store
	failures int
	calls    int
}

func (s *codeCollideStore) PlaceOrder(ctx context.Context, o *Order) error {
	s.calls++
	if s.calls <= s.failures {
		return ErrCodeTaken
	}
	return s.Store.PlaceOrder(ctx, o)
}

func TestPlaceOrder_RetriesCodeCollision(t *testing.T) {
	e, cat, crt := newTestEngine(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Router", "60", 5)
	_, err := crt.AddLine(ctx, "user-1", p.ID, 1)
	require.NoError(t, err)

	collide := &codeCollideStore{Store: e.Store, failures: 3}
	e.Store = collide
	e.CodeAttempts = 5

	o, err := e.PlaceOrder(ctx, "user-1", false, validBuyer())
	require.NoError(t, err)
	assert.Equal(t, 4, collide.calls)
	assert.Regexp(t, `^EH-\d{7}$`, o.Code)
}

func TestPlaceOrder_CodeRetriesExhausted(t *testing.T) {
	e, cat, crt := newTestEngine(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Router", "60", 5)
	_, err := crt.AddLine(ctx, "user-1", p.ID, 1)
	require.NoError(t, err)

	e.Store = &codeCollideStore{Store: e.Store, failures: 1 << 30}
	e.CodeAttempts = 3

	_, err = e.PlaceOrder(ctx, "user-1", false, validBuyer())
	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
}

// failStore reports a storage failure during the transaction.
type failStore struct{ Store }

func (s *failStore) PlaceOrder(context.Context, *Order) error {
	return errors.New("connection reset")
}

func TestPlaceOrder_StorageFailureIsGeneric(t *testing.T) {
	e, cat, crt := newTestEngine(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Router", "60", 5)
	_, err := crt.AddLine(ctx, "user-1", p.ID, 1)
	require.NoError(t, err)

	e.Store = &failStore{Store: e.Store}

	_, err = e.PlaceOrder(ctx, "user-1", false, validBuyer())
	assert.ErrorIs(t, err, ErrOperationFailed)
	assert.NotContains(t, err.Error(), "connection reset")
}

func TestPlaceOrder_ConcurrentPlacementsNeverOversell(t *testing.T) {
	e, cat, crt := newTestEngine(t)
	ctx := context.Background()

	const stock = 5
	const buyers = 20
	p := seedProduct(t, cat, "Sound Bar", "150", stock)

	for i := 0; i < buyers; i++ {
		_, err := crt.AddLine(ctx, userN(i), p.ID, 1)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	results := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.PlaceOrder(ctx, userN(i), false, validBuyer())
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			var cerr *ConflictError
			var serr *InsufficientStockError
			require.True(t, errors.As(err, &cerr) || errors.As(err, &serr), "unexpected error: %v", err)
			conflicted++
		}
	}

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, buyers-stock, conflicted)

	got, err := cat.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock, "stock must end at zero, never negative")
}

func TestPlaceOrder_CodesAreUnique(t *testing.T) {
	e, cat, crt := newTestEngine(t)
	ctx := context.Background()

	p := seedProduct(t, cat, "Extension Cable", "20", 1000)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		user := userN(i)
		_, err := crt.AddLine(ctx, user, p.ID, 1)
		require.NoError(t, err)
		o, err := e.PlaceOrder(ctx, user, false, validBuyer())
		require.NoError(t, err)
		assert.False(t, seen[o.Code], "duplicate code %s", o.Code)
		seen[o.Code] = true
	}
}

func userN(i int) string {
	return fmt.Sprintf("user-%d", i)
}
