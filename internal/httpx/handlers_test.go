package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/electrohub/shop-api/internal/auth"
	"github.com/electrohub/shop-api/internal/cart"
	"github.com/electrohub/shop-api/internal/catalog"
	"github.com/electrohub/shop-api/internal/orders"
)

// fixture wires the full router against in-memory stores and miniredis,
// mirroring the wiring in cmd/api. Producers stay nil; publishing is a
// no-op without brokers.
type fixture struct {
	router  *chi.Mux
	catalog *catalog.MemoryStore
	cart    *cart.MemoryStore
	users   *auth.MemoryUserStore
	auth    *auth.Service
	redis   *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cat := catalog.NewMemoryStore()
	crt := cart.NewMemoryStore()
	users := auth.NewMemoryUserStore()
	authSvc := &auth.Service{Users: users, Redis: rdb, TokenTTL: time.Hour}
	engine := &orders.Engine{
		Store:       orders.NewMemoryStore(cat, crt),
		Catalog:     cat,
		Cart:        crt,
		DeliveryFee: decimal.NewFromInt(1000),
	}
	mw := &Middleware{Auth: authSvc}

	r := NewRouter()
	(&AuthHandler{Auth: authSvc}).Register(r)
	(&ProductsHandler{Catalog: cat, MW: mw}).Register(r)
	(&CartHandler{Cart: crt, Catalog: cat, MW: mw}).Register(r)
	(&OrdersHandler{
		Engine:    engine,
		Lifecycle: &orders.Lifecycle{Store: engine.Store},
		Redis:     rdb,
		MW:        mw,
		Service:   "api-test",
	}).Register(r)

	return &fixture{router: r, catalog: cat, cart: crt, users: users, auth: authSvc, redis: mr}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (f *fixture) registerUser(t *testing.T, username string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody(t, rec)["token"].(string)
}

func (f *fixture) registerAdmin(t *testing.T, username string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), &auth.User{
		ID:           username + "-id",
		Username:     username,
		PasswordHash: hash,
		Admin:        true,
	}))
	token, err := f.auth.Login(context.Background(), username, "s3cret-pass")
	require.NoError(t, err)
	return token
}

func (f *fixture) seedProduct(t *testing.T, name, price string, stock int) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: catalog.CategoryAppliances,
	}
	require.NoError(t, f.catalog.CreateProduct(context.Background(), p))
	return p
}

func buyerFields() map[string]any {
	return map[string]any{
		"mpesa_code":   "QK12XY89Z",
		"first_name":   "Jane",
		"last_name":    "Wanjiru",
		"phone_number": "0712345678",
		"location":     "Nairobi",
		"age":          28,
		"email":        "jane@example.com",
		"gender":       "Female",
	}
}

func orderRequest(delivery bool, overrides map[string]any) map[string]any {
	body := buyerFields()
	body["delivery"] = delivery
	for k, v := range overrides {
		body[k] = v
	}
	return body
}
