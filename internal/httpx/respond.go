package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/electrohub/shop-api/internal/cart"
	"github.com/electrohub/shop-api/internal/catalog"
	"github.com/electrohub/shop-api/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the order error taxonomy onto HTTP statuses. Precondition
// failures carry their actionable message; internal failures always get the
// same generic body.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation *orders.ValidationError
		stock      *orders.InsufficientStockError
		transition *orders.InvalidTransitionError
		conflict   *orders.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		fields := map[string][]string{}
		for _, f := range validation.Fields {
			fields[f] = []string{"This field is required."}
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": validation.Error(), "fields": fields})
	case errors.Is(err, orders.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Cart is empty"})
	case errors.As(err, &stock):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Not enough stock for " + stock.Name})
	case errors.As(err, &transition):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Cancellation not allowed"})
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": conflict.Error()})
	case errors.Is(err, catalog.ErrStockConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "insufficient stock"})
	default:
		// no internal detail leaks to the client
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to process request"})
	}
}
