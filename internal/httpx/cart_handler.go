package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/electrohub/shop-api/internal/cart"
	"github.com/electrohub/shop-api/internal/catalog"
)

type CartHandler struct {
	Cart    cart.Store
	Catalog catalog.Store
	MW      *Middleware
}

type addToCartReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityReq struct {
	Action string `json:"action"` // "add" or "remove"
}

type cartLineResp struct {
	Product  *catalog.Product `json:"product"`
	Quantity int              `json:"quantity"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.MW.WithIdentity)
		r.Get("/cart", h.list)
		r.Post("/cart", h.add)
		r.Patch("/cart/{productID}", h.updateQuantity)
		r.Delete("/cart/{productID}", h.remove)
	})
}

func (h *CartHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	owner := cartOwner(w, r)
	resp, err := h.cartResponse(ctx, owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cart": resp})
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addToCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Product ID is required"})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// product must exist before it can enter a cart
	if _, err := h.Catalog.GetProduct(ctx, req.ProductID); err != nil {
		writeError(w, err)
		return
	}

	owner := cartOwner(w, r)
	if _, err := h.Cart.AddLine(ctx, owner, req.ProductID, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Item added to cart"})
}

func (h *CartHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Action != "add" && req.Action != "remove" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid action. Use 'add' or 'remove'."})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	owner := cartOwner(w, r)
	productID := chi.URLParam(r, "productID")
	name := productID
	if p, err := h.Catalog.GetProduct(ctx, productID); err == nil {
		name = p.Name
	}

	var message string
	switch req.Action {
	case "add":
		if _, err := h.Cart.AddLine(ctx, owner, productID, 1); err != nil {
			writeError(w, err)
			return
		}
		message = fmt.Sprintf("Added 1 more '%s' to cart", name)
	case "remove":
		l, err := h.Cart.DecrementLine(ctx, owner, productID)
		if errors.Is(err, cart.ErrLineNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Item not found in cart"})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		if l == nil {
			message = fmt.Sprintf("Item '%s' removed from cart completely", name)
		} else {
			message = fmt.Sprintf("1 '%s' item removed from cart", name)
		}
	}

	resp, err := h.cartResponse(ctx, owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": message, "cart": resp})
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	owner := cartOwner(w, r)
	productID := chi.URLParam(r, "productID")
	name := productID
	if p, err := h.Catalog.GetProduct(ctx, productID); err == nil {
		name = p.Name
	}

	if err := h.Cart.RemoveLine(ctx, owner, productID); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Item not found in cart"})
			return
		}
		writeError(w, err)
		return
	}

	resp, err := h.cartResponse(ctx, owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Item '%s' removed from cart completely", name),
		"cart":    resp,
	})
}

// cartResponse joins cart lines with their product summaries. Lines whose
// product has vanished from the catalog are dropped from the listing.
func (h *CartHandler) cartResponse(ctx context.Context, owner string) ([]cartLineResp, error) {
	lines, err := h.Cart.ListLines(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]cartLineResp, 0, len(lines))
	for _, l := range lines {
		p, err := h.Catalog.GetProduct(ctx, l.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, cartLineResp{Product: p, Quantity: l.Quantity})
	}
	return out, nil
}
