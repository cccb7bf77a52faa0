package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/electrohub/shop-api/internal/kafka"
	"github.com/electrohub/shop-api/internal/orders"
	"github.com/electrohub/shop-api/internal/redisx"
)

type OrdersHandler struct {
	Engine    *orders.Engine
	Lifecycle *orders.Lifecycle
	Redis     *redis.Client
	MW        *Middleware
	Service   string

	ProducerPlaced    *kafkax.Producer
	ProducerCancelled *kafkax.Producer
	ProducerStatus    *kafkax.Producer
}

type placeOrderReq struct {
	Delivery bool `json:"delivery"`
	orders.BuyerDetails
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.MW.RequireUser)
		r.Post("/orders", h.place)
		r.Get("/orders", h.list)
		r.Get("/orders/{id}/track", h.track)
		r.Post("/orders/{id}/cancel", h.cancel)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.MW.RequireAdmin)
		r.Patch("/orders/{id}/status", h.updateStatus)
	})
}

func (h *OrdersHandler) place(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, _ := IdentityFrom(r.Context())
	o, err := h.Engine.PlaceOrder(ctx, id.UserID, req.Delivery, req.BuyerDetails)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheStatus(ctx, o)
	h.publish(r, h.ProducerPlaced, orders.EventOrderPlaced, o.ID, orders.OrderPlacedPayload{
		OrderID:     o.ID,
		OrderCode:   o.Code,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount.String(),
		Delivery:    o.Delivery,
		Items:       toItemQtys(o.Items),
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":      "Order placed successfully",
		"order_code":   o.Code,
		"total_amount": o.TotalAmount,
		"order":        o,
	})
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id, _ := IdentityFrom(r.Context())
	out, err := h.Lifecycle.ListForUser(ctx, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) track(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	id, _ := IdentityFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first; a hit still checks ownership via the cached user id
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if raw, err := h.Redis.Get(ctx, key).Bytes(); err == nil {
		var entry orders.StatusCacheEntry
		if json.Unmarshal(raw, &entry) == nil && entry.UserID == id.UserID {
			writeJSON(w, http.StatusOK, orders.Tracking{OrderID: entry.OrderID, Status: entry.Status})
			return
		}
	}

	t, err := h.Lifecycle.Track(ctx, orderID, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	entry := orders.StatusCacheEntry{OrderID: t.OrderID, UserID: id.UserID, Status: t.Status}
	_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(entry), redisx.TTLStatusCache).Err()
	writeJSON(w, http.StatusOK, t)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	id, _ := IdentityFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Lifecycle.Cancel(ctx, orderID, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheStatus(ctx, o)
	h.publish(r, h.ProducerCancelled, orders.EventOrderCancelled, o.ID, orders.OrderCancelledPayload{
		OrderID:   o.ID,
		OrderCode: o.Code,
		UserID:    o.UserID,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Order cancelled successfully"})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Lifecycle.UpdateStatus(ctx, chi.URLParam(r, "id"), orders.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheStatus(ctx, o)
	h.publish(r, h.ProducerStatus, orders.EventOrderStatusUpdated, o.ID, orders.OrderStatusUpdatedPayload{
		OrderID: o.ID,
		Status:  o.Status,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Order status updated successfully"})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	entry := orders.StatusCacheEntry{OrderID: o.ID, UserID: o.UserID, Status: o.Status}
	_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(entry), redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) publish(r *http.Request, p *kafkax.Producer, eventType, orderID string, payload any) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func toItemQtys(items []orders.Item) []orders.ItemQty {
	out := make([]orders.ItemQty, 0, len(items))
	for _, it := range items {
		out = append(out, orders.ItemQty{ProductID: it.ProductID, Qty: it.Quantity})
	}
	return out
}
