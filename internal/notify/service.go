package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/electrohub/shop-api/internal/kafka"
	"github.com/electrohub/shop-api/internal/orders"
	"github.com/electrohub/shop-api/internal/redisx"
)

// Service consumes order events and keeps the redis status cache warm so
// tracking reads rarely touch the database.
type Service struct {
	Redis       *redis.Client
	ServiceName string
	Log         *slog.Logger
}

// HandleOrderEvent is wired as the consumer handler for every order topic.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup by event_id; consumers may see redeliveries
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case orders.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.logger().Info("order placed", "order_id", p.OrderID, "order_code", p.OrderCode, "total", p.TotalAmount)
		return s.cacheStatus(ctx, p.OrderID, p.UserID, orders.StatusPending)

	case orders.EventOrderCancelled:
		p, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](env.Payload)
		if err != nil {
			return err
		}
		s.logger().Info("order cancelled", "order_id", p.OrderID, "order_code", p.OrderCode)
		return s.cacheStatus(ctx, p.OrderID, p.UserID, orders.StatusCancelled)

	case orders.EventOrderStatusUpdated:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusUpdatedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.logger().Info("order status updated", "order_id", p.OrderID, "status", p.Status)
		// the status event carries no owner; only refresh an entry we
		// already hold, so ownership data is never lost
		key := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
		raw, err := s.Redis.Get(ctx, key).Bytes()
		if err != nil {
			return nil
		}
		var entry orders.StatusCacheEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil
		}
		return s.cacheStatus(ctx, p.OrderID, entry.UserID, p.Status)
	}
	return nil // unknown event types are ignored
}

func (s *Service) cacheStatus(ctx context.Context, orderID, userID string, status orders.Status) error {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	val := kafkax.MustMarshal(orders.StatusCacheEntry{OrderID: orderID, UserID: userID, Status: status})
	return s.Redis.Set(ctx, key, val, redisx.TTLStatusCache).Err()
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
