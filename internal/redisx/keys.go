package redisx

import "time"

const (
	// Auth token lookup: auth:token:{token} -> {"user_id": "...", "admin": bool}
	KeyAuthToken = "auth:token:%s"

	// Cache of order status: order_status:{order_id} -> {"order_id": "...", "status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
