package redisx

import "time"

const (
	// Idempotent checkout: idem:checkout:{client_ref} -> order_id
	KeyIdemCheckout = "idem:checkout:%s"

	// Order status read cache: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Webhook replay guard: webhook:event:{provider_event_id}
	KeyWebhookEvent = "webhook:event:%s"

	// Consumer dedup: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Review submission throttle: review:throttle:{user_id}:{product_id}
	KeyReviewThrottle = "review:throttle:%s:%s"

	// Product detail cache: product:{slug}
	KeyProductCache = "product:%s"
)

var (
	TTLIdempotency  = 24 * time.Hour
	TTLStatusCache  = 5 * time.Minute
	TTLWebhookEvent = 48 * time.Hour
	TTLDedup        = 48 * time.Hour
	TTLProductCache = 2 * time.Minute
)
