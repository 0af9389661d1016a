package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/vaanya-sarees/storefront/internal/kafka"
	"github.com/vaanya-sarees/storefront/internal/orders"
	"github.com/vaanya-sarees/storefront/internal/redisx"
)

// Service reconciles payment webhook events against orders.
type Service struct {
	DB                *pgxpool.Pool
	Redis             *redis.Client
	ProducerConfirmed *kafkax.Producer
	ProducerFailed    *kafkax.Producer
	ProducerLowStock  *kafkax.Producer
	ServiceName       string
}

var ErrOrderNotFound = orders.ErrOrderNotFound

// lowStock is a variant that crossed its threshold during a decrement.
type lowStock struct {
	variantID string
	sku       string
	stock     int
	threshold int
}

// Process applies one verified webhook event: dedup, one transaction that
// locks the order, records the payment attempt, decrements inventory on a
// clean capture and moves the order status; then cache refresh and event
// publication after commit. Replays return nil so the gateway stops
// retrying.
func (s *Service) Process(ctx context.Context, ev Event, traceID string) error {
	dkey := fmt.Sprintf(redisx.KeyWebhookEvent, ev.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var snap OrderSnapshot
	err = tx.QueryRow(ctx, `SELECT id, user_id, status, total_paise, currency
	                        FROM orders WHERE id=$1 FOR UPDATE`, ev.Payload.OrderID).
		Scan(&snap.ID, &snap.UserID, &snap.Status, &snap.TotalPaise, &snap.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	out := Decide(snap, ev)
	if out.Action == ActionNone {
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLWebhookEvent).Err()
		return nil
	}

	paymentID := uuid.NewString()
	ct, err := tx.Exec(ctx, `
		INSERT INTO payments(id, order_id, provider_event_id, provider_payment_id,
		                     status, amount_paise, currency, method, failure_reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (provider_event_id) DO NOTHING`,
		paymentID, snap.ID, ev.EventID, ev.Payload.PaymentID,
		out.PaymentStatus, ev.Payload.AmountPaise, ev.Payload.Currency,
		ev.Payload.Method, out.Reason)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		// durable replay guard hit; nothing to do
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLWebhookEvent).Err()
		return nil
	}

	var low []lowStock
	if out.Action == ActionConfirm {
		if low, err = decrementStock(ctx, tx, snap.ID); err != nil {
			return err
		}
	}

	if !orders.CanTransition(snap.Status, out.NextStatus) {
		return fmt.Errorf("%w: %s -> %s", orders.ErrBadTransition, snap.Status, out.NextStatus)
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`,
		snap.ID, out.NextStatus); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLWebhookEvent).Err()
	s.afterCommit(ctx, snap, out, ev.Payload.PaymentID, traceID, low)
	return nil
}

// Resolve settles an order parked in PAYMENT_REVIEW. "confirm" performs the
// inventory decrement that was withheld when the capture was flagged;
// "cancel" releases nothing since stock was never taken.
func (s *Service) Resolve(ctx context.Context, orderID, action, traceID string) (orders.Status, error) {
	var next orders.Status
	switch action {
	case "confirm":
		next = orders.StatusConfirmed
	case "cancel":
		next = orders.StatusCancelled
	default:
		return "", fmt.Errorf("unknown action %q", action)
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var snap OrderSnapshot
	err = tx.QueryRow(ctx, `SELECT id, user_id, status, total_paise, currency
	                        FROM orders WHERE id=$1 FOR UPDATE`, orderID).
		Scan(&snap.ID, &snap.UserID, &snap.Status, &snap.TotalPaise, &snap.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	if !orders.CanTransition(snap.Status, next) {
		return "", fmt.Errorf("%w: %s -> %s", orders.ErrBadTransition, snap.Status, next)
	}

	var low []lowStock
	if next == orders.StatusConfirmed {
		if low, err = decrementStock(ctx, tx, snap.ID); err != nil {
			return "", err
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`,
		snap.ID, next); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}

	out := Outcome{NextStatus: next}
	if next == orders.StatusConfirmed {
		out.Action = ActionConfirm
	} else {
		out.Action = ActionFail
		out.Reason = "resolved_cancelled"
	}
	s.afterCommit(ctx, snap, out, "", traceID, low)
	return next, nil
}

// decrementStock takes the order's items out of variant stock under row
// locks, clamped at zero, and reports variants at or below threshold.
func decrementStock(ctx context.Context, tx pgx.Tx, orderID string) ([]lowStock, error) {
	rows, err := tx.Query(ctx, `
		SELECT oi.variant_id, oi.qty, v.sku, v.stock, v.low_stock_threshold
		FROM order_items oi
		JOIN variants v ON v.id = oi.variant_id
		WHERE oi.order_id = $1
		ORDER BY oi.variant_id
		FOR UPDATE OF v`, orderID)
	if err != nil {
		return nil, err
	}
	type item struct {
		variantID string
		qty       int
		sku       string
		stock     int
		threshold int
	}
	var items []item
	for rows.Next() {
		var it item
		if err := rows.Scan(&it.variantID, &it.qty, &it.sku, &it.stock, &it.threshold); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var low []lowStock
	for _, it := range items {
		remaining, crossed := decrement(it.stock, it.qty, it.threshold)
		if _, err := tx.Exec(ctx, `UPDATE variants SET stock=$2, updated_at=now() WHERE id=$1`,
			it.variantID, remaining); err != nil {
			return nil, err
		}
		if crossed {
			low = append(low, lowStock{variantID: it.variantID, sku: it.sku, stock: remaining, threshold: it.threshold})
		}
	}
	return low, nil
}

// decrement clamps stock at zero and reports whether this change took the
// variant from above its low-stock threshold to at or below it. A variant
// already at or below threshold stays quiet; the event fires once, on the
// crossing.
func decrement(stock, qty, threshold int) (remaining int, crossed bool) {
	remaining = stock - qty
	if remaining < 0 {
		remaining = 0
	}
	return remaining, stock > threshold && remaining <= threshold
}

func (s *Service) afterCommit(ctx context.Context, snap OrderSnapshot, out Outcome, providerPaymentID, traceID string, low []lowStock) {
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, snap.ID)
	_ = s.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, out.NextStatus), redisx.TTLStatusCache).Err()

	switch out.Action {
	case ActionConfirm:
		s.publish(s.ProducerConfirmed, orders.EventOrderConfirmed, snap.ID, traceID, orders.OrderConfirmedPayload{
			OrderID:     snap.ID,
			UserID:      snap.UserID,
			AmountPaise: snap.TotalPaise,
			Currency:    snap.Currency,
			PaymentID:   providerPaymentID,
		})
	case ActionFail:
		s.publish(s.ProducerFailed, orders.EventPaymentFailed, snap.ID, traceID, orders.PaymentFailedPayload{
			OrderID: snap.ID,
			UserID:  snap.UserID,
			Reason:  out.Reason,
		})
	}
	for _, l := range low {
		s.publish(s.ProducerLowStock, orders.EventInventoryLowStock, snap.ID, traceID, orders.LowStockPayload{
			VariantID: l.variantID,
			SKU:       l.sku,
			Stock:     l.stock,
			Threshold: l.threshold,
		})
	}
}

func (s *Service) publish(p *kafkax.Producer, eventType, correlationID, traceID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
