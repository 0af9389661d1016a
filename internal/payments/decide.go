package payments

import "github.com/vaanya-sarees/storefront/internal/orders"

// Payment row statuses.
const (
	PaymentCaptured = "CAPTURED"
	PaymentFlagged  = "FLAGGED"
	PaymentFailed   = "FAILED"
)

type Action int

const (
	// ActionNone acknowledges the event without touching the order
	// (terminal order, replay, or an event we do not act on).
	ActionNone Action = iota
	// ActionConfirm records the capture, decrements inventory and
	// confirms the order.
	ActionConfirm
	// ActionFlag records a capture whose amount or currency does not
	// match and parks the order for manual resolution.
	ActionFlag
	// ActionFail records the failure and fails the order.
	ActionFail
)

type OrderSnapshot struct {
	ID         string
	UserID     string
	Status     orders.Status
	TotalPaise int64
	Currency   string
}

type Outcome struct {
	Action        Action
	PaymentStatus string
	NextStatus    orders.Status
	Reason        string
}

// Decide maps a verified webhook event onto an order. The order is only
// confirmed when the captured amount matches the order total in paise and
// the currency matches; a mismatch is never silently dropped because money
// has already moved.
func Decide(o OrderSnapshot, ev Event) Outcome {
	if o.Status != orders.StatusPending {
		return Outcome{Action: ActionNone}
	}

	switch ev.EventType {
	case EventPaymentCaptured:
		if ev.Payload.Currency != o.Currency {
			return Outcome{
				Action:        ActionFlag,
				PaymentStatus: PaymentFlagged,
				NextStatus:    orders.StatusPaymentReview,
				Reason:        "currency_mismatch",
			}
		}
		if ev.Payload.AmountPaise != o.TotalPaise {
			return Outcome{
				Action:        ActionFlag,
				PaymentStatus: PaymentFlagged,
				NextStatus:    orders.StatusPaymentReview,
				Reason:        "amount_mismatch",
			}
		}
		return Outcome{
			Action:        ActionConfirm,
			PaymentStatus: PaymentCaptured,
			NextStatus:    orders.StatusConfirmed,
		}
	case EventPaymentFailed:
		reason := ev.Payload.FailureReason
		if reason == "" {
			reason = "payment_failed"
		}
		return Outcome{
			Action:        ActionFail,
			PaymentStatus: PaymentFailed,
			NextStatus:    orders.StatusFailed,
			Reason:        reason,
		}
	default:
		return Outcome{Action: ActionNone}
	}
}
