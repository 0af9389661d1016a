package payments

import (
	"testing"

	"github.com/vaanya-sarees/storefront/internal/orders"
)

func pendingOrder() OrderSnapshot {
	return OrderSnapshot{
		ID:         "ord_1",
		UserID:     "usr_1",
		Status:     orders.StatusPending,
		TotalPaise: 549900,
		Currency:   "INR",
	}
}

func captured(amount int64, currency string) Event {
	return Event{
		EventID:   "evt_1",
		EventType: EventPaymentCaptured,
		Payload:   EventPayload{OrderID: "ord_1", PaymentID: "pay_1", AmountPaise: amount, Currency: currency},
	}
}

func TestDecideCapturedMatch(t *testing.T) {
	out := Decide(pendingOrder(), captured(549900, "INR"))
	if out.Action != ActionConfirm {
		t.Fatalf("expected ActionConfirm, got %v", out.Action)
	}
	if out.NextStatus != orders.StatusConfirmed || out.PaymentStatus != PaymentCaptured {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestDecideAmountMismatchParksOrder(t *testing.T) {
	out := Decide(pendingOrder(), captured(549800, "INR"))
	if out.Action != ActionFlag {
		t.Fatalf("expected ActionFlag, got %v", out.Action)
	}
	if out.NextStatus != orders.StatusPaymentReview || out.PaymentStatus != PaymentFlagged {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Reason != "amount_mismatch" {
		t.Fatalf("unexpected reason: %q", out.Reason)
	}
}

func TestDecideCurrencyMismatchParksOrder(t *testing.T) {
	out := Decide(pendingOrder(), captured(549900, "USD"))
	if out.Action != ActionFlag || out.Reason != "currency_mismatch" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestDecideFailedEvent(t *testing.T) {
	ev := Event{
		EventID:   "evt_2",
		EventType: EventPaymentFailed,
		Payload:   EventPayload{OrderID: "ord_1", FailureReason: "card_declined"},
	}
	out := Decide(pendingOrder(), ev)
	if out.Action != ActionFail || out.NextStatus != orders.StatusFailed {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Reason != "card_declined" {
		t.Fatalf("unexpected reason: %q", out.Reason)
	}

	ev.Payload.FailureReason = ""
	if out := Decide(pendingOrder(), ev); out.Reason != "payment_failed" {
		t.Fatalf("expected fallback reason, got %q", out.Reason)
	}
}

func TestDecideNonPendingOrdersAreAcked(t *testing.T) {
	for _, s := range []orders.Status{orders.StatusConfirmed, orders.StatusFailed, orders.StatusCancelled, orders.StatusPaymentReview} {
		o := pendingOrder()
		o.Status = s
		if out := Decide(o, captured(549900, "INR")); out.Action != ActionNone {
			t.Fatalf("status %s: expected ActionNone, got %v", s, out.Action)
		}
	}
}
