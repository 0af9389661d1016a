package payments

import (
	"errors"
	"testing"
)

func TestValidSignature(t *testing.T) {
	secret := []byte("whsec_test")
	body := []byte(`{"event_id":"evt_1"}`)

	sig := Sign(secret, body)
	if !ValidSignature(secret, body, sig) {
		t.Fatal("expected signature to verify")
	}
	if ValidSignature(secret, []byte(`{"event_id":"evt_2"}`), sig) {
		t.Fatal("signature verified against a different body")
	}
	if ValidSignature([]byte("other"), body, sig) {
		t.Fatal("signature verified with a different secret")
	}
	if ValidSignature(secret, body, "zz-not-hex") {
		t.Fatal("non-hex signature accepted")
	}
	if ValidSignature(secret, body, "") {
		t.Fatal("empty signature accepted")
	}
}

func TestParseEvent(t *testing.T) {
	good := []byte(`{
		"event_id": "evt_1",
		"event_type": "payment.captured",
		"payload": {"order_id": "ord_1", "payment_id": "pay_1", "amount_paise": 249900, "currency": "INR", "method": "upi"}
	}`)
	ev, err := ParseEvent(good)
	if err != nil {
		t.Fatalf("ParseEvent returned error: %v", err)
	}
	if ev.Payload.AmountPaise != 249900 || ev.Payload.OrderID != "ord_1" {
		t.Fatalf("unexpected payload: %+v", ev.Payload)
	}

	bad := [][]byte{
		[]byte(`not json`),
		[]byte(`{"event_type":"payment.captured","payload":{"order_id":"o","amount_paise":1,"currency":"INR"}}`), // no event_id
		[]byte(`{"event_id":"e","event_type":"payment.captured","payload":{"amount_paise":1,"currency":"INR"}}`), // no order_id
		[]byte(`{"event_id":"e","event_type":"payment.captured","payload":{"order_id":"o","currency":"INR"}}`),   // no amount
		[]byte(`{"event_id":"e","event_type":"payment.refunded","payload":{"order_id":"o"}}`),                    // unknown type
	}
	for i, b := range bad {
		if _, err := ParseEvent(b); !errors.Is(err, ErrBadEvent) {
			t.Fatalf("case %d: expected ErrBadEvent, got %v", i, err)
		}
	}

	failed := []byte(`{"event_id":"e","event_type":"payment.failed","payload":{"order_id":"o","failure_reason":"insufficient_funds"}}`)
	if _, err := ParseEvent(failed); err != nil {
		t.Fatalf("failed event should parse without amount: %v", err)
	}
}
