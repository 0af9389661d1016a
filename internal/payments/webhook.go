package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"

	// SignatureHeader carries hex(HMAC-SHA256(body, secret)).
	SignatureHeader = "X-Webhook-Signature"
)

var ErrBadEvent = errors.New("malformed webhook event")

// Event is a payment-gateway webhook notification.
type Event struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   EventPayload `json:"payload"`
}

type EventPayload struct {
	OrderID       string `json:"order_id"`
	PaymentID     string `json:"payment_id"`
	AmountPaise   int64  `json:"amount_paise"`
	Currency      string `json:"currency"`
	Method        string `json:"method,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Sign computes the signature the gateway is expected to send.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature compares in constant time.
func ValidSignature(secret, body []byte, sigHex string) bool {
	want, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

// ParseEvent decodes and validates a webhook body.
func ParseEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	if ev.EventID == "" || ev.Payload.OrderID == "" {
		return ev, fmt.Errorf("%w: missing event_id or order_id", ErrBadEvent)
	}
	switch ev.EventType {
	case EventPaymentCaptured:
		if ev.Payload.AmountPaise <= 0 || ev.Payload.Currency == "" {
			return ev, fmt.Errorf("%w: captured event without amount", ErrBadEvent)
		}
	case EventPaymentFailed:
	default:
		return ev, fmt.Errorf("%w: unknown event_type %q", ErrBadEvent, ev.EventType)
	}
	return ev, nil
}
