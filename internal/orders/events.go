package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderConfirmed    = "OrderConfirmed"
	EventPaymentFailed     = "PaymentFailed"
	EventInventoryLowStock = "InventoryLowStock"
	EventReviewSubmitted   = "ReviewSubmitted"
	EventReviewModerated   = "ReviewModerated"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// ---- payloads ----

type OrderConfirmedPayload struct {
	OrderID     string `json:"order_id"`
	UserID      string `json:"user_id"`
	AmountPaise int64  `json:"amount_paise"`
	Currency    string `json:"currency"`
	PaymentID   string `json:"payment_id"`
}

type PaymentFailedPayload struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Reason  string `json:"reason"`
}

type LowStockPayload struct {
	VariantID string `json:"variant_id"`
	SKU       string `json:"sku"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}

type ReviewSubmittedPayload struct {
	ReviewID         string `json:"review_id"`
	ProductID        string `json:"product_id"`
	UserID           string `json:"user_id"`
	Rating           int    `json:"rating"`
	Title            string `json:"title"`
	Body             string `json:"body"`
	ImageCount       int    `json:"image_count"`
	ImageBytesTotal  int64  `json:"image_bytes_total"`
	VerifiedPurchase bool   `json:"verified_purchase"`
}

type ReviewModeratedPayload struct {
	ReviewID  string   `json:"review_id"`
	ProductID string   `json:"product_id"`
	Status    string   `json:"status"` // APPROVED | REJECTED | MANUAL_REVIEW
	RiskScore float64  `json:"risk_score"`
	Reasons   []string `json:"reasons,omitempty"`
}
