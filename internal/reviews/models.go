package reviews

import "time"

type Status string

const (
	StatusPending      Status = "PENDING"
	StatusApproved     Status = "APPROVED"
	StatusRejected     Status = "REJECTED"
	StatusManualReview Status = "MANUAL_REVIEW"
)

type Review struct {
	ID               string     `json:"id"`
	ProductID        string     `json:"product_id"`
	UserID           string     `json:"user_id"`
	Rating           int        `json:"rating"`
	Title            string     `json:"title"`
	Body             string     `json:"body"`
	ImageCount       int        `json:"image_count"`
	ImageBytesTotal  int64      `json:"image_bytes_total"`
	Status           Status     `json:"status"`
	RiskScore        *float64   `json:"risk_score,omitempty"`
	VerdictReasons   []string   `json:"verdict_reasons,omitempty"`
	VerifiedPurchase bool       `json:"verified_purchase"`
	CreatedAt        time.Time  `json:"created_at"`
	DecidedAt        *time.Time `json:"decided_at,omitempty"`
}

// UserHistory are the per-author signals the scorer weighs.
type UserHistory struct {
	TotalReviews        int
	RejectedReviews     int
	ConfirmedOrders     int
	SubmissionsInWindow int
}
