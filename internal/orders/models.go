package orders

import "time"

type Order struct {
	ID         string
	ClientRef  string
	UserID     string
	Status     Status
	TotalPaise int64
	Currency   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type OrderItem struct {
	ID         int64
	OrderID    string
	VariantID  string
	Qty        int
	PricePaise int64
}

type Payment struct {
	ID                string
	OrderID           string
	ProviderEventID   string
	ProviderPaymentID string
	Status            string // CAPTURED | FLAGGED | FAILED
	AmountPaise       int64
	Currency          string
	Method            string
	FailureReason     string
	CreatedAt         time.Time
}

// ExportRow is one order item flattened with its order for the admin
// spreadsheet export.
type ExportRow struct {
	OrderID    string
	ClientRef  string
	UserID     string
	Status     Status
	TotalPaise int64
	Currency   string
	SKU        string
	Qty        int
	PricePaise int64
	CreatedAt  time.Time
}
