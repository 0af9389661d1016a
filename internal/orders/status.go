package orders

type Status string

const (
	StatusPending       Status = "PENDING"
	StatusConfirmed     Status = "CONFIRMED"
	StatusPaymentReview Status = "PAYMENT_REVIEW"
	StatusFailed        Status = "FAILED"
	StatusCancelled     Status = "CANCELLED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:       {StatusConfirmed: true, StatusPaymentReview: true, StatusFailed: true, StatusCancelled: true},
	StatusPaymentReview: {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:     {},
	StatusFailed:        {},
	StatusCancelled:     {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
