package orders

const (
	TopicOrderConfirmed    = "order.confirmed"
	TopicOrderPaymentFail  = "order.payment.failed"
	TopicInventoryLowStock = "inventory.low_stock"
	TopicReviewSubmitted   = "review.submitted"
	TopicReviewModerated   = "review.moderated"
)

// Partition key keeps all events of one entity in order.
func PartitionKey(id string) []byte { return []byte(id) }
