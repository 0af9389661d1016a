package reviews

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/vaanya-sarees/storefront/internal/config"
	kafkax "github.com/vaanya-sarees/storefront/internal/kafka"
	"github.com/vaanya-sarees/storefront/internal/orders"
	"github.com/vaanya-sarees/storefront/internal/redisx"
)

// Moderator consumes submitted reviews, scores them and persists +
// publishes the verdict.
type Moderator struct {
	Repo        *Repo
	Rules       config.ModerationRules
	Redis       *redis.Client
	Producer    *kafkax.Producer // publishes review.moderated
	ServiceName string
}

// HandleReviewSubmitted is the consumer handler for the submitted topic.
func (m *Moderator) HandleReviewSubmitted(ctx context.Context, msg kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventReviewSubmitted {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "moderation", env.EventID)
	if seen, _ := redisx.Exists(ctx, m.Redis, dkey); seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.ReviewSubmittedPayload](env.Payload)
	if err != nil {
		return err
	}

	hist, err := m.Repo.History(ctx, p.UserID, m.Rules.ThrottleWindow.Std())
	if err != nil {
		return err
	}

	res := Score(m.Rules, Input{
		Rating:           p.Rating,
		Title:            p.Title,
		Body:             p.Body,
		ImageCount:       p.ImageCount,
		ImageBytesTotal:  p.ImageBytesTotal,
		VerifiedPurchase: p.VerifiedPurchase,
		History:          hist,
	})

	applied, err := m.Repo.SetVerdict(ctx, p.ReviewID, res.Score, res.Status, res.Reasons)
	if err != nil {
		return err
	}
	_ = m.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	if !applied {
		// already decided by an earlier delivery or a moderator
		return nil
	}

	log.Printf("review %s scored %.2f -> %s", p.ReviewID, res.Score, res.Status)
	m.publishModerated(p.ReviewID, p.ProductID, res, env.TraceID)
	return nil
}

func (m *Moderator) publishModerated(reviewID, productID string, res Result, traceID string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventReviewModerated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      m.ServiceName,
		TraceID:       traceID,
		CorrelationID: reviewID,
		Payload: kafkax.MustMarshal(orders.ReviewModeratedPayload{
			ReviewID:  reviewID,
			ProductID: productID,
			Status:    string(res.Status),
			RiskScore: res.Score,
			Reasons:   res.Reasons,
		}),
	}
	m.Producer.Publish(orders.PartitionKey(reviewID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventReviewModerated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
