// Package dlq publishes an audit trail of dropped operations, generalized
// from the teacher's retry.DLQHandler: that handler republished a failed
// AMQP delivery verbatim, this one builds a structured record for an
// operation that never arrived as a delivery in the first place (it was
// read from a queue, not a channel).
package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ambros-labs/relayer/app/operation"
)

// DroppedRecord is the audit record published when the scheduler drops an
// operation (PendingOperationResult == Drop), so the decision is
// observable after the fact instead of silently vanishing.
type DroppedRecord struct {
	OperationID       string `json:"operation_id"`
	DestinationDomain uint32 `json:"destination_domain"`
	AppContext        string `json:"app_context"`
	Reason            string `json:"reason"`
	DroppedAtUnix     int64  `json:"dropped_at_unix"`
}

// Publisher publishes DroppedRecord values to a topic exchange, keyed
// "message.dropped.<domain>" per operation so consumers can subscribe to a
// single destination's drops.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
}

// NewPublisher declares exchange (a durable topic exchange) and returns a
// Publisher bound to it.
func NewPublisher(ch *amqp.Channel, exchange string) (*Publisher, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare dlq exchange: %w", err)
	}
	return &Publisher{ch: ch, exchange: exchange}, nil
}

// PublishDropped publishes a DroppedRecord for op, reason, and droppedAt
// (supplied by the caller's clock.Clock rather than read here, so the
// record's timestamp matches whatever clock drove the drop decision).
func (p *Publisher) PublishDropped(ctx context.Context, op operation.Operation, reason operation.Reason, droppedAt time.Time) error {
	rec := DroppedRecord{
		OperationID:       op.ID().String(),
		DestinationDomain: op.DestinationDomain(),
		AppContext:        op.AppContext(),
		Reason:            string(reason),
		DroppedAtUnix:     droppedAt.Unix(),
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal dropped record: %w", err)
	}

	routingKey := fmt.Sprintf("message.dropped.%d", rec.DestinationDomain)

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("failed to publish dropped record: %w", err)
	}
	return nil
}
