package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pawnline/loanengine/internal/domain/event"
	"github.com/pawnline/loanengine/internal/domain/port"
	pkgkafka "github.com/pawnline/loanengine/pkg/kafka"
)

var _ port.EventPublisher = (*EventPublisher)(nil)

// EventPublisher implements port.EventPublisher by writing domain events to
// the loan-events topic, keyed by aggregate so one loan stays on one partition.
type EventPublisher struct {
	producer pkgkafka.Publisher
	topic    string
	logger   *slog.Logger
}

// NewEventPublisher creates a publisher targeting the given producer and topic.
func NewEventPublisher(producer pkgkafka.Publisher, topic string, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish serialises and sends domain events.
func (p *EventPublisher) Publish(ctx context.Context, events ...event.DomainEvent) error {
	messages := make([]pkgkafka.Message, 0, len(events))
	for _, evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", evt.EventType(), err)
		}

		p.logger.DebugContext(ctx, "publishing domain event",
			"event_type", evt.EventType(),
			"aggregate_id", evt.AggregateID(),
			"branch_id", evt.BranchID(),
			"topic", p.topic,
		)

		messages = append(messages, pkgkafka.Message{
			Key:   []byte(evt.AggregateID()),
			Value: payload,
			Headers: map[string]string{
				"event_type":     evt.EventType(),
				"event_id":       evt.EventID(),
				"aggregate_type": evt.AggregateType(),
				"branch_id":      evt.BranchID(),
			},
		})
	}

	if len(messages) == 0 {
		return nil
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("publish events to topic %s: %w", p.topic, err)
	}
	return nil
}
