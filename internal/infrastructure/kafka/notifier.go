package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/time/rate"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	pkgkafka "github.com/pawnline/loanengine/pkg/kafka"
)

var _ port.Notifier = (*Notifier)(nil)

// Notifier hands notification intents to the delivery service over Kafka.
// A full accrual run can emit thousands of intents at once, so writes are
// throttled to the rate the delivery side accepts.
type Notifier struct {
	producer pkgkafka.Publisher
	topic    string
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewNotifier creates a notifier writing at most perSecond intents per
// second with the given burst. A non-positive rate disables throttling.
func NewNotifier(producer pkgkafka.Publisher, topic string, perSecond float64, burst int, logger *slog.Logger) *Notifier {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Notifier{
		producer: producer,
		topic:    topic,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger,
	}
}

// Notify publishes each intent, keyed by recipient.
func (n *Notifier) Notify(ctx context.Context, intents ...model.NotificationIntent) error {
	if len(intents) == 0 {
		return nil
	}

	messages := make([]pkgkafka.Message, 0, len(intents))
	for _, in := range intents {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal intent %s: %w", in.Kind, err)
		}
		messages = append(messages, pkgkafka.Message{
			Key:   []byte(string(in.Recipient.Role) + ":" + in.Recipient.ID),
			Value: payload,
			Headers: map[string]string{
				"kind":    string(in.Kind),
				"loan_id": in.LoanID,
			},
		})
	}

	n.logger.DebugContext(ctx, "dispatching notifications", "count", len(messages), "topic", n.topic)
	for batch := range slices.Chunk(messages, n.limiter.Burst()) {
		if err := n.limiter.WaitN(ctx, len(batch)); err != nil {
			return fmt.Errorf("notification throttle: %w", err)
		}
		if err := n.producer.Publish(ctx, n.topic, batch...); err != nil {
			return fmt.Errorf("publish notifications to topic %s: %w", n.topic, err)
		}
	}
	return nil
}
