package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/model"
	pkgkafka "github.com/pawnline/loanengine/pkg/kafka"
)

// PaymentEventProcessor handles one decoded payment mutation.
type PaymentEventProcessor interface {
	Execute(ctx context.Context, evt dto.PaymentEvent) error
}

// NewPaymentEventHandler adapts a PaymentEventProcessor to a consumer
// handler. Messages that can never succeed (bad JSON, unknown loan) are
// logged and acknowledged; anything else is returned so the consumer retries
// the message before moving past it.
func NewPaymentEventHandler(processor PaymentEventProcessor, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		var evt dto.PaymentEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.WarnContext(ctx, "dropping malformed payment event",
				"key", string(msg.Key),
				"error", err,
			)
			return nil
		}

		err := processor.Execute(ctx, evt)
		switch {
		case err == nil:
			return nil
		case model.IsValidationError(err), errors.Is(err, model.ErrNotFound):
			logger.WarnContext(ctx, "dropping payment event",
				"payment_id", evt.PaymentID,
				"loan_id", evt.LoanID,
				"error", err,
			)
			return nil
		default:
			return err
		}
	}
}
