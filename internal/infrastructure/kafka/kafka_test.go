package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/event"
	"github.com/pawnline/loanengine/internal/domain/model"
	pkgkafka "github.com/pawnline/loanengine/pkg/kafka"
	"github.com/pawnline/loanengine/pkg/testutil"
)

type fakeProducer struct {
	mu      sync.Mutex
	err     error
	batches map[string][][]pkgkafka.Message
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{batches: make(map[string][][]pkgkafka.Message)}
}

func (f *fakeProducer) Publish(_ context.Context, topic string, messages ...pkgkafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches[topic] = append(f.batches[topic], messages)
	return nil
}

func (f *fakeProducer) messages(topic string) []pkgkafka.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pkgkafka.Message
	for _, b := range f.batches[topic] {
		out = append(out, b...)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// EventPublisher
// ---------------------------------------------------------------------------

func TestEventPublisher_Publish(t *testing.T) {
	producer := newFakeProducer()
	pub := NewEventPublisher(producer, "loanengine.loan-events", discardLogger())

	opened := event.NewLoanOpened(testutil.TestLoanID, testutil.TestBranchID, testutil.TestCustomerID, testutil.TestItemID,
		testutil.Dec("1000"), testutil.Dec("1100"), testutil.TestToday.AddDate(0, 1, 0), testutil.TestToday)

	require.NoError(t, pub.Publish(context.Background(), opened))

	msgs := producer.messages("loanengine.loan-events")
	require.Len(t, msgs, 1)
	assert.Equal(t, testutil.TestLoanID, string(msgs[0].Key))
	assert.Equal(t, "loanengine.loan.opened", msgs[0].Headers["event_type"])
	assert.Equal(t, opened.EventID(), msgs[0].Headers["event_id"])
	assert.Equal(t, testutil.TestBranchID, msgs[0].Headers["branch_id"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Value, &decoded))
	assert.Equal(t, "1100", decoded["total_amount"])
}

func TestEventPublisher_NoEvents(t *testing.T) {
	producer := newFakeProducer()
	pub := NewEventPublisher(producer, "topic", discardLogger())

	require.NoError(t, pub.Publish(context.Background()))
	assert.Empty(t, producer.messages("topic"))
}

func TestEventPublisher_ProducerError(t *testing.T) {
	producer := newFakeProducer()
	producer.err = errors.New("broker down")
	pub := NewEventPublisher(producer, "topic", discardLogger())

	opened := event.NewLoanOpened(testutil.TestLoanID, testutil.TestBranchID, testutil.TestCustomerID, testutil.TestItemID,
		testutil.Dec("1"), testutil.Dec("1"), testutil.TestToday, testutil.TestToday)
	err := pub.Publish(context.Background(), opened)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

// ---------------------------------------------------------------------------
// Notifier
// ---------------------------------------------------------------------------

func intent(i int) model.NotificationIntent {
	return model.NotificationIntent{
		Kind:      model.NotifyMinimumPaymentAtRisk,
		Recipient: model.Recipient{Role: model.RecipientCustomer, ID: fmt.Sprintf("customer-%d", i)},
		LoanID:    fmt.Sprintf("loan-%d", i),
		Payload:   map[string]string{"minimum_monthly_payment": "100.00"},
	}
}

func TestNotifier_Notify(t *testing.T) {
	producer := newFakeProducer()
	n := NewNotifier(producer, "loanengine.notifications", 0, 10, discardLogger())

	require.NoError(t, n.Notify(context.Background(), intent(1), intent(2)))

	msgs := producer.messages("loanengine.notifications")
	require.Len(t, msgs, 2)
	assert.Equal(t, "customer:customer-1", string(msgs[0].Key))
	assert.Equal(t, "minimum_payment_at_risk", msgs[0].Headers["kind"])
	assert.Equal(t, "loan-1", msgs[0].Headers["loan_id"])

	var decoded model.NotificationIntent
	require.NoError(t, json.Unmarshal(msgs[1].Value, &decoded))
	assert.Equal(t, intent(2), decoded)
}

func TestNotifier_BatchesByBurst(t *testing.T) {
	producer := newFakeProducer()
	n := NewNotifier(producer, "topic", 1000, 2, discardLogger())

	require.NoError(t, n.Notify(context.Background(), intent(1), intent(2), intent(3), intent(4), intent(5)))

	assert.Len(t, producer.batches["topic"], 3)
	assert.Len(t, producer.messages("topic"), 5)
}

func TestNotifier_CancelledWhileThrottled(t *testing.T) {
	producer := newFakeProducer()
	n := NewNotifier(producer, "topic", 0.001, 1, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, n.Notify(ctx, intent(1)))
	cancel()

	err := n.Notify(ctx, intent(2))
	require.Error(t, err)
	assert.Len(t, producer.messages("topic"), 1)
}

// ---------------------------------------------------------------------------
// Payment event handler
// ---------------------------------------------------------------------------

type processorFunc func(ctx context.Context, evt dto.PaymentEvent) error

func (f processorFunc) Execute(ctx context.Context, evt dto.PaymentEvent) error { return f(ctx, evt) }

func TestPaymentEventHandler(t *testing.T) {
	valid := []byte(`{"payment_id":"p-1","loan_id":"l-1","action":"created","status":"completed","amount":"150.00","payment_date":"2025-06-14T10:00:00Z"}`)

	tests := []struct {
		name    string
		value   []byte
		procErr error
		wantErr bool
		called  bool
	}{
		{name: "processed", value: valid, called: true},
		{name: "malformed json is dropped", value: []byte(`{not json`)},
		{name: "validation error is dropped", value: valid, procErr: model.NewValidationError("loan_id", "is required"), called: true},
		{name: "unknown loan is dropped", value: valid, procErr: fmt.Errorf("find loan: %w", model.ErrNotFound), called: true},
		{name: "transient error is retried", value: valid, procErr: errors.New("db unavailable"), wantErr: true, called: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *dto.PaymentEvent
			handler := NewPaymentEventHandler(processorFunc(func(_ context.Context, evt dto.PaymentEvent) error {
				got = &evt
				return tt.procErr
			}), discardLogger())

			err := handler(context.Background(), pkgkafka.Message{Key: []byte("l-1"), Value: tt.value})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if !tt.called {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, "l-1", got.LoanID)
			assert.Equal(t, dto.PaymentCreated, got.Action)
			testutil.AssertDecimal(t, "150", got.Amount)
		})
	}
}
