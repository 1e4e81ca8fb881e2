package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Handler processes a consumed Kafka message.
type Handler func(ctx context.Context, msg Message) error

// Consumer reads one topic within a consumer group and commits each message
// once its handler has succeeded or exhausted its attempts. Messages of a
// partition are handled strictly in order: a failing message is retried in
// place rather than skipped, so a later commit can never jump over it.
type Consumer struct {
	reader      *kafkago.Reader
	handler     Handler
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
}

// NewConsumer creates a new Consumer for the given topic with the provided handler.
func NewConsumer(cfg Config, topic string, handler Handler, logger *slog.Logger) *Consumer {
	readerCfg := kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10 * 1024 * 1024, // 10 MB
	}
	if cfg.secured() {
		readerCfg.Dialer = cfg.dialer()
	}

	c := newConsumer(handler, logger, cfg.MaxAttempts, cfg.RetryBackoff)
	c.reader = kafkago.NewReader(readerCfg)
	return c
}

func newConsumer(handler Handler, logger *slog.Logger, maxAttempts int, backoff time.Duration) *Consumer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Consumer{
		handler:     handler,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// Start begins consuming messages. Blocks until the context is canceled,
// which is not an error.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer starting", "topic", c.reader.Config().Topic, "group", c.reader.Config().GroupID)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if isCanceled(err) {
				c.logger.Info("consumer stopping due to context cancellation")
				return nil
			}
			return fmt.Errorf("fetching message: %w", err)
		}

		if err := c.deliver(ctx, fromKafkaMessage(m)); err != nil {
			// Only cancellation ends delivery early; the offset stays
			// uncommitted and the group redelivers after restart.
			c.logger.Info("consumer stopping mid-message", "offset", m.Offset)
			return nil
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if isCanceled(err) {
				return nil
			}
			c.logger.Error("commit error",
				"topic", m.Topic,
				"partition", m.Partition,
				"offset", m.Offset,
				"error", err,
			)
		}
	}
}

// deliver runs the handler until it succeeds or runs out of attempts. It
// returns an error only when ctx ends while waiting to retry.
func (c *Consumer) deliver(ctx context.Context, msg Message) error {
	for attempt := 1; ; attempt++ {
		err := c.handler(ctx, msg)
		if err == nil {
			return nil
		}
		if attempt >= c.maxAttempts {
			c.logger.Error("giving up on message",
				"key", string(msg.Key),
				"attempts", attempt,
				"error", err,
			)
			return nil
		}
		c.logger.Warn("handler error, retrying",
			"key", string(msg.Key),
			"attempt", attempt,
			"error", err,
		)

		timer := time.NewTimer(time.Duration(attempt) * c.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Close closes the reader.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("closing kafka reader: %w", err)
	}
	return nil
}

func fromKafkaMessage(m kafkago.Message) Message {
	msg := Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
