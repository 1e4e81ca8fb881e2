package testutil

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"

	pkgkafka "github.com/pawnline/loanengine/pkg/kafka"
)

// KafkaContainer is a single-broker Kafka owned by one test.
type KafkaContainer struct {
	Container *kafka.KafkaContainer
	Brokers   []string
}

// StartKafka starts a Kafka container with the given single-partition topics
// already created, and terminates it when the test ends. It skips the test
// in -short mode.
func StartKafka(t *testing.T, topics ...string) *KafkaContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("kafka container skipped in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.6.1",
		kafka.WithClusterID("loanengine-test"),
	)
	if err != nil {
		t.Fatalf("start kafka container: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	if err != nil {
		t.Fatalf("kafka brokers: %v", err)
	}
	kc := &KafkaContainer{Container: container, Brokers: brokers}
	kc.createTopics(t, topics...)
	return kc
}

// Config returns a client config for the container. Consumers join group.
func (kc *KafkaContainer) Config(group string) pkgkafka.Config {
	return pkgkafka.Config{
		Brokers:       kc.Brokers,
		ConsumerGroup: group,
		MaxAttempts:   3,
		RetryBackoff:  50 * time.Millisecond,
	}
}

func (kc *KafkaContainer) createTopics(t *testing.T, topics ...string) {
	t.Helper()
	if len(topics) == 0 {
		return
	}

	conn, err := kafkago.Dial("tcp", kc.Brokers[0])
	if err != nil {
		t.Fatalf("dial kafka: %v", err)
	}
	defer conn.Close()

	configs := make([]kafkago.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	}
	if err := conn.CreateTopics(configs...); err != nil {
		t.Fatalf("create topics %v: %v", topics, err)
	}
}
