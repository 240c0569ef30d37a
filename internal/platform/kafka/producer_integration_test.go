//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"escena/internal/platform/config"
	"escena/internal/platform/kafka"
	"escena/pkg/testutil/containers"
)

func TestProducer_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.GetManager().GetRedpanda(t).Broker
	topic := "escena.audit.test"

	producer, err := kafka.NewProducer(config.KafkaConfig{Brokers: []string{broker}, AuditTopic: topic})
	require.NoError(t, err)
	require.NotNil(t, producer)
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, producer.Health(ctx))
	require.NoError(t, producer.Produce(ctx, []byte("user-1"), []byte(`{"action":"claim_approved"}`)))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.NotEmpty(t, records)
	require.Equal(t, "user-1", string(records[0].Key))
}
