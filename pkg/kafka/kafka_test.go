package kafka

import (
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"

	"github.com/illegalcall/esgtracker/internal/config"
)

func TestBrokerList(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, brokerList(" a:9092, ,b:9092"))
	assert.Nil(t, brokerList(""))
}

func TestProducerConfig(t *testing.T) {
	c := producerConfig(config.KafkaConfig{RetryMax: 3, RetryBackoff: 250 * time.Millisecond})
	assert.True(t, c.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForAll, c.Producer.RequiredAcks)
	assert.Equal(t, 3, c.Producer.Retry.Max)
	assert.Equal(t, 250*time.Millisecond, c.Producer.Retry.Backoff)
	assert.NoError(t, c.Validate())
}

func TestConsumerConfig(t *testing.T) {
	c := consumerConfig()
	assert.Equal(t, sarama.OffsetOldest, c.Consumer.Offsets.Initial)
	assert.True(t, c.Consumer.Return.Errors)
	assert.NoError(t, c.Validate())
}
