package kafka

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/illegalcall/esgtracker/internal/config"
)

const (
	maxRetries = 10
	retryDelay = 3 * time.Second
)

func waitForKafka(brokers []string) error {
	for i := 0; i < maxRetries; i++ {
		c := sarama.NewConfig()
		c.Net.DialTimeout = 1 * time.Second
		client, err := sarama.NewClient(brokers, c)
		if err == nil {
			client.Close()
			return nil
		}
		slog.Info("Waiting for Kafka to be ready...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	return fmt.Errorf("kafka not available after %d attempts", maxRetries)
}

// NewProducer returns a synchronous producer. Events are keyed by user so
// the hash partitioner keeps one user's events in order.
func NewProducer(cfg config.KafkaConfig) (sarama.SyncProducer, error) {
	brokers := brokerList(cfg.Broker)
	if err := waitForKafka(brokers); err != nil {
		return nil, err
	}

	return sarama.NewSyncProducer(brokers, producerConfig(cfg))
}

func producerConfig(cfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()
	c.Producer.Return.Successes = true
	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Producer.Partitioner = sarama.NewHashPartitioner
	c.Producer.Retry.Max = cfg.RetryMax
	c.Producer.Retry.Backoff = cfg.RetryBackoff
	return c
}

func NewConsumer(cfg config.KafkaConfig) (sarama.ConsumerGroup, error) {
	brokers := brokerList(cfg.Broker)
	if err := waitForKafka(brokers); err != nil {
		return nil, err
	}

	return sarama.NewConsumerGroup(brokers, cfg.Group, consumerConfig())
}

func consumerConfig() *sarama.Config {
	c := sarama.NewConfig()
	c.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	c.Consumer.Offsets.Initial = sarama.OffsetOldest
	c.Consumer.Return.Errors = true
	return c
}

// brokerList splits a comma separated KAFKA_BROKER value.
func brokerList(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
