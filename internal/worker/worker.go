package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/tidwall/gjson"

	"github.com/illegalcall/esgtracker/internal/config"
	"github.com/illegalcall/esgtracker/internal/jobs"
	"github.com/illegalcall/esgtracker/internal/models"
)

var ErrUnknownEvent = errors.New("unknown event type")

type Worker struct {
	cfg       *config.Config
	handlers  map[models.EventType]jobs.JobHandlerFunc
	consumer  sarama.ConsumerGroup
	ready     chan bool
	readyOnce sync.Once
}

func NewWorker(cfg *config.Config, handlers map[models.EventType]jobs.JobHandlerFunc, consumer sarama.ConsumerGroup) *Worker {
	slog.Info("Initializing new Worker", "handlers", len(handlers))
	return &Worker{
		cfg:      cfg,
		handlers: handlers,
		consumer: consumer,
		ready:    make(chan bool),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	topics := []string{w.cfg.Kafka.Topic}
	slog.Info("Starting worker", "topics", topics)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for err := range w.consumer.Errors() {
			slog.Error("Kafka consumer error received", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := w.consumer.Consume(ctx, topics, w); err != nil {
				slog.Error("Error from consumer.Consume", "error", err)
			}
			if ctx.Err() != nil {
				slog.Info("Context done, exiting consumer loop", "error", ctx.Err())
				return
			}
		}
	}()

	select {
	case <-w.ready:
		slog.Info("Worker setup complete; consumer ready")
	case <-ctx.Done():
	}

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("Context cancelled; shutting down worker")
	}

	cancel()
	<-done
	slog.Info("Worker shut down gracefully")
	return nil
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	slog.Info("Consumer group session setup complete")
	w.readyOnce.Do(func() { close(w.ready) })
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	slog.Info("Consumer group session cleanup complete")
	return nil
}

// ConsumeClaim drains the claim. Failed events are logged and still marked;
// handlers are not retried.
func (w *Worker) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := w.processEvent(session.Context(), message); err != nil {
			slog.Error("Failed to process event", "offset", message.Offset, "partition", message.Partition, "error", err)
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func (w *Worker) processEvent(ctx context.Context, msg *sarama.ConsumerMessage) error {
	eventType := models.EventType(gjson.GetBytes(msg.Value, "type").String())
	handler, ok := w.handlers[eventType]
	if !ok {
		slog.Warn("Skipping event without handler", "type", eventType, "offset", msg.Offset)
		return fmt.Errorf("%w: %q", ErrUnknownEvent, eventType)
	}

	result, err := handler(ctx, msg.Value)
	if err != nil {
		return fmt.Errorf("event %s: %w", eventType, err)
	}
	slog.Info("Event processed", "type", eventType, "offset", msg.Offset, "metadata", result.Metadata)
	return nil
}
