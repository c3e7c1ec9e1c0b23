package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"feedback/pkg/logger"
	"feedback/pkg/metrics"
	"feedback/rating-worker-service/internal/app/rating/entity"
	"feedback/rating-worker-service/internal/app/rating/service"

	"github.com/segmentio/kafka-go"
)

const serviceName = "rating-worker-service"

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer читает события отзывов из всех топиков в одной consumer group.
// Offset коммитится только после применения события или если сообщение битое.
type KafkaConsumer struct {
	reader       messageReader
	ratingSvc    service.RatingServiceInterface
	groupID      string
	retryBackoff time.Duration
	cancel       context.CancelFunc
	doneChan     chan struct{}
}

func NewKafkaConsumer(
	brokers []string,
	topics []string,
	groupID string,
	minBytes int,
	maxBytes int,
	retryBackoff time.Duration,
	ratingSvc service.RatingServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupTopics:    topics,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.FirstOffset,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return newKafkaConsumer(reader, groupID, retryBackoff, ratingSvc)
}

func newKafkaConsumer(reader messageReader, groupID string, retryBackoff time.Duration, ratingSvc service.RatingServiceInterface) *KafkaConsumer {
	return &KafkaConsumer{
		reader:       reader,
		ratingSvc:    ratingSvc,
		groupID:      groupID,
		retryBackoff: retryBackoff,
		doneChan:     make(chan struct{}),
	}
}

func (c *KafkaConsumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	logger.Info().Str("group_id", c.groupID).Msg("Starting Kafka consumer")
	go c.consume(ctx)
}

// Stop дожидается завершения обработки текущего сообщения
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer...")
	if c.cancel != nil {
		c.cancel()
		<-c.doneChan
	}
	if err := c.reader.Close(); err != nil {
		logger.Error().Err(err).Msg("Error closing Kafka reader")
	}
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.RecordKafkaError(serviceName, "", "fetch")
			logger.Error().Err(err).Msg("Error fetching message")
			if !c.sleep(ctx) {
				return
			}
			continue
		}

		if !c.handle(ctx, message) {
			return
		}

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			metrics.RecordKafkaError(serviceName, message.Topic, "commit")
			logger.Error().
				Err(err).
				Str("topic", message.Topic).
				Int64("offset", message.Offset).
				Msg("Error committing message")
		}
	}
}

// handle повторяет обработку до успеха; false означает остановку consumer
func (c *KafkaConsumer) handle(ctx context.Context, message kafka.Message) bool {
	start := time.Now()

	for attempt := 1; ; attempt++ {
		err := c.processMessage(ctx, message)
		if err == nil {
			metrics.RecordKafkaMessageConsumed(serviceName, message.Topic, c.groupID, time.Since(start))
			return true
		}

		if errors.Is(err, entity.ErrInvalidEvent) {
			metrics.RecordKafkaError(serviceName, message.Topic, "decode")
			logger.Error().
				Err(err).
				Str("topic", message.Topic).
				Int("partition", message.Partition).
				Int64("offset", message.Offset).
				Msg("Skipping malformed review event")
			return true
		}

		metrics.RecordKafkaError(serviceName, message.Topic, "process")
		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("topic", message.Topic).
			Int64("offset", message.Offset).
			Msg("Failed to process review event, retrying...")

		if !c.sleep(ctx) {
			return false
		}
	}
}

func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ReviewEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidEvent, err)
	}

	logger.Debug().
		Str("event_id", event.EventID.String()).
		Str("event_type", string(event.Type)).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received review event")

	if _, err := c.ratingSvc.HandleEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to handle %s event: %w", event.Type, err)
	}

	return nil
}

func (c *KafkaConsumer) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.retryBackoff):
		return true
	}
}
