package messaging

import (
	"context"
	"fmt"
	"time"

	"feedback/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const serviceName = "feedback-service"

// messageWriter часть kafka.Writer, нужная продюсеру
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer messageWriter
}

// NewKafkaProducer создает продюсер без фиксированного топика.
// Запись считается успешной только после подтверждения всеми репликами.
func NewKafkaProducer(brokers []string, batchTimeout time.Duration) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}

	return &KafkaProducer{writer: writer}
}

// PublishMessage пишет одно сообщение в topic; одинаковый key попадает в одну партицию
func (p *KafkaProducer) PublishMessage(ctx context.Context, topic, key string, value []byte) error {
	timer := metrics.NewKafkaProduceTimer(serviceName, topic)

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		timer.Error()
		return fmt.Errorf("failed to write message to kafka topic %s: %w", topic, err)
	}

	timer.Success()
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
