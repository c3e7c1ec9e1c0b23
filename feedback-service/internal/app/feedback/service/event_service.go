package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"feedback/feedback-service/internal/app/feedback/entity"
	"feedback/feedback-service/internal/app/feedback/infrastructure"
	"feedback/pkg/logger"
	"feedback/pkg/metrics"

	"github.com/google/uuid"
)

// EventService собирает ReviewEvent и отдает его в брокер.
// Топик равен типу события, ключ сообщения - payload.userId.
type EventService struct {
	publisher infrastructure.MessagePublisher
	now       func() time.Time
	newID     func() uuid.UUID
}

func NewEventService(publisher infrastructure.MessagePublisher) *EventService {
	return &EventService{
		publisher: publisher,
		now:       time.Now,
		newID:     uuid.New,
	}
}

// NewEvent новое событие со свежим eventId и временем отправки
func (s *EventService) NewEvent(eventType entity.ReviewEventType, payload entity.ReviewEventPayload) entity.ReviewEvent {
	return entity.ReviewEvent{
		EventID:   s.newID(),
		Type:      eventType,
		Timestamp: s.now().UTC(),
		Payload:   payload,
	}
}

// Emit публикует одно событие. Ошибка публикации не перехватывается.
func (s *EventService) Emit(ctx context.Context, eventType entity.ReviewEventType, payload entity.ReviewEventPayload) error {
	event := s.NewEvent(eventType, payload)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	topic := string(eventType)
	if err := s.publisher.PublishMessage(ctx, topic, payload.UserID.String(), data); err != nil {
		metrics.ReviewEventsPublished.WithLabelValues(topic, "failed").Inc()
		logger.Ctx(ctx).Error().
			Err(err).
			Str("event_id", event.EventID.String()).
			Str("event_type", topic).
			Msg("Failed to publish review event")
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	metrics.ReviewEventsPublished.WithLabelValues(topic, "success").Inc()
	logger.Ctx(ctx).Debug().
		Str("event_id", event.EventID.String()).
		Str("event_type", topic).
		Str("user_id", payload.UserID.String()).
		Msg("Review event published")

	return nil
}
