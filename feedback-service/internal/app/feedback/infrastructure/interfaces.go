package infrastructure

import (
	"context"
	"time"

	"feedback/feedback-service/internal/app/feedback/entity"
)

// MessagePublisher отправка сообщений в брокер; топик задается на каждое сообщение
type MessagePublisher interface {
	PublishMessage(ctx context.Context, topic, key string, value []byte) error
	Close() error
}

// ReviewCache кеш полного списка отзывов.
// Каждая инвалидация увеличивает версию кеша.
type ReviewCache interface {
	// GetReviews возвращает (nil, version, nil), если в кеше пусто.
	// version нужно передать в SetReviews после чтения из БД.
	GetReviews(ctx context.Context) ([]entity.Review, int64, error)
	// SetReviews сохраняет список, только если версия не изменилась; false - список не сохранен
	SetReviews(ctx context.Context, reviews []entity.Review, version int64, ttl time.Duration) (bool, error)
	InvalidateReviews(ctx context.Context) error
	Close() error
}
