package repository

import (
	"context"
	"errors"
	"time"

	"feedback/rating-worker-service/internal/app/rating/entity"

	"github.com/google/uuid"
)

var ErrRatingNotFound = errors.New("rating not found")

// RatingRepository агрегаты оценок в Redis
type RatingRepository interface {
	// ApplyEvent атомарно применяет дельты и запоминает eventID.
	// Событие, отправленное раньше снимка последней сверки, только запоминается.
	// Нулевой emittedAt означает, что время отправки неизвестно.
	ApplyEvent(ctx context.Context, eventID uuid.UUID, emittedAt time.Time, deltas []entity.RatingDelta) (entity.ApplyResult, error)

	Get(ctx context.Context, userID uuid.UUID) (*entity.UserRating, error)

	// ReplaceAll перезаписывает агрегаты снимком на момент snapshotAt
	// и удаляет пользователей, которых нет в stats. Возвращает число удаленных ключей.
	ReplaceAll(ctx context.Context, stats []entity.ReviewStat, snapshotAt time.Time) (int, error)
}

// ReviewStatsRepository агрегаты, посчитанные по таблице reviews
type ReviewStatsRepository interface {
	AggregateByUser(ctx context.Context) ([]entity.ReviewStat, error)
}
