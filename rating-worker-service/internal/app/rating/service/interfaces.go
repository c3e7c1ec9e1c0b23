package service

import (
	"context"

	"feedback/rating-worker-service/internal/app/rating/entity"

	"github.com/google/uuid"
)

type RatingServiceInterface interface {
	// HandleEvent применяет событие к агрегатам; false для уже примененного события
	HandleEvent(ctx context.Context, event *entity.ReviewEvent) (bool, error)

	// Reconcile пересчитывает все агрегаты из Postgres
	Reconcile(ctx context.Context) error

	GetUserRating(ctx context.Context, userID uuid.UUID) (*entity.UserRating, error)
}
