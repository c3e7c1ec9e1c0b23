package service

import (
	"context"

	"feedback/feedback-service/internal/app/feedback/entity"

	"github.com/google/uuid"
)

// EventEmitter отправка доменного события о переходе состояния отзыва
type EventEmitter interface {
	Emit(ctx context.Context, eventType entity.ReviewEventType, payload entity.ReviewEventPayload) error
}

type ReviewServiceInterface interface {
	Create(ctx context.Context, input entity.NewReview) (*entity.Review, error)
	FindAll(ctx context.Context) ([]entity.Review, error)
	FindOne(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.ReviewPatch) (*entity.Review, error)
	Remove(ctx context.Context, id uuid.UUID) (*entity.SuccessResponse, error)
}

type UserServiceInterface interface {
	Create(ctx context.Context, input entity.NewUser) (*entity.User, error)
	FindAll(ctx context.Context) ([]entity.User, error)
	FindOne(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.UserPatch) (*entity.User, error)
	Remove(ctx context.Context, id uuid.UUID) (*entity.SuccessResponse, error)
}
