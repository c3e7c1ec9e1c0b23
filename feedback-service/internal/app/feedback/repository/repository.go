package repository

import (
	"context"

	"feedback/feedback-service/internal/app/feedback/entity"

	"github.com/google/uuid"
)

// UserRepository работа с пользователями в PostgreSQL
type UserRepository interface {
	Create(ctx context.Context, input entity.NewUser) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetWithReviews(ctx context.Context, id uuid.UUID) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.UserPatch) (*entity.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReviewRepository работа с отзывами в PostgreSQL.
// Все методы, кроме GetByID, возвращают отзыв вместе с автором.
type ReviewRepository interface {
	Create(ctx context.Context, input entity.NewReview) (*entity.Review, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	GetWithUser(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	List(ctx context.Context) ([]entity.Review, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.ReviewPatch) (*entity.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
