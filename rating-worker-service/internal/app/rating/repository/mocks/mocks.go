package mocks

import (
	"context"
	"time"

	"feedback/rating-worker-service/internal/app/rating/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRatingRepository мок для RatingRepository
type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) ApplyEvent(ctx context.Context, eventID uuid.UUID, emittedAt time.Time, deltas []entity.RatingDelta) (entity.ApplyResult, error) {
	args := m.Called(ctx, eventID, emittedAt, deltas)
	return args.Get(0).(entity.ApplyResult), args.Error(1)
}

func (m *MockRatingRepository) Get(ctx context.Context, userID uuid.UUID) (*entity.UserRating, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserRating), args.Error(1)
}

func (m *MockRatingRepository) ReplaceAll(ctx context.Context, stats []entity.ReviewStat, snapshotAt time.Time) (int, error) {
	args := m.Called(ctx, stats, snapshotAt)
	return args.Int(0), args.Error(1)
}

// MockReviewStatsRepository мок для ReviewStatsRepository
type MockReviewStatsRepository struct {
	mock.Mock
}

func (m *MockReviewStatsRepository) AggregateByUser(ctx context.Context) ([]entity.ReviewStat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReviewStat), args.Error(1)
}
