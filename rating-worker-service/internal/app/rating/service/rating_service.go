package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"feedback/pkg/logger"
	"feedback/pkg/metrics"
	"feedback/rating-worker-service/internal/app/rating/entity"
	"feedback/rating-worker-service/internal/app/rating/repository"

	"github.com/google/uuid"
)

var ErrRatingNotFound = errors.New("rating not found")

// RatingService поддерживает средние оценки пользователей по событиям отзывов.
// Применение событий и сверка не выполняются одновременно.
type RatingService struct {
	ratings repository.RatingRepository
	stats   repository.ReviewStatsRepository
	now     func() time.Time
	mu      sync.Mutex
}

func NewRatingService(ratings repository.RatingRepository, stats repository.ReviewStatsRepository) *RatingService {
	return &RatingService{
		ratings: ratings,
		stats:   stats,
		now:     time.Now,
	}
}

// ComputeDeltas изменения агрегатов для одного события.
// Для review.updated предыдущие значения берутся из oldUserId/oldScore,
// а при их отсутствии совпадают с текущими.
func ComputeDeltas(event *entity.ReviewEvent) ([]entity.RatingDelta, error) {
	p := event.Payload
	score := int64(p.Score)

	switch event.Type {
	case entity.ReviewCreated:
		return []entity.RatingDelta{{UserID: p.UserID, Count: 1, Sum: score}}, nil

	case entity.ReviewDeleted:
		return []entity.RatingDelta{{UserID: p.UserID, Count: -1, Sum: -score}}, nil

	case entity.ReviewUpdated:
		prevUser := p.UserID
		if p.OldUserID != nil {
			prevUser = *p.OldUserID
		}
		prevScore := score
		if p.OldScore != nil {
			prevScore = int64(*p.OldScore)
		}

		if prevUser == p.UserID {
			return []entity.RatingDelta{{UserID: p.UserID, Count: 0, Sum: score - prevScore}}, nil
		}
		return []entity.RatingDelta{
			{UserID: prevUser, Count: -1, Sum: -prevScore},
			{UserID: p.UserID, Count: 1, Sum: score},
		}, nil
	}

	return nil, fmt.Errorf("%w: unknown type %q", entity.ErrInvalidEvent, event.Type)
}

func (s *RatingService) HandleEvent(ctx context.Context, event *entity.ReviewEvent) (bool, error) {
	eventType := string(event.Type)

	if err := event.Validate(); err != nil {
		metrics.WorkerEventsProcessed.WithLabelValues(eventType, "failed").Inc()
		return false, err
	}

	deltas, err := ComputeDeltas(event)
	if err != nil {
		metrics.WorkerEventsProcessed.WithLabelValues(eventType, "failed").Inc()
		return false, err
	}

	s.mu.Lock()
	result, err := s.ratings.ApplyEvent(ctx, event.EventID, event.Timestamp, deltas)
	s.mu.Unlock()
	if err != nil {
		metrics.WorkerEventsProcessed.WithLabelValues(eventType, "failed").Inc()
		return false, err
	}

	switch result {
	case entity.EventDuplicate:
		metrics.WorkerEventsProcessed.WithLabelValues(eventType, "duplicate").Inc()
		logger.Debug().
			Str("event_id", event.EventID.String()).
			Str("event_type", eventType).
			Msg("Review event already applied, skipping")
		return false, nil

	case entity.EventCovered:
		metrics.WorkerEventsProcessed.WithLabelValues(eventType, "covered").Inc()
		logger.Debug().
			Str("event_id", event.EventID.String()).
			Str("event_type", eventType).
			Time("emitted_at", event.Timestamp).
			Msg("Review event already included in reconciled ratings, skipping")
		return false, nil
	}

	metrics.WorkerEventsProcessed.WithLabelValues(eventType, "applied").Inc()
	logger.Info().
		Str("event_id", event.EventID.String()).
		Str("event_type", eventType).
		Str("user_id", event.Payload.UserID.String()).
		Int("deltas", len(deltas)).
		Msg("Review event applied")

	return true, nil
}

// Reconcile источник истины - таблица reviews.
// Нужен после каскадного удаления пользователя, которое не порождает событий.
// Время снимка берется до запроса к БД; события, отправленные раньше, потом пропускаются.
func (s *RatingService) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshotAt := s.now()

	stats, err := s.stats.AggregateByUser(ctx)
	if err != nil {
		metrics.WorkerReconciliations.WithLabelValues("failed").Inc()
		return err
	}

	removed, err := s.ratings.ReplaceAll(ctx, stats, snapshotAt)
	if err != nil {
		metrics.WorkerReconciliations.WithLabelValues("failed").Inc()
		return err
	}

	metrics.WorkerReconciliations.WithLabelValues("success").Inc()
	metrics.WorkerReconciledUsers.Set(float64(len(stats)))
	logger.Info().
		Int("users", len(stats)).
		Int("removed", removed).
		Time("snapshot_at", snapshotAt).
		Msg("Ratings reconciled")

	return nil
}

func (s *RatingService) GetUserRating(ctx context.Context, userID uuid.UUID) (*entity.UserRating, error) {
	rating, err := s.ratings.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRatingNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return rating, nil
}
