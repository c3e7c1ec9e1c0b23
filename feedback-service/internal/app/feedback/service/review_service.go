package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedback/feedback-service/internal/app/feedback/entity"
	"feedback/feedback-service/internal/app/feedback/infrastructure"
	"feedback/feedback-service/internal/app/feedback/repository"
	"feedback/pkg/logger"
	"feedback/pkg/metrics"

	"github.com/google/uuid"
)

const reviewDeletedMessage = "Review deleted successfully"

// ReviewService жизненный цикл отзывов.
// Проверяет ссылку на пользователя, считает дельту при обновлении
// и отправляет ровно одно событие на каждое успешное изменение.
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	userRepo   repository.UserRepository
	events     EventEmitter
	cache      infrastructure.ReviewCache
	cacheTTL   time.Duration
}

// NewReviewService cache может быть nil, тогда список всегда читается из БД
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	userRepo repository.UserRepository,
	events EventEmitter,
	cache infrastructure.ReviewCache,
	cacheTTL time.Duration,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		userRepo:   userRepo,
		events:     events,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// Create
// 1. Пользователь должен существовать
// 2. Сохраняет отзыв вместе с автором
// 3. Отправляет review.created
func (s *ReviewService) Create(ctx context.Context, input entity.NewReview) (*entity.Review, error) {
	if err := s.ensureUserExists(ctx, input.UserID); err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.Create(ctx, input)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, &InvalidReferenceError{Entity: EntityUser}
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.invalidateCache(ctx)
	metrics.ReviewMutations.WithLabelValues("created").Inc()
	metrics.ReviewsScore.Observe(float64(review.Score))

	payload := entity.ReviewEventPayload{UserID: review.UserID, Score: review.Score}
	if err := s.events.Emit(ctx, entity.ReviewCreated, payload); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Str("review_id", review.ID.String()).
		Str("user_id", review.UserID.String()).
		Int("score", review.Score).
		Msg("Review created")

	return review, nil
}

// FindAll все отзывы, новые первыми.
// Список кладется в кеш с версией, прочитанной до запроса к БД.
func (s *ReviewService) FindAll(ctx context.Context) ([]entity.Review, error) {
	var version int64
	cacheable := false

	if s.cache != nil {
		cached, v, err := s.cache.GetReviews(ctx)
		switch {
		case err != nil:
			logger.Ctx(ctx).Warn().Err(err).Msg("Failed to read reviews from cache")
		case cached != nil:
			return cached, nil
		default:
			version = v
			cacheable = true
		}
	}

	reviews, err := s.reviewRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	if cacheable {
		stored, err := s.cache.SetReviews(ctx, reviews, version, s.cacheTTL)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("Failed to cache reviews")
		} else if !stored {
			logger.Ctx(ctx).Debug().Int64("version", version).Msg("Reviews cache invalidated during read, skipping")
		}
	}

	return reviews, nil
}

func (s *ReviewService) FindOne(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	review, err := s.reviewRepo.GetWithUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(EntityReview, id.String())
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// Update порядок проверок: сначала новый пользователь, затем сам отзыв.
// Снимок до изменения берется до записи и используется для дельты.
func (s *ReviewService) Update(ctx context.Context, id uuid.UUID, patch entity.ReviewPatch) (*entity.Review, error) {
	if patch.UserID != nil {
		if err := s.ensureUserExists(ctx, *patch.UserID); err != nil {
			return nil, err
		}
	}

	current, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(EntityReview, id.String())
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	updated, err := s.reviewRepo.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound(EntityReview, id.String())
		case errors.Is(err, repository.ErrForeignKey):
			return nil, &InvalidReferenceError{Entity: EntityUser}
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.invalidateCache(ctx)
	metrics.ReviewMutations.WithLabelValues("updated").Inc()

	if err := s.events.Emit(ctx, entity.ReviewUpdated, UpdatePayload(current, patch, updated)); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Str("review_id", id.String()).
		Str("user_id", updated.UserID.String()).
		Int("score", updated.Score).
		Msg("Review updated")

	return updated, nil
}

// UpdatePayload payload события review.updated.
// Старое значение попадает в событие, если поле патча отличается от значения
// до изменения. Отсутствующее в патче поле тоже считается отличающимся, поэтому
// oldUserId/oldScore заполняются всегда, когда поле не передано.
func UpdatePayload(current *entity.Review, patch entity.ReviewPatch, updated *entity.Review) entity.ReviewEventPayload {
	payload := entity.ReviewEventPayload{
		UserID: updated.UserID,
		Score:  updated.Score,
	}

	if patch.UserID == nil || *patch.UserID != current.UserID {
		oldUserID := current.UserID
		payload.OldUserID = &oldUserID
	}
	if patch.Score == nil || *patch.Score != current.Score {
		oldScore := current.Score
		payload.OldScore = &oldScore
	}

	return payload
}

// Remove удаляет отзыв; событие строится из снимка до удаления
func (s *ReviewService) Remove(ctx context.Context, id uuid.UUID) (*entity.SuccessResponse, error) {
	current, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(EntityReview, id.String())
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(EntityReview, id.String())
		}
		return nil, fmt.Errorf("failed to delete review: %w", err)
	}

	s.invalidateCache(ctx)
	metrics.ReviewMutations.WithLabelValues("deleted").Inc()

	payload := entity.ReviewEventPayload{UserID: current.UserID, Score: current.Score}
	if err := s.events.Emit(ctx, entity.ReviewDeleted, payload); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Str("review_id", id.String()).
		Str("user_id", current.UserID.String()).
		Msg("Review deleted")

	return &entity.SuccessResponse{Message: reviewDeletedMessage}, nil
}

func (s *ReviewService) ensureUserExists(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(EntityUser, userID.String())
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	return nil
}

// invalidateCache ошибки кеша только логируются
func (s *ReviewService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateReviews(ctx); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Failed to invalidate reviews cache")
	}
}
