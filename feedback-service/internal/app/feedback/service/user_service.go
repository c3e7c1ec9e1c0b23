package service

import (
	"context"
	"errors"
	"fmt"

	"feedback/feedback-service/internal/app/feedback/entity"
	"feedback/feedback-service/internal/app/feedback/infrastructure"
	"feedback/feedback-service/internal/app/feedback/repository"
	"feedback/pkg/logger"
	"feedback/pkg/metrics"

	"github.com/google/uuid"
)

const userDeletedMessage = "User deleted successfully"

// UserService CRUD пользователей с уникальным email
type UserService struct {
	userRepo repository.UserRepository
	cache    infrastructure.ReviewCache
}

// NewUserService cache нужен, чтобы сбрасывать список отзывов,
// в котором лежат имя и email автора
func NewUserService(userRepo repository.UserRepository, cache infrastructure.ReviewCache) *UserService {
	return &UserService{
		userRepo: userRepo,
		cache:    cache,
	}
}

func (s *UserService) Create(ctx context.Context, input entity.NewUser) (*entity.User, error) {
	user, err := s.userRepo.Create(ctx, input)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, &ConflictError{Field: "email"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	metrics.UsersCreated.Inc()
	logger.Ctx(ctx).Info().Str("user_id", user.ID.String()).Msg("User created")

	return user, nil
}

func (s *UserService) FindAll(ctx context.Context) ([]entity.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// FindOne пользователь вместе с его отзывами
func (s *UserService) FindOne(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetWithReviews(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(EntityUser, id.String())
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, patch entity.UserPatch) (*entity.User, error) {
	user, err := s.userRepo.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound(EntityUser, id.String())
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, &ConflictError{Field: "email"}
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.invalidateCache(ctx)
	logger.Ctx(ctx).Info().Str("user_id", id.String()).Msg("User updated")

	return user, nil
}

// Remove отзывы пользователя удаляются каскадом, события для них не отправляются
func (s *UserService) Remove(ctx context.Context, id uuid.UUID) (*entity.SuccessResponse, error) {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(EntityUser, id.String())
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	s.invalidateCache(ctx)
	logger.Ctx(ctx).Info().Str("user_id", id.String()).Msg("User deleted")

	return &entity.SuccessResponse{Message: userDeletedMessage}, nil
}

func (s *UserService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateReviews(ctx); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Failed to invalidate reviews cache")
	}
}
