package repository

import (
	"context"
	"time"

	"feedback/feedback-service/internal/app/feedback/entity"
	"feedback/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const reviewsTable = "reviews"

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository создает репозиторий отзывов
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create сохраняет отзыв и перечитывает его вместе с автором
func (r *reviewRepository) Create(ctx context.Context, input entity.NewReview) (*entity.Review, error) {
	review := &entity.Review{
		ID:      uuid.New(),
		UserID:  input.UserID,
		Score:   input.Score,
		Comment: input.Comment,
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, reviewsTable)
	err := r.db.WithContext(ctx).Create(review).Error
	timer.ObserveDuration()
	if err != nil {
		return nil, mapError(err, metrics.DbOpInsert, "create review")
	}

	return r.GetWithUser(ctx, review.ID)
}

// GetByID отзыв без автора; используется как снимок до изменения
func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, reviewsTable)
	defer timer.ObserveDuration()

	var review entity.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, mapError(err, metrics.DbOpSelect, "get review")
	}

	return &review, nil
}

func (r *reviewRepository) GetWithUser(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, reviewsTable)
	defer timer.ObserveDuration()

	var review entity.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		First(&review, "id = ?", id).Error
	if err != nil {
		return nil, mapError(err, metrics.DbOpSelect, "get review")
	}

	return &review, nil
}

// List все отзывы, новые первыми. Без пагинации.
func (r *reviewRepository) List(ctx context.Context) ([]entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, reviewsTable)
	defer timer.ObserveDuration()

	reviews := make([]entity.Review, 0)
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, mapError(err, metrics.DbOpSelect, "list reviews")
	}

	return reviews, nil
}

// Update применяет только переданные поля. Ноль затронутых строк - ErrNotFound.
func (r *reviewRepository) Update(ctx context.Context, id uuid.UUID, patch entity.ReviewPatch) (*entity.Review, error) {
	columns := patch.Columns()
	columns["updated_at"] = time.Now()

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, reviewsTable)
	result := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Where("id = ?", id).
		Updates(columns)
	timer.ObserveDuration()

	if result.Error != nil {
		return nil, mapError(result.Error, metrics.DbOpUpdate, "update review")
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetWithUser(ctx, id)
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, reviewsTable)
	result := r.db.WithContext(ctx).Delete(&entity.Review{}, "id = ?", id)
	timer.ObserveDuration()

	if result.Error != nil {
		return mapError(result.Error, metrics.DbOpDelete, "delete review")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
