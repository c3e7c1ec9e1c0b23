package repository

import (
	"context"
	"fmt"

	"feedback/pkg/metrics"
	"feedback/rating-worker-service/internal/app/rating/entity"

	"gorm.io/gorm"
)

type reviewStatsRepository struct {
	db *gorm.DB
}

// NewReviewStatsRepository читает таблицу reviews, принадлежащую feedback-service
func NewReviewStatsRepository(db *gorm.DB) ReviewStatsRepository {
	return &reviewStatsRepository{db: db}
}

func (r *reviewStatsRepository) AggregateByUser(ctx context.Context) ([]entity.ReviewStat, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")
	defer timer.ObserveDuration()

	stats := make([]entity.ReviewStat, 0)
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select("user_id, COUNT(*) AS review_count, COALESCE(SUM(score), 0) AS score_sum").
		Group("user_id").
		Scan(&stats).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	return stats, nil
}
