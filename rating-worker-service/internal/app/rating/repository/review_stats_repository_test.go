package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

const aggregateQuery = `SELECT user_id, COUNT\(\*\) AS review_count, COALESCE\(SUM\(score\), 0\) AS score_sum FROM "reviews" GROUP BY`

func TestReviewStatsRepository_AggregateByUser(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewStatsRepository(db)

	u1 := uuid.New()
	u2 := uuid.New()
	rows := sqlmock.NewRows([]string{"user_id", "review_count", "score_sum"}).
		AddRow(u1.String(), 2, 9).
		AddRow(u2.String(), 1, 3)

	mock.ExpectQuery(aggregateQuery).WillReturnRows(rows)

	stats, err := repo.AggregateByUser(context.Background())

	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, u1, stats[0].UserID)
	assert.Equal(t, int64(2), stats[0].ReviewCount)
	assert.Equal(t, int64(9), stats[0].ScoreSum)
	assert.Equal(t, u2, stats[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewStatsRepository_AggregateByUser_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewStatsRepository(db)

	mock.ExpectQuery(aggregateQuery).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "review_count", "score_sum"}))

	stats, err := repo.AggregateByUser(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, stats)
	assert.Empty(t, stats)
}

func TestReviewStatsRepository_AggregateByUser_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewStatsRepository(db)

	mock.ExpectQuery(aggregateQuery).WillReturnError(errors.New("relation \"reviews\" does not exist"))

	stats, err := repo.AggregateByUser(context.Background())

	assert.Nil(t, stats)
	assert.Contains(t, err.Error(), "failed to aggregate reviews")
}
