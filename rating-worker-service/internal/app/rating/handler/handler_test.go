package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedback/pkg/logger"
	"feedback/rating-worker-service/internal/app/rating/entity"
	"feedback/rating-worker-service/internal/app/rating/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) HandleEvent(ctx context.Context, event *entity.ReviewEvent) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

func (m *MockRatingService) Reconcile(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRatingService) GetUserRating(ctx context.Context, userID uuid.UUID) (*entity.UserRating, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserRating), args.Error(1)
}

func init() {
	logger.InitWithWriter("rating-worker-service-test", "error", io.Discard)
}

func setupRatingMux() (*http.ServeMux, *MockRatingService) {
	svc := new(MockRatingService)
	mux := http.NewServeMux()
	NewRatingHandler(svc).RegisterRoutes(mux)
	return mux, svc
}

func setupHealthMux(t *testing.T) (*http.ServeMux, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	sqlDB, sqlMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	mux := http.NewServeMux()
	NewHealthCheckHandler(db, client).RegisterRoutes(mux)
	return mux, sqlMock, mr
}

// ===================== RatingHandler Tests =====================

func TestGetUserRating_Success(t *testing.T) {
	mux, svc := setupRatingMux()
	userID := uuid.New()

	svc.On("GetUserRating", mock.Anything, userID).Return(entity.NewUserRating(userID, 2, 7), nil)

	req := httptest.NewRequest(http.MethodGet, "/ratings/"+userID.String(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body entity.UserRating
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, userID, body.UserID)
	assert.Equal(t, int64(2), body.ReviewCount)
	assert.Equal(t, int64(7), body.ScoreSum)
	assert.InDelta(t, 3.5, body.Average, 0.0001)
	svc.AssertExpectations(t)
}

func TestGetUserRating_InvalidUUID(t *testing.T) {
	mux, svc := setupRatingMux()

	req := httptest.NewRequest(http.MethodGet, "/ratings/not-a-uuid", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "GetUserRating", mock.Anything, mock.Anything)
}

func TestGetUserRating_NotFound(t *testing.T) {
	mux, svc := setupRatingMux()
	userID := uuid.New()

	svc.On("GetUserRating", mock.Anything, userID).Return(nil, service.ErrRatingNotFound)

	req := httptest.NewRequest(http.MethodGet, "/ratings/"+userID.String(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"rating not found"}`, w.Body.String())
}

func TestGetUserRating_InternalError(t *testing.T) {
	mux, svc := setupRatingMux()
	userID := uuid.New()

	svc.On("GetUserRating", mock.Anything, userID).Return(nil, errors.New("redis down"))

	req := httptest.NewRequest(http.MethodGet, "/ratings/"+userID.String(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "redis down")
}

func TestGetUserRating_MethodNotAllowed(t *testing.T) {
	mux, _ := setupRatingMux()

	req := httptest.NewRequest(http.MethodPost, "/ratings/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// ===================== HealthCheckHandler Tests =====================

func TestHealthCheck_Healthy(t *testing.T) {
	mux, sqlMock, _ := setupHealthMux(t)
	sqlMock.ExpectPing()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "healthy", body.Checks["redis"])
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestHealthCheck_RedisDown(t *testing.T) {
	mux, sqlMock, mr := setupHealthMux(t)
	sqlMock.ExpectPing()
	mr.Close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Contains(t, body.Checks["redis"], "unhealthy")
}

func TestReadiness_DatabaseDown(t *testing.T) {
	mux, sqlMock, _ := setupHealthMux(t)
	sqlMock.ExpectPing().WillReturnError(errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/health/readiness", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database not ready")
}

func TestReadiness_Ready(t *testing.T) {
	mux, sqlMock, _ := setupHealthMux(t)
	sqlMock.ExpectPing()

	req := httptest.NewRequest(http.MethodGet, "/health/readiness", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", w.Body.String())
}

func TestLiveness(t *testing.T) {
	mux, _, _ := setupHealthMux(t)

	req := httptest.NewRequest(http.MethodGet, "/health/liveness", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", w.Body.String())
}
