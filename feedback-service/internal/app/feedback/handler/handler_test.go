package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedback/feedback-service/internal/app/feedback/entity"
	"feedback/feedback-service/internal/app/feedback/service"
	"feedback/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Create(ctx context.Context, input entity.NewReview) (*entity.Review, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewService) FindAll(ctx context.Context) ([]entity.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewService) FindOne(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewService) Update(ctx context.Context, id uuid.UUID, patch entity.ReviewPatch) (*entity.Review, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewService) Remove(ctx context.Context, id uuid.UUID) (*entity.SuccessResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SuccessResponse), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, input entity.NewUser) (*entity.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserService) FindAll(ctx context.Context) ([]entity.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserService) FindOne(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, patch entity.UserPatch) (*entity.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserService) Remove(ctx context.Context, id uuid.UUID) (*entity.SuccessResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SuccessResponse), args.Error(1)
}

// stubPinger кеш для проверок /health
type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, sqlMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	return db, sqlMock
}

func setupRouterWithHealth(health *HealthHandler) (*gin.Engine, *MockReviewService, *MockUserService) {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter("feedback-service-test", "error", io.Discard)

	reviewService := new(MockReviewService)
	userService := new(MockUserService)
	router := SetupRoutes(NewReviewHandler(reviewService), NewUserHandler(userService), health, []string{"*"})
	return router, reviewService, userService
}

func setupTestRouter() (*gin.Engine, *MockReviewService, *MockUserService) {
	return setupRouterWithHealth(NewHealthHandler(nil, nil))
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, _ := json.Marshal(b)
			reader = bytes.NewBuffer(data)
		}
	}

	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) entity.ErrorResponse {
	t.Helper()
	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ===================== Review Handlers =====================

func TestCreateReviewHandler_Success(t *testing.T) {
	router, reviewService, _ := setupTestRouter()
	userID := uuid.New()
	comment := "great"
	input := entity.NewReview{UserID: userID, Score: 5, Comment: &comment}

	review := &entity.Review{
		ID:        uuid.New(),
		UserID:    userID,
		Score:     5,
		Comment:   &comment,
		CreatedAt: time.Now(),
		User:      &entity.UserSummary{ID: userID, Name: "Alice", Email: "alice@example.com"},
	}
	reviewService.On("Create", mock.Anything, input).Return(review, nil)

	w := doRequest(router, http.MethodPost, "/reviews", map[string]interface{}{
		"userId":  userID.String(),
		"score":   5,
		"comment": "great",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, userID.String(), raw["userId"])
	assert.Equal(t, float64(5), raw["score"])
	assert.Contains(t, raw, "createdAt")
	user, ok := raw["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Alice", user["name"])
	reviewService.AssertExpectations(t)
}

func TestCreateReviewHandler_ValidationFailed(t *testing.T) {
	tests := []struct {
		name      string
		body      map[string]interface{}
		wantField string
	}{
		{"missing user", map[string]interface{}{"score": 3}, "userId"},
		{"bad uuid", map[string]interface{}{"userId": "abc", "score": 3}, "userId"},
		{"score too high", map[string]interface{}{"userId": uuid.NewString(), "score": 6}, "score"},
		{"score too low", map[string]interface{}{"userId": uuid.NewString(), "score": 0}, "score"},
		{"comment too long", map[string]interface{}{"userId": uuid.NewString(), "score": 3, "comment": string(bytes.Repeat([]byte("a"), 1001))}, "comment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, reviewService, _ := setupTestRouter()

			w := doRequest(router, http.MethodPost, "/reviews", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, "Validation failed", resp.Error)
			require.NotEmpty(t, resp.Details)
			assert.Equal(t, tt.wantField, resp.Details[0].Field)
			reviewService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateReviewHandler_InvalidBody(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, http.MethodPost, "/reviews", `{"userId":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, w).Error)
}

func TestCreateReviewHandler_ErrorMapping(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"user not found", &service.NotFoundError{Entity: service.EntityUser, ID: userID.String()}, http.StatusNotFound, "User with ID " + userID.String() + " not found"},
		{"invalid reference", &service.InvalidReferenceError{Entity: service.EntityUser}, http.StatusBadRequest, "invalid user"},
		{"unexpected", errors.New("failed to publish review.created event: broker down"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, reviewService, _ := setupTestRouter()
			reviewService.On("Create", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doRequest(router, http.MethodPost, "/reviews", map[string]interface{}{
				"userId": userID.String(),
				"score":  4,
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.NotContains(t, w.Body.String(), "broker down")
		})
	}
}

func TestListReviewsHandler(t *testing.T) {
	router, reviewService, _ := setupTestRouter()
	reviews := []entity.Review{
		{ID: uuid.New(), UserID: uuid.New(), Score: 5},
		{ID: uuid.New(), UserID: uuid.New(), Score: 4},
	}
	reviewService.On("FindAll", mock.Anything).Return(reviews, nil)

	w := doRequest(router, http.MethodGet, "/reviews", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response entity.ReviewListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Total)
	assert.Len(t, response.Reviews, 2)
}

func TestGetReviewHandler_InvalidID(t *testing.T) {
	router, reviewService, _ := setupTestRouter()

	w := doRequest(router, http.MethodGet, "/reviews/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "Parameter validation failed", resp.Error)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "id", resp.Details[0].Field)
	reviewService.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestGetReviewHandler_NotFound(t *testing.T) {
	router, reviewService, _ := setupTestRouter()
	id := uuid.New()
	reviewService.On("FindOne", mock.Anything, id).Return(nil, &service.NotFoundError{Entity: service.EntityReview, ID: id.String()})

	w := doRequest(router, http.MethodGet, "/reviews/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Review with ID "+id.String()+" not found", decodeError(t, w).Message)
}

func TestUpdateReviewHandler_Success(t *testing.T) {
	router, reviewService, _ := setupTestRouter()
	id := uuid.New()
	newUser := uuid.New()
	score := 4
	patch := entity.ReviewPatch{UserID: &newUser, Score: &score}

	reviewService.On("Update", mock.Anything, id, patch).Return(&entity.Review{ID: id, UserID: newUser, Score: 4}, nil)

	w := doRequest(router, http.MethodPatch, "/reviews/"+id.String(), map[string]interface{}{
		"userId": newUser.String(),
		"score":  4,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	reviewService.AssertExpectations(t)
}

func TestUpdateReviewHandler_EmptyPatch(t *testing.T) {
	router, reviewService, _ := setupTestRouter()
	id := uuid.New()

	reviewService.On("Update", mock.Anything, id, entity.ReviewPatch{}).Return(&entity.Review{ID: id, Score: 3}, nil)

	w := doRequest(router, http.MethodPatch, "/reviews/"+id.String(), map[string]interface{}{})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateReviewHandler_ValidationFailed(t *testing.T) {
	router, reviewService, _ := setupTestRouter()
	id := uuid.New()

	w := doRequest(router, http.MethodPatch, "/reviews/"+id.String(), map[string]interface{}{"score": 9})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	require.NotEmpty(t, resp.Details)
	assert.Equal(t, "score", resp.Details[0].Field)
	assert.Equal(t, "must be at most 5", resp.Details[0].Message)
	reviewService.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteReviewHandler_Success(t *testing.T) {
	router, reviewService, _ := setupTestRouter()
	id := uuid.New()
	reviewService.On("Remove", mock.Anything, id).Return(&entity.SuccessResponse{Message: "Review deleted successfully"}, nil)

	w := doRequest(router, http.MethodDelete, "/reviews/"+id.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp entity.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Review deleted successfully", resp.Message)
}

func TestDeleteReviewHandler_NotFound(t *testing.T) {
	router, reviewService, _ := setupTestRouter()
	id := uuid.New()
	reviewService.On("Remove", mock.Anything, id).Return(nil, &service.NotFoundError{Entity: service.EntityReview, ID: id.String()})

	w := doRequest(router, http.MethodDelete, "/reviews/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ===================== User Handlers =====================

func TestCreateUserHandler_Success(t *testing.T) {
	router, _, userService := setupTestRouter()
	input := entity.NewUser{Name: "Alice", Email: "alice@example.com"}
	userService.On("Create", mock.Anything, input).Return(&entity.User{ID: uuid.New(), Name: "Alice", Email: "alice@example.com"}, nil)

	w := doRequest(router, http.MethodPost, "/users", map[string]interface{}{"name": "Alice", "email": "alice@example.com"})

	assert.Equal(t, http.StatusCreated, w.Code)
	userService.AssertExpectations(t)
}

func TestCreateUserHandler_InvalidEmail(t *testing.T) {
	router, _, userService := setupTestRouter()

	w := doRequest(router, http.MethodPost, "/users", map[string]interface{}{"name": "Alice", "email": "nope"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	require.NotEmpty(t, resp.Details)
	assert.Equal(t, "email", resp.Details[0].Field)
	assert.Equal(t, "must be a valid email", resp.Details[0].Message)
	userService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUserHandler_Conflict(t *testing.T) {
	router, _, userService := setupTestRouter()
	userService.On("Create", mock.Anything, mock.Anything).Return(nil, &service.ConflictError{Field: "email"})

	w := doRequest(router, http.MethodPost, "/users", map[string]interface{}{"name": "Alice", "email": "alice@example.com"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email already in use", decodeError(t, w).Message)
}

func TestListUsersHandler(t *testing.T) {
	router, _, userService := setupTestRouter()
	userService.On("FindAll", mock.Anything).Return([]entity.User{{ID: uuid.New(), Name: "Alice"}}, nil)

	w := doRequest(router, http.MethodGet, "/users", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp entity.UserListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestGetUserHandler_WithReviews(t *testing.T) {
	router, _, userService := setupTestRouter()
	id := uuid.New()
	userService.On("FindOne", mock.Anything, id).Return(&entity.User{
		ID:      id,
		Name:    "Alice",
		Reviews: []entity.Review{{ID: uuid.New(), UserID: id, Score: 5}},
	}, nil)

	w := doRequest(router, http.MethodGet, "/users/"+id.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	reviews, ok := raw["reviews"].([]interface{})
	require.True(t, ok)
	assert.Len(t, reviews, 1)
}

func TestUpdateUserHandler_NotFound(t *testing.T) {
	router, _, userService := setupTestRouter()
	id := uuid.New()
	name := "Bob"
	userService.On("Update", mock.Anything, id, entity.UserPatch{Name: &name}).
		Return(nil, &service.NotFoundError{Entity: service.EntityUser, ID: id.String()})

	w := doRequest(router, http.MethodPatch, "/users/"+id.String(), map[string]interface{}{"name": "Bob"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUserHandler_InvalidID(t *testing.T) {
	router, _, userService := setupTestRouter()

	w := doRequest(router, http.MethodDelete, "/users/123", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	userService.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

// ===================== Router =====================

func TestHealthEndpoint(t *testing.T) {
	db, sqlMock := newMockDB(t)
	sqlMock.ExpectPing()
	router, _, _ := setupRouterWithHealth(NewHealthHandler(db, stubPinger{}))

	w := doRequest(router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))

	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "feedback-service", body.Service)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "healthy", body.Checks["redis"])
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	db, sqlMock := newMockDB(t)
	sqlMock.ExpectPing().WillReturnError(errors.New("connection refused"))
	router, _, _ := setupRouterWithHealth(NewHealthHandler(db, stubPinger{}))

	w := doRequest(router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Contains(t, body.Checks["database"], "connection refused")
}

func TestHealthEndpoint_CacheDownIsDegraded(t *testing.T) {
	db, sqlMock := newMockDB(t)
	sqlMock.ExpectPing()
	router, _, _ := setupRouterWithHealth(NewHealthHandler(db, stubPinger{err: errors.New("redis down")}))

	w := doRequest(router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unhealthy", body.Checks["redis"])
}

func TestHealthEndpoint_CacheDisabled(t *testing.T) {
	db, sqlMock := newMockDB(t)
	sqlMock.ExpectPing()
	router, _, _ := setupRouterWithHealth(NewHealthHandler(db, nil))

	w := doRequest(router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "disabled", body.Checks["redis"])
}

func TestRequestIDEchoed(t *testing.T) {
	router, reviewService, _ := setupTestRouter()
	reviewService.On("FindAll", mock.Anything).Return([]entity.Review{}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/reviews", nil)
	req.Header.Set(logger.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(logger.RequestIDHeader))
}

func TestCORSAllowsAnyOriginWithCredentials(t *testing.T) {
	router, _, _ := setupTestRouter()

	req, _ := http.NewRequest(http.MethodOptions, "/reviews", nil)
	req.Header.Set("Origin", "http://frontend.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "http://frontend.local", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
