package handler

import (
	"context"
	"net/http"
	"time"

	"feedback/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	statusOK        = "ok"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// Pinger зависимость, которую проверяет /health
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler без БД сервис не работает, без кеша работает медленнее.
// cache может быть nil, если Redis отключен.
type HealthHandler struct {
	db    *gorm.DB
	cache Pinger
}

func NewHealthHandler(db *gorm.DB, cache Pinger) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cache,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, 2)
	status := statusOK

	if err := h.checkDatabase(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status = statusUnhealthy
	} else {
		checks["database"] = "healthy"
	}

	switch {
	case h.cache == nil:
		checks["redis"] = "disabled"
	case h.cache.Ping(ctx) != nil:
		checks["redis"] = "unhealthy"
		if status == statusOK {
			status = statusDegraded
		}
	default:
		checks["redis"] = "healthy"
	}

	code := http.StatusOK
	if status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	if status != statusOK {
		logger.Ctx(c.Request.Context()).Warn().Interface("checks", checks).Msg("Health check failed")
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Service:   serviceName,
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
