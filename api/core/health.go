package core

import (
	"context"
	"net/http"
	"time"

	"github.com/anoixa/image-api/cache"
	"github.com/anoixa/image-api/config"
	"github.com/anoixa/image-api/database"
	"github.com/anoixa/image-api/internal/image"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// healthCheckTimeout 单项检查超时
const healthCheckTimeout = 5 * time.Second

// HealthHandler 健康检查
type HealthHandler struct {
	db      database.Provider
	service *image.Service
	cache   cache.Provider
}

// NewHealthHandler 创建健康检查处理器，cache 可为 nil
func NewHealthHandler(db database.Provider, service *image.Service, cacheProvider cache.Provider) *HealthHandler {
	return &HealthHandler{db: db, service: service, cache: cacheProvider}
}

// Handle GET /health
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := gin.H{
		"database": h.checkDatabase(),
		"storage":  h.checkStorage(ctx),
		"cache":    h.checkCache(ctx),
	}

	httpStatus := http.StatusOK
	status := "ok"
	for _, result := range checks {
		if s, _ := result.(string); s != "ok" && s != "disabled" {
			httpStatus = http.StatusServiceUnavailable
			status = "degraded"
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":  status,
		"uptime":  time.Since(startTime).Round(time.Second).String(),
		"version": config.Version,
		"checks":  checks,
	})
}

func (h *HealthHandler) checkDatabase() string {
	if h.db == nil {
		return "not initialized"
	}
	if err := h.db.Ping(); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func (h *HealthHandler) checkStorage(ctx context.Context) string {
	if h.service == nil {
		return "not initialized"
	}
	if err := h.service.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func (h *HealthHandler) checkCache(ctx context.Context) string {
	if h.cache == nil {
		return "disabled"
	}
	if _, err := h.cache.Exists(ctx, "health:probe"); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
