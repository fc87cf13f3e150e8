package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmyVerse/ayursutra-web-sub001/response"
)

const healthTimeout = 2 * time.Second

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := gin.H{"database": "ok"}
	healthy := true

	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.Log.Error("health: database", zap.Error(err))
		checks["database"] = "down"
		healthy = false
	}

	if h.Redis != nil {
		checks["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			h.Log.Error("health: redis", zap.Error(err))
			checks["redis"] = "down"
			healthy = false
		}
	}

	if !healthy {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Service unavailable",
			"checks":  checks,
		})
		return
	}
	response.OK(c, http.StatusOK, gin.H{"checks": checks})
}
