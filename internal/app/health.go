package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /healthz
func (a *App) HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /readyz
func (a *App) ReadyHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := a.Store.Ping(ctx); err != nil {
		a.Logger.Warn("readiness check failed", zap.Error(err))
		c.String(http.StatusServiceUnavailable, "db: "+err.Error())
		return
	}
	c.String(http.StatusOK, "ok")
}
