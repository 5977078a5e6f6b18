package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"birthdayreminder/middleware"
)

// NewRouter wires every route. metrics may be nil to disable /metrics.
func NewRouter(h *Handler, parser middleware.TokenParser, log zerolog.Logger, metrics http.Handler) *gin.Engine {
	RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	r.GET("/healthz", h.Health)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	api := r.Group("/api/v1")
	{
		api.POST("/user/register", h.Register)
		api.POST("/user/login", h.Login)
		api.POST("/token/refresh", h.Refresh)
		api.POST("/token/logout", h.Logout)

		authed := api.Group("", middleware.AuthRequired(parser))
		authed.GET("/user/me", h.Me)
		authed.POST("/subscriptions", h.Follow)
		authed.DELETE("/subscriptions/:followed_id", h.Unfollow)
		authed.GET("/notifications", h.ListNotifications)
	}

	return r
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
