package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/metrics"
	"github.com/lalith-99/galynx/internal/middleware"
	"github.com/lalith-99/galynx/internal/realtime"
)

// HealthChecker reports whether one backing dependency is reachable.
type HealthChecker func(ctx context.Context) error

// RouterConfig bundles everything the router mounts.
type RouterConfig struct {
	JWTSecret string

	Auth        *AuthHandler
	Users       *UserHandler
	Workspaces  *WorkspaceHandler
	Channels    *ChannelHandler
	Messages    *MessageHandler
	Attachments *AttachmentHandler
	Audit       *AuditHandler
	Realtime    *realtime.Engine

	// Metrics is nil when METRICS_ENABLED is off; the endpoint then 404s
	// and no per-request observation happens.
	Metrics *metrics.Registry

	// Readiness checks run on GET /ready. Empty means always ready.
	Readiness map[string]HealthChecker

	Logger *zap.Logger
}

// NewRouter assembles the gin engine: public auth routes, the
// authenticated /api/v1 group, the WebSocket endpoint and the operational
// endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", readyHandler(cfg.Readiness))
	if cfg.Metrics != nil {
		router.GET("/metrics", cfg.Metrics.Handler())
	}
	router.GET("/openapi.json", openAPIHandler)

	router.GET("/ws", cfg.Realtime.Handle)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", cfg.Auth.Login)
	v1.POST("/auth/refresh", cfg.Auth.Refresh)
	v1.POST("/auth/logout", cfg.Auth.Logout)

	authed := v1.Group("")
	authed.Use(middleware.Authenticate(cfg.JWTSecret))

	authed.GET("/me", cfg.Users.Me)
	authed.GET("/users", cfg.Users.List)
	authed.POST("/users", cfg.Users.Create)

	authed.GET("/workspaces", cfg.Workspaces.List)
	authed.POST("/workspaces", cfg.Workspaces.Create)
	authed.GET("/workspaces/:workspace_id/members", cfg.Workspaces.ListMembers)
	authed.POST("/workspaces/:workspace_id/members", cfg.Workspaces.AddMember)

	authed.GET("/channels", cfg.Channels.List)
	authed.POST("/channels", cfg.Channels.Create)
	authed.GET("/channels/:channel_id", cfg.Channels.Get)
	authed.DELETE("/channels/:channel_id", cfg.Channels.Delete)
	authed.GET("/channels/:channel_id/members", cfg.Channels.ListMembers)
	authed.POST("/channels/:channel_id/members", cfg.Channels.AddMember)
	authed.DELETE("/channels/:channel_id/members/:user_id", cfg.Channels.RemoveMember)

	authed.GET("/channels/:channel_id/messages", cfg.Messages.List)
	authed.POST("/channels/:channel_id/messages", cfg.Messages.Create)
	authed.PATCH("/messages/:message_id", cfg.Messages.Edit)
	authed.DELETE("/messages/:message_id", cfg.Messages.Delete)
	authed.POST("/messages/:message_id/reactions", cfg.Messages.AddReaction)
	authed.DELETE("/messages/:message_id/reactions", cfg.Messages.RemoveReaction)

	authed.GET("/threads/:root_id", cfg.Messages.ThreadSummary)
	authed.GET("/threads/:root_id/replies", cfg.Messages.ListReplies)
	authed.POST("/threads/:root_id/replies", cfg.Messages.CreateReply)

	authed.POST("/attachments/presign", cfg.Attachments.Presign)
	authed.POST("/attachments/commit", cfg.Attachments.Commit)
	authed.GET("/attachments/:attachment_id", cfg.Attachments.Get)

	authed.GET("/audit", cfg.Audit.List)

	return router
}

// requestLogger emits one structured line per request after it completes.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// readyHandler pings each configured dependency with a short deadline and
// reports 503 when any fails.
func readyHandler(checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		c.JSON(status, gin.H{"checks": results})
	}
}
