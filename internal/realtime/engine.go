// Package realtime serves the WebSocket surface: authenticated sessions,
// command dispatch with client-id idempotency, and per-workspace event
// fan-out from the bus.
package realtime

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/audit"
	"github.com/lalith-99/galynx/internal/auth"
	"github.com/lalith-99/galynx/internal/events"
	"github.com/lalith-99/galynx/internal/message"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/ratelimit"
)

// Connection and command budgets, per fixed 60s window.
const (
	connectsPerMinute = 12
	commandsPerMinute = 600
)

type Engine struct {
	secret      string
	messages    *message.Service
	bus         *events.Bus
	recorder    *audit.Recorder
	limiter     ratelimit.Limiter
	idempotency *idempotencyCache
	upgrader    websocket.Upgrader
	sessions    atomic.Int64
	logger      *zap.Logger
}

func NewEngine(
	secret string,
	messages *message.Service,
	bus *events.Bus,
	recorder *audit.Recorder,
	limiter ratelimit.Limiter,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		secret:      secret,
		messages:    messages,
		bus:         bus,
		recorder:    recorder,
		limiter:     limiter,
		idempotency: newIdempotencyCache(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Sessions reports the number of open WebSocket sessions.
func (e *Engine) Sessions() int64 {
	return e.sessions.Load()
}

// Handle serves GET /ws. The client authenticates with either an
// access_token query parameter or an Authorization bearer header; both
// checks run before the upgrade so failures stay plain HTTP responses.
func (e *Engine) Handle(c *gin.Context) {
	principal, err := e.authenticate(c)
	if err != nil {
		appErr := apperr.From(err)
		c.JSON(apperr.HTTPStatus(appErr.Code), appErr.Response())
		return
	}

	key := fmt.Sprintf("ws:connect:%s:%s", ratelimit.ClientIP(c.Request), principal.UserID)
	allowed, err := e.limiter.Allow(c.Request.Context(), key, connectsPerMinute)
	if err != nil {
		e.logger.Warn("connect rate limit check failed", zap.Error(err))
		allowed = true
	}
	if !allowed {
		appErr := apperr.TooManyRequests("connection rate limit exceeded")
		c.JSON(apperr.HTTPStatus(appErr.Code), appErr.Response())
		return
	}

	conn, err := e.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		e.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	e.sessions.Add(1)
	defer e.sessions.Add(-1)

	e.recorder.Record(principal.WorkspaceID, &principal.UserID, audit.ActionWSConnected, "session", nil,
		map[string]any{"ip": ratelimit.ClientIP(c.Request)})

	newSession(e, conn, principal).run()
}

func (e *Engine) authenticate(c *gin.Context) (access.Principal, error) {
	token := c.Query("access_token")
	if token == "" {
		header := c.GetHeader("Authorization")
		if after, ok := strings.CutPrefix(header, "Bearer "); ok {
			token = after
		}
	}
	if token == "" {
		return access.Principal{}, apperr.Unauthorized("missing access token")
	}
	claims, err := auth.ParseAccessToken(token, e.secret)
	if err != nil {
		return access.Principal{}, apperr.Unauthorized("invalid access token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return access.Principal{}, apperr.Unauthorized("invalid access token")
	}
	return access.Principal{
		UserID:      userID,
		WorkspaceID: claims.WorkspaceID,
		Email:       claims.Email,
		Role:        models.Role(claims.Role),
	}, nil
}
