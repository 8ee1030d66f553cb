package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/auth"
	"github.com/lalith-99/galynx/internal/ratelimit"
)

// loginsPerMinute is the per (ip, email) budget for POST /auth/login.
const loginsPerMinute = 30

// AuthHandler serves login, refresh and logout, the only public endpoints.
type AuthHandler struct {
	service *auth.Service
	limiter ratelimit.Limiter
	logger  *zap.Logger
}

func NewAuthHandler(service *auth.Service, limiter ratelimit.Limiter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, limiter: limiter, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("email and password are required"))
		return
	}

	key := "login:" + ratelimit.ClientIP(c.Request) + ":" + req.Email
	allowed, err := h.limiter.Allow(c.Request.Context(), key, loginsPerMinute)
	if err != nil {
		h.logger.Warn("login rate limiter unavailable", zap.Error(err))
		allowed = true
	}
	if !allowed {
		respondError(c, h.logger, apperr.TooManyRequests("too many login attempts"))
		return
	}

	pair, _, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("refresh_token is required"))
		return
	}
	pair, _, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout handles POST /api/v1/auth/logout. Revoking an unknown or
// already-revoked token still returns 204.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("refresh_token is required"))
		return
	}
	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
