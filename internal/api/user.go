package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/middleware"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/user"
)

// UserHandler serves user provisioning and the caller's own profile.
type UserHandler struct {
	service *user.Service
	logger  *zap.Logger
}

func NewUserHandler(service *user.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// Me handles GET /api/v1/me.
func (h *UserHandler) Me(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	view, err := h.service.Me(c.Request.Context(), principal)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	views, err := h.service.List(c.Request.Context(), principal)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

type createUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("email, name, password and role are required"))
		return
	}
	principal := middleware.GetPrincipal(c)
	view, err := h.service.Create(c.Request.Context(), principal, req.Email, req.Name, req.Password, models.Role(req.Role))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}
