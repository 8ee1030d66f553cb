package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/middleware"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/workspace"
)

// WorkspaceHandler serves workspace listings, creation and workspace
// membership management.
type WorkspaceHandler struct {
	service *workspace.Service
	logger  *zap.Logger
}

func NewWorkspaceHandler(service *workspace.Service, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{service: service, logger: logger}
}

// List handles GET /api/v1/workspaces.
func (h *WorkspaceHandler) List(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	views, err := h.service.List(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

type createWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create handles POST /api/v1/workspaces.
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req createWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("name is required"))
		return
	}
	principal := middleware.GetPrincipal(c)
	created, err := h.service.Create(c.Request.Context(), principal.UserID, req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListMembers handles GET /api/v1/workspaces/:workspace_id/members. The
// path workspace must be the token's workspace; any other id reads as
// not found.
func (h *WorkspaceHandler) ListMembers(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if err := h.matchWorkspace(c); err != nil {
		respondError(c, h.logger, err)
		return
	}
	members, err := h.service.ListMembers(c.Request.Context(), principal)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": members})
}

type addWorkspaceMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Role   string    `json:"role" binding:"required"`
}

// AddMember handles POST /api/v1/workspaces/:workspace_id/members.
func (h *WorkspaceHandler) AddMember(c *gin.Context) {
	if err := h.matchWorkspace(c); err != nil {
		respondError(c, h.logger, err)
		return
	}
	var req addWorkspaceMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("user_id and role are required"))
		return
	}
	principal := middleware.GetPrincipal(c)
	if err := h.service.AddMember(c.Request.Context(), principal, req.UserID, models.Role(req.Role)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *WorkspaceHandler) matchWorkspace(c *gin.Context) error {
	workspaceID, err := pathUUID(c, "workspace_id")
	if err != nil {
		return err
	}
	if workspaceID != middleware.GetPrincipal(c).WorkspaceID {
		return apperr.NotFound("workspace not found")
	}
	return nil
}
