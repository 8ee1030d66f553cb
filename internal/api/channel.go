package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/channel"
	"github.com/lalith-99/galynx/internal/middleware"
)

// ChannelHandler serves channel lifecycle and private-channel membership.
type ChannelHandler struct {
	service *channel.Service
	logger  *zap.Logger
}

func NewChannelHandler(service *channel.Service, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{service: service, logger: logger}
}

type createChannelRequest struct {
	Name      string `json:"name" binding:"required"`
	IsPrivate bool   `json:"is_private"`
}

// Create handles POST /api/v1/channels.
func (h *ChannelHandler) Create(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("name is required"))
		return
	}
	principal := middleware.GetPrincipal(c)
	created, err := h.service.Create(c.Request.Context(), principal, req.Name, req.IsPrivate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, channel.NewView(*created))
}

// List handles GET /api/v1/channels.
func (h *ChannelHandler) List(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	views, err := h.service.List(c.Request.Context(), principal)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

// Get handles GET /api/v1/channels/:channel_id.
func (h *ChannelHandler) Get(c *gin.Context) {
	channelID, err := pathUUID(c, "channel_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	principal := middleware.GetPrincipal(c)
	view, err := h.service.Get(c.Request.Context(), principal, channelID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Delete handles DELETE /api/v1/channels/:channel_id.
func (h *ChannelHandler) Delete(c *gin.Context) {
	channelID, err := pathUUID(c, "channel_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	principal := middleware.GetPrincipal(c)
	if err := h.service.Delete(c.Request.Context(), principal, channelID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMembers handles GET /api/v1/channels/:channel_id/members.
func (h *ChannelHandler) ListMembers(c *gin.Context) {
	channelID, err := pathUUID(c, "channel_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	principal := middleware.GetPrincipal(c)
	members, err := h.service.ListMembers(c.Request.Context(), principal, channelID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": members})
}

type channelMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// AddMember handles POST /api/v1/channels/:channel_id/members.
func (h *ChannelHandler) AddMember(c *gin.Context) {
	channelID, err := pathUUID(c, "channel_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var req channelMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("user_id is required"))
		return
	}
	principal := middleware.GetPrincipal(c)
	if err := h.service.AddMember(c.Request.Context(), principal, channelID, req.UserID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusCreated)
}

// RemoveMember handles DELETE /api/v1/channels/:channel_id/members/:user_id.
func (h *ChannelHandler) RemoveMember(c *gin.Context) {
	channelID, err := pathUUID(c, "channel_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	userID, err := pathUUID(c, "user_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	principal := middleware.GetPrincipal(c)
	if err := h.service.RemoveMember(c.Request.Context(), principal, channelID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// pathUUID parses a UUID path parameter, mapping garbage to bad_request.
func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.BadRequest(name + " must be a valid UUID")
	}
	return id, nil
}
