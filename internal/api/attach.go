package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/attach"
	"github.com/lalith-99/galynx/internal/middleware"
)

// AttachmentHandler serves the presign/commit/get attachment flow.
type AttachmentHandler struct {
	service *attach.Service
	checker *access.Checker
	logger  *zap.Logger
}

func NewAttachmentHandler(service *attach.Service, checker *access.Checker, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{service: service, checker: checker, logger: logger}
}

type presignRequest struct {
	ChannelID   uuid.UUID `json:"channel_id" binding:"required"`
	Filename    string    `json:"filename" binding:"required"`
	ContentType string    `json:"content_type" binding:"required"`
	SizeBytes   int64     `json:"size_bytes" binding:"required"`
}

// Presign handles POST /api/v1/attachments/presign.
func (h *AttachmentHandler) Presign(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("channel_id, filename, content_type and size_bytes are required"))
		return
	}
	principal := middleware.GetPrincipal(c)
	channel, err := h.checker.ResolveChannel(c.Request.Context(), principal, req.ChannelID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	result, err := h.service.Presign(c.Request.Context(), principal, channel, req.Filename, req.ContentType, req.SizeBytes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type commitRequest struct {
	UploadID  string     `json:"upload_id" binding:"required"`
	MessageID *uuid.UUID `json:"message_id"`
}

// Commit handles POST /api/v1/attachments/commit.
func (h *AttachmentHandler) Commit(c *gin.Context) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("upload_id is required"))
		return
	}
	principal := middleware.GetPrincipal(c)
	attachment, err := h.service.Commit(c.Request.Context(), principal, req.UploadID, req.MessageID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, attachment)
}

// Get handles GET /api/v1/attachments/:attachment_id.
func (h *AttachmentHandler) Get(c *gin.Context) {
	attachmentID, err := pathUUID(c, "attachment_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	principal := middleware.GetPrincipal(c)
	attachment, downloadURL, err := h.service.Get(c.Request.Context(), principal, attachmentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attachment": attachment, "download_url": downloadURL})
}
