package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/message"
	"github.com/lalith-99/galynx/internal/middleware"
)

// MessageHandler serves channel messages, threads and reactions.
type MessageHandler struct {
	service *message.Service
	logger  *zap.Logger
}

func NewMessageHandler(service *message.Service, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{service: service, logger: logger}
}

type createMessageRequest struct {
	BodyMD       string     `json:"body_md" binding:"required"`
	ThreadRootID *uuid.UUID `json:"thread_root_id"`
}

// Create handles POST /api/v1/channels/:channel_id/messages.
func (h *MessageHandler) Create(c *gin.Context) {
	channelID, err := pathUUID(c, "channel_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("body_md is required"))
		return
	}
	principal := middleware.GetPrincipal(c)
	created, err := h.service.Create(c.Request.Context(), principal, channelID, req.BodyMD, req.ThreadRootID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, message.NewView(*created))
}

// List handles GET /api/v1/channels/:channel_id/messages.
func (h *MessageHandler) List(c *gin.Context) {
	channelID, err := pathUUID(c, "channel_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	cursor, limit, err := pageQuery(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	principal := middleware.GetPrincipal(c)
	page, err := h.service.ListChannel(c.Request.Context(), principal, channelID, cursor, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type editMessageRequest struct {
	BodyMD string `json:"body_md" binding:"required"`
}

// Edit handles PATCH /api/v1/messages/:message_id.
func (h *MessageHandler) Edit(c *gin.Context) {
	messageID, err := pathUUID(c, "message_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("body_md is required"))
		return
	}
	principal := middleware.GetPrincipal(c)
	edited, err := h.service.Edit(c.Request.Context(), principal, messageID, req.BodyMD)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, message.NewView(*edited))
}

// Delete handles DELETE /api/v1/messages/:message_id. Deletion is a soft
// tombstone, so the response carries the tombstoned view.
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, err := pathUUID(c, "message_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	principal := middleware.GetPrincipal(c)
	deleted, err := h.service.Delete(c.Request.Context(), principal, messageID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, message.NewView(*deleted))
}

type reactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// AddReaction handles POST /api/v1/messages/:message_id/reactions.
func (h *MessageHandler) AddReaction(c *gin.Context) {
	h.react(c, true)
}

// RemoveReaction handles DELETE /api/v1/messages/:message_id/reactions.
func (h *MessageHandler) RemoveReaction(c *gin.Context) {
	h.react(c, false)
}

func (h *MessageHandler) react(c *gin.Context, add bool) {
	messageID, err := pathUUID(c, "message_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("emoji is required"))
		return
	}
	principal := middleware.GetPrincipal(c)
	update, err := h.service.React(c.Request.Context(), principal, messageID, req.Emoji, add)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, update)
}

// ThreadSummary handles GET /api/v1/threads/:root_id.
func (h *MessageHandler) ThreadSummary(c *gin.Context) {
	rootID, err := pathUUID(c, "root_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	principal := middleware.GetPrincipal(c)
	summary, err := h.service.ThreadSummary(c.Request.Context(), principal, rootID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListReplies handles GET /api/v1/threads/:root_id/replies.
func (h *MessageHandler) ListReplies(c *gin.Context) {
	rootID, err := pathUUID(c, "root_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	cursor, limit, err := pageQuery(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	principal := middleware.GetPrincipal(c)
	page, err := h.service.ListThreadReplies(c.Request.Context(), principal, rootID, cursor, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type createReplyRequest struct {
	BodyMD string `json:"body_md" binding:"required"`
}

// CreateReply handles POST /api/v1/threads/:root_id/replies.
func (h *MessageHandler) CreateReply(c *gin.Context) {
	rootID, err := pathUUID(c, "root_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var req createReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.BadRequest("body_md is required"))
		return
	}
	principal := middleware.GetPrincipal(c)
	created, err := h.service.CreateReply(c.Request.Context(), principal, rootID, req.BodyMD)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, message.NewView(*created))
}

// pageQuery reads the shared cursor and limit query parameters.
func pageQuery(c *gin.Context) (string, int, error) {
	cursor := c.Query("cursor")
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return "", 0, apperr.BadRequest("limit must be an integer")
		}
		limit = parsed
	}
	return cursor, limit, nil
}
