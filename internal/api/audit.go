package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/middleware"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
)

// AuditHandler serves the workspace audit trail.
type AuditHandler struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

func NewAuditHandler(repo repository.AuditRepository, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, logger: logger}
}

// List handles GET /api/v1/audit. Owner or admin only, newest first, same
// cursor rules as message listings.
func (h *AuditHandler) List(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if err := access.RequireAdmin(principal); err != nil {
		respondError(c, h.logger, err)
		return
	}
	cursor, limit, err := pageQuery(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var before *repository.Cursor
	if cursor != "" {
		before, err = repository.ParseCursor(cursor)
		if err != nil {
			respondError(c, h.logger, apperr.BadRequest("invalid cursor"))
			return
		}
	}
	limit = repository.ClampLimit(limit)

	entries, err := h.repo.ListPage(c.Request.Context(), principal.WorkspaceID, before, limit+1)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var nextCursor *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		encoded := repository.EncodeCursor(last.CreatedAt, last.ID)
		nextCursor = &encoded
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"items": entries, "next_cursor": nextCursor})
}
