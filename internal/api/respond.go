// Package api holds the gin handlers for the versioned HTTP surface.
// Handlers parse and validate the wire shapes; domain rules live in the
// services they call.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/apperr"
)

// respondError maps any error to its wire envelope. Non-domain errors are
// logged with their cause and surface as a generic internal_error.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	appErr := apperr.From(err)
	if appErr.Code == apperr.CodeInternal {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(apperr.HTTPStatus(appErr.Code), appErr.Response())
}
