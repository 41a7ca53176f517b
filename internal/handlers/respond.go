// scholarship-system/internal/handlers/respond.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
)

// respondError maps a service error to the JSON error envelope. Typed errors
// keep their message (they already name the entity involved); anything else
// is logged and hidden behind a 500.
func respondError(c *gin.Context, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		c.JSON(ae.Status, gin.H{"error": ae.Message})
		return
	}
	var be *apperr.BatchImportError
	if errors.As(err, &be) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   be.Error(),
			"batchId": be.BatchID,
			"row":     be.Row,
		})
		return
	}
	slog.Error("unhandled error", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
