package handlers

import (
	"log/slog"
	"net/http"

	"tessera/internal/middleware"
	"tessera/internal/models"

	"github.com/gin-gonic/gin"
)

// ValidateScan - POST /api/checkin
// Classifies a presented redemption token. All four outcomes come back as
// 200: the scanner at the gate needs the classification, not an HTTP
// error to interpret.
func (h *Handlers) ValidateScan(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.CheckIn.Validate(c.Request.Context(), userID, req.Token)
	if err != nil {
		slog.Error("Failed to validate scan", "scanned_by", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate scan"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
