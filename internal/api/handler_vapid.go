package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pallet-board-backend/internal/model"
)

// GetVAPIDPublicKey returns the VAPID public key and the topics a browser
// may subscribe to.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vapid keys are not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"public_key": h.webpush.VAPIDPublicKey,
		"topics":     model.Topics,
	})
}
