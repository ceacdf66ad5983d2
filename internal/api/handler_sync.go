package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Save handles POST /api/save. A failed remote mirror is reported in the
// returned status, not as an HTTP error.
func (h *Handler) Save(c *gin.Context) {
	status, err := h.coord.Save(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetSync handles GET /api/sync.
func (h *Handler) GetSync(c *gin.Context) {
	c.JSON(http.StatusOK, h.coord.Status())
}

// GetTheme handles GET /api/preferences/theme.
func (h *Handler) GetTheme(c *gin.Context) {
	theme, err := h.coord.Theme(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

type putThemeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

// PutTheme handles PUT /api/preferences/theme.
func (h *Handler) PutTheme(c *gin.Context) {
	var req putThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.coord.SetTheme(c.Request.Context(), req.Theme); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}
