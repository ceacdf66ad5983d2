package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pallet-board-backend/internal/layout"
	"pallet-board-backend/internal/printer"
)

// GetLayout handles GET /api/layout. The optional section selects a third of
// the rack (1..3); anything else returns the full grid.
func GetLayout() gin.HandlerFunc {
	return func(c *gin.Context) {
		section := 0
		if raw := c.Query("section"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 || n >= len(layout.Sections) {
				badRequest(c, "section must be between 0 and 3")
				return
			}
			section = n
		}
		c.JSON(http.StatusOK, gin.H{
			"grid":      layout.BuildGrid(section),
			"sections":  layout.Sections,
			"locations": layout.GenerateAllLocationIDs(),
		})
	}
}

// GetLabelsPDF handles GET /api/layout/labels.pdf.
func GetLabelsPDF() gin.HandlerFunc {
	return func(c *gin.Context) {
		pdf, err := printer.LocationLabelsPDF(layout.GenerateAllLocationIDs())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Header("Content-Disposition", `inline; filename="etiquettes.pdf"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}
