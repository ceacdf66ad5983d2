package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pallet-board-backend/internal/board"
	"pallet-board-backend/internal/printer"
)

// maxScanBytes caps uploaded document photos.
const maxScanBytes = 10 << 20

type editCellRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

func rowIndex(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "index must be an integer")
		return 0, false
	}
	return i, true
}

// GetSas handles GET /api/sas.
func (h *Handler) GetSas(c *gin.Context) {
	var rows []board.SasItem
	h.coord.Read(func(b *board.Board) { rows = b.SasRows() })
	c.JSON(http.StatusOK, rows)
}

// GetSlotCandidates handles GET /api/sas/candidates: rows that can be
// picked into a slot.
func (h *Handler) GetSlotCandidates(c *gin.Context) {
	var rows []board.SasItem
	h.coord.Read(func(b *board.Board) { rows = b.SlotCandidates() })
	c.JSON(http.StatusOK, rows)
}

// ExportSasPDF handles GET /api/sas/export.pdf.
func (h *Handler) ExportSasPDF(c *gin.Context) {
	var (
		pdf []byte
		err error
	)
	h.coord.Read(func(b *board.Board) {
		pdf, err = printer.SasSheetPDF(b.SasRows(), b.Now().In(b.Location()))
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="sas.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// EditSas handles PATCH /api/sas/:index. An index equal to the row count
// appends a new row.
func (h *Handler) EditSas(c *gin.Context) {
	index, ok := rowIndex(c)
	if !ok {
		return
	}
	var req editCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	var rows []board.SasItem
	err := h.coord.Mutate(func(b *board.Board) error {
		if err := b.EditSas(index, req.Field, req.Value); err != nil {
			return err
		}
		rows = b.SasRows()
		return nil
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// DeleteSas handles DELETE /api/sas/:index.
func (h *Handler) DeleteSas(c *gin.Context) {
	index, ok := rowIndex(c)
	if !ok {
		return
	}
	if err := h.coord.Mutate(func(b *board.Board) error { return b.RemoveSas(index) }); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ScanSas handles POST /api/sas/scan: a document photo is read by the
// classifier and appended as a reception row.
func (h *Handler) ScanSas(c *gin.Context) {
	if h.classifier == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "document scanning is not configured"})
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "image is required")
		return
	}
	if fh.Size > maxScanBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer f.Close()
	image, err := io.ReadAll(io.LimitReader(f, maxScanBytes))
	if err != nil {
		abortWithError(c, err)
		return
	}

	ex, err := h.classifier.Classify(c.Request.Context(), image, fh.Header.Get("Content-Type"))
	if err != nil {
		if statusFor(err) == http.StatusUnprocessableEntity {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "Aucune information détectée. Veuillez réessayer."})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Erreur lors de l'analyse du document."})
		return
	}

	var (
		item  board.SasItem
		added bool
	)
	h.coord.Mutate(func(b *board.Board) error {
		item, added = b.AddSas(ex.OrderNumber, ex.ClientName, ex.Flux)
		return nil
	})
	if !added {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "Aucune information détectée. Veuillez réessayer."})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"item":     item,
		"complete": item.OrderNumber != "" && item.ClientName != "",
	})
}

// GetReturns handles GET /api/returns.
func (h *Handler) GetReturns(c *gin.Context) {
	var rows []board.ReturnItem
	h.coord.Read(func(b *board.Board) { rows = b.ReturnRows() })
	c.JSON(http.StatusOK, rows)
}

// GetReturnCandidates handles GET /api/returns/candidates: SAS rows with
// flux RET.
func (h *Handler) GetReturnCandidates(c *gin.Context) {
	var rows []board.SasItem
	h.coord.Read(func(b *board.Board) { rows = b.ReturnCandidates() })
	c.JSON(http.StatusOK, rows)
}

// ExportReturns handles GET /api/returns/export[?ids=a,b].
func (h *Handler) ExportReturns(c *gin.Context) {
	var ids []string
	for _, id := range strings.Split(c.Query("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	var tsv string
	h.coord.Read(func(b *board.Board) { tsv = board.ReturnsTSV(b.ReturnRows(), ids) })
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(tsv))
}

// EditReturn handles PATCH /api/returns/:index.
func (h *Handler) EditReturn(c *gin.Context) {
	index, ok := rowIndex(c)
	if !ok {
		return
	}
	var req editCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	var rows []board.ReturnItem
	err := h.coord.Mutate(func(b *board.Board) error {
		if err := b.EditReturn(index, req.Field, req.Value); err != nil {
			return err
		}
		rows = b.ReturnRows()
		return nil
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// DeleteReturn handles DELETE /api/returns/:index.
func (h *Handler) DeleteReturn(c *gin.Context) {
	index, ok := rowIndex(c)
	if !ok {
		return
	}
	if err := h.coord.Mutate(func(b *board.Board) error { return b.RemoveReturn(index) }); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearReturns handles DELETE /api/returns.
func (h *Handler) ClearReturns(c *gin.Context) {
	h.coord.Mutate(func(b *board.Board) error {
		b.ClearReturns()
		return nil
	})
	c.Status(http.StatusNoContent)
}

// ImportReturn handles POST /api/returns/import/:sasId.
func (h *Handler) ImportReturn(c *gin.Context) {
	var item board.ReturnItem
	err := h.coord.Mutate(func(b *board.Board) error {
		var err error
		item, err = b.ImportSasToReturns(c.Param("sasId"))
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetArchives handles GET /api/archives[?q=].
func (h *Handler) GetArchives(c *gin.Context) {
	var entries []board.ArchiveEntry
	h.coord.Read(func(b *board.Board) { entries = b.SearchArchives(c.Query("q")) })
	if entries == nil {
		entries = []board.ArchiveEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// ClearArchives handles DELETE /api/archives.
func (h *Handler) ClearArchives(c *gin.Context) {
	h.coord.Mutate(func(b *board.Board) error {
		b.ClearArchives()
		return nil
	})
	c.Status(http.StatusNoContent)
}
