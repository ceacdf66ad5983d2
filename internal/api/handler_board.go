package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pallet-board-backend/internal/board"
	"pallet-board-backend/internal/layout"
)

// slotView decorates a slot with display metadata.
type slotView struct {
	board.Slot
	ShortLabel  string        `json:"shortLabel"`
	LongLabel   string        `json:"longLabel"`
	Position    string        `json:"position,omitempty"`
	StatusLabel string        `json:"statusLabel"`
	Urgency     board.Urgency `json:"urgency,omitempty"`
}

func (h *Handler) view(b *board.Board, slot board.Slot) slotView {
	v := slotView{
		Slot:        slot,
		ShortLabel:  layout.ShortLabel(slot.LocationID),
		LongLabel:   layout.LongLabel(slot.LocationID),
		Position:    layout.PositionWord(slot.LocationID),
		StatusLabel: slot.Status.Label(),
	}
	if slot.Order != nil {
		v.Urgency = board.DateUrgency(slot.Order.Date, b.Now().In(b.Location()))
	}
	return v
}

func (h *Handler) views(b *board.Board, slots []board.Slot) []slotView {
	out := make([]slotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, h.view(b, s))
	}
	return out
}

// parseFilter reads ?status=, ?filter=ENCOURS and ?q=.
func parseFilter(c *gin.Context) (board.Filter, error) {
	f := board.Filter{Query: c.Query("q")}
	if strings.EqualFold(c.Query("filter"), board.FilterInProgress) || strings.EqualFold(c.Query("status"), board.FilterInProgress) {
		f.InProgress = true
		return f, nil
	}
	if raw := c.Query("status"); raw != "" {
		s, err := board.ParseStatus(strings.ToUpper(raw))
		if err != nil {
			return board.Filter{}, err
		}
		f.Status = s
	}
	return f, nil
}

// GetBoard handles GET /api/board: the whole aggregate plus sync state.
func (h *Handler) GetBoard(c *gin.Context) {
	var resp gin.H
	h.coord.Read(func(b *board.Board) {
		resp = gin.H{
			"slots":    h.views(b, b.Slots()),
			"sas":      b.SasRows(),
			"returns":  b.ReturnRows(),
			"archives": b.Archives(),
			"stats":    b.Stats(),
			"today":    b.Today(),
		}
	})
	resp["sync"] = h.coord.Status()
	c.JSON(http.StatusOK, resp)
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(c *gin.Context) {
	var st board.Stats
	h.coord.Read(func(b *board.Board) { st = b.Stats() })
	c.JSON(http.StatusOK, st)
}

// ListSlots handles GET /api/slots.
func (h *Handler) ListSlots(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	var out []slotView
	h.coord.Read(func(b *board.Board) { out = h.views(b, b.List(f)) })
	c.JSON(http.StatusOK, out)
}

// ExportSlots handles GET /api/slots/export as tab separated text.
func (h *Handler) ExportSlots(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	var tsv string
	h.coord.Read(func(b *board.Board) { tsv = board.ExportTSV(b.List(f)) })

	body, contentType := []byte(tsv), "text/tab-separated-values; charset=utf-8"
	if strings.EqualFold(c.Query("charset"), "windows-1252") {
		body, err = board.EncodeWindows1252(tsv)
		if err != nil {
			abortWithError(c, err)
			return
		}
		contentType = "text/tab-separated-values; charset=windows-1252"
	}
	c.Header("Content-Disposition", `attachment; filename="emplacements.tsv"`)
	c.Data(http.StatusOK, contentType, body)
}

// GetSlot handles GET /api/slots/:id.
func (h *Handler) GetSlot(c *gin.Context) {
	var (
		v   slotView
		err error
	)
	h.coord.Read(func(b *board.Board) {
		var slot board.Slot
		if slot, err = b.Slot(c.Param("id")); err == nil {
			v = h.view(b, slot)
		}
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GetSlotLine handles GET /api/slots/:id/line.
func (h *Handler) GetSlotLine(c *gin.Context) {
	var (
		slot board.Slot
		err  error
	)
	h.coord.Read(func(b *board.Board) { slot, err = b.Slot(c.Param("id")) })
	if err != nil {
		abortWithError(c, err)
		return
	}
	line, ok := board.SlotLine(slot)
	if !ok {
		abortWithError(c, board.ErrNoOrder)
		return
	}
	c.String(http.StatusOK, line)
}

type putSlotRequest struct {
	Status string       `json:"status" binding:"required"`
	Order  *board.Order `json:"order"`
}

// PutSlot handles PUT /api/slots/:id.
func (h *Handler) PutSlot(c *gin.Context) {
	var req putSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	status, err := board.ParseStatus(req.Status)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if req.Order != nil {
		req.Order.OrderNumber = board.NormalizeNumber(req.Order.OrderNumber)
	}
	h.mutateSlot(c, func(b *board.Board) (board.Slot, error) {
		return b.Assign(c.Param("id"), status, req.Order)
	})
}

// DeleteSlot handles DELETE /api/slots/:id.
func (h *Handler) DeleteSlot(c *gin.Context) {
	var archived bool
	err := h.coord.Mutate(func(b *board.Board) error {
		var err error
		archived, err = b.Clear(c.Param("id"))
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": archived})
}

// MoveToReturns handles POST /api/slots/:id/returns.
func (h *Handler) MoveToReturns(c *gin.Context) {
	var (
		item  board.ReturnItem
		moved bool
	)
	err := h.coord.Mutate(func(b *board.Board) error {
		var err error
		item, moved, err = b.MoveToReturns(c.Param("id"))
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !moved {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, item)
}

type transferRequest struct {
	Target string `json:"target" binding:"required"`
}

// CopySlot handles POST /api/slots/:id/copy.
func (h *Handler) CopySlot(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.mutateSlot(c, func(b *board.Board) (board.Slot, error) {
		return b.CopySlot(c.Param("id"), req.Target)
	})
}

// MoveSlot handles POST /api/slots/:id/move.
func (h *Handler) MoveSlot(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.mutateSlot(c, func(b *board.Board) (board.Slot, error) {
		return b.MoveSlot(c.Param("id"), req.Target)
	})
}

// PickFromSas handles POST /api/slots/:id/pick/:sasId.
func (h *Handler) PickFromSas(c *gin.Context) {
	h.mutateSlot(c, func(b *board.Board) (board.Slot, error) {
		return b.PickFromSas(c.Param("id"), c.Param("sasId"))
	})
}

// mutateSlot runs a slot-producing mutation and writes the decorated slot.
func (h *Handler) mutateSlot(c *gin.Context, fn func(b *board.Board) (board.Slot, error)) {
	var v slotView
	err := h.coord.Mutate(func(b *board.Board) error {
		slot, err := fn(b)
		if err != nil {
			return err
		}
		v = h.view(b, slot)
		return nil
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
