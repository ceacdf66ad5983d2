package board

import (
	"fmt"
	"strings"
)

// SasItem is a row of the reception staging buffer.
type SasItem struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	Flux        Flux   `json:"flux"`
	ClientName  string `json:"clientName"`
	Date        string `json:"date"`
	Info        string `json:"info,omitempty"`
	Comment     string `json:"comment,omitempty"`
	CreatedAt   int64  `json:"createdAt,omitempty"`
}

// ReturnItem is a row of the store-returns staging buffer.
type ReturnItem struct {
	ID           string `json:"id"`
	ReturnNumber string `json:"returnNumber"`
	ClientName   string `json:"clientName"`
	Date         string `json:"date"`
	CreatedAt    int64  `json:"createdAt,omitempty"`
	ArchivedAt   int64  `json:"archivedAt,omitempty"`
}

// rowKind describes how a buffer builds, edits and identifies its rows.
type rowKind[T any] struct {
	fresh func(id, date string) T
	set   func(row *T, field, value string) error
	blank func(row T) bool
	id    func(row T) string
}

var sasKind = rowKind[SasItem]{
	fresh: func(id, date string) SasItem { return SasItem{ID: id, Date: date} },
	set: func(row *SasItem, field, value string) error {
		switch field {
		case "orderNumber":
			row.OrderNumber = NormalizeNumber(value)
		case "clientName":
			row.ClientName = value
		case "flux":
			f, err := ParseFlux(value)
			if err != nil {
				return err
			}
			row.Flux = f
		case "date":
			row.Date = value
		case "info":
			row.Info = value
		case "comment":
			row.Comment = value
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		return nil
	},
	blank: func(row SasItem) bool {
		return strings.TrimSpace(row.OrderNumber) == "" && strings.TrimSpace(row.ClientName) == ""
	},
	id: func(row SasItem) string { return row.ID },
}

var returnKind = rowKind[ReturnItem]{
	fresh: func(id, date string) ReturnItem { return ReturnItem{ID: id, Date: date} },
	set: func(row *ReturnItem, field, value string) error {
		switch field {
		case "returnNumber":
			row.ReturnNumber = NormalizeNumber(value)
		case "clientName":
			row.ClientName = value
		case "date":
			row.Date = value
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		return nil
	},
	blank: func(row ReturnItem) bool {
		return strings.TrimSpace(row.ReturnNumber) == "" && strings.TrimSpace(row.ClientName) == ""
	},
	id: func(row ReturnItem) string { return row.ID },
}

// Buffer is an ordered staging sequence. Entry order is display order and
// no fully blank row survives an edit.
type Buffer[T any] struct {
	kind rowKind[T]
	rows []T
}

// NewSasBuffer returns an empty reception buffer.
func NewSasBuffer() *Buffer[SasItem] { return &Buffer[SasItem]{kind: sasKind} }

// NewReturnBuffer returns an empty returns buffer.
func NewReturnBuffer() *Buffer[ReturnItem] { return &Buffer[ReturnItem]{kind: returnKind} }

// EditCell sets one field of the row at index. An index at or past the end
// materializes a new row with the given id and date. The buffer is compacted
// afterwards. A failed edit leaves the buffer untouched.
func (b *Buffer[T]) EditCell(index int, field, value, newID, today string) error {
	if index < 0 {
		return fmt.Errorf("%w: index %d", ErrRowNotFound, index)
	}
	next := b.Rows()
	if index >= len(next) {
		next = append(next, b.kind.fresh(newID, today))
		index = len(next) - 1
	}
	if err := b.kind.set(&next[index], field, value); err != nil {
		return err
	}
	b.rows = b.compact(next)
	return nil
}

// RemoveRow splices out the row at index.
func (b *Buffer[T]) RemoveRow(index int) (T, error) {
	var zero T
	if index < 0 || index >= len(b.rows) {
		return zero, fmt.Errorf("%w: index %d", ErrRowNotFound, index)
	}
	removed := b.rows[index]
	next := make([]T, 0, len(b.rows)-1)
	next = append(next, b.rows[:index]...)
	next = append(next, b.rows[index+1:]...)
	b.rows = next
	return removed, nil
}

// RemoveByID removes the row with the given id.
func (b *Buffer[T]) RemoveByID(id string) (T, error) {
	var zero T
	i := b.IndexOf(id)
	if i < 0 {
		return zero, fmt.Errorf("%w: id %q", ErrRowNotFound, id)
	}
	return b.RemoveRow(i)
}

// Find returns the row with the given id.
func (b *Buffer[T]) Find(id string) (T, bool) {
	var zero T
	i := b.IndexOf(id)
	if i < 0 {
		return zero, false
	}
	return b.rows[i], true
}

// IndexOf returns the position of id, or -1.
func (b *Buffer[T]) IndexOf(id string) int {
	for i, r := range b.rows {
		if b.kind.id(r) == id {
			return i
		}
	}
	return -1
}

// Append adds a row at the end. Blank rows are dropped.
func (b *Buffer[T]) Append(row T) {
	if b.kind.blank(row) {
		return
	}
	b.rows = append(b.Rows(), row)
}

// Clear empties the buffer.
func (b *Buffer[T]) Clear() { b.rows = nil }

// Replace swaps the whole sequence, compacting it.
func (b *Buffer[T]) Replace(rows []T) {
	b.rows = b.compact(rows)
}

// Rows returns a copy of the sequence.
func (b *Buffer[T]) Rows() []T {
	out := make([]T, len(b.rows))
	copy(out, b.rows)
	return out
}

// Len returns the number of rows.
func (b *Buffer[T]) Len() int { return len(b.rows) }

func (b *Buffer[T]) compact(rows []T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if !b.kind.blank(r) {
			out = append(out, r)
		}
	}
	return out
}
