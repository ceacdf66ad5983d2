package board

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Board is the aggregate root: slots, both staging buffers and the archive.
// It is not safe for concurrent use; the coordinator serializes access.
type Board struct {
	slots   *SlotStore
	sas     *Buffer[SasItem]
	returns *Buffer[ReturnItem]
	archive *ArchiveLog

	revision uint64

	now   func() time.Time
	newID func() string
	loc   *time.Location
}

// Option configures a Board.
type Option func(*Board)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// WithIDGenerator overrides the row/order id generator.
func WithIDGenerator(gen func() string) Option {
	return func(b *Board) { b.newID = gen }
}

// WithLocation sets the timezone used for "DD/MM" dates.
func WithLocation(loc *time.Location) Option {
	return func(b *Board) { b.loc = loc }
}

// New creates a board with every location EMPTY and empty buffers.
func New(opts ...Option) *Board {
	b := &Board{
		slots:   NewSlotStore(),
		sas:     NewSasBuffer(),
		returns: NewReturnBuffer(),
		archive: &ArchiveLog{},
		now:     time.Now,
		newID:   uuid.NewString,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Revision increases on every mutation.
func (b *Board) Revision() uint64 { return b.revision }

func (b *Board) touch() { b.revision++ }

// Today returns the current "DD/MM" date.
func (b *Board) Today() string { return DayMonth(b.now(), b.loc) }

// Now returns the board clock.
func (b *Board) Now() time.Time { return b.now() }

// Location returns the board timezone.
func (b *Board) Location() *time.Location { return b.loc }

// Slot returns the slot at id.
func (b *Board) Slot(id string) (Slot, error) {
	slot, ok := b.slots.Get(id)
	if !ok {
		return Slot{}, fmt.Errorf("%w: %s", ErrUnknownLocation, id)
	}
	return slot, nil
}

// Slots returns every slot in list order.
func (b *Board) Slots() []Slot { return b.slots.Values() }

// SasRows returns the reception buffer.
func (b *Board) SasRows() []SasItem { return b.sas.Rows() }

// ReturnRows returns the returns buffer.
func (b *Board) ReturnRows() []ReturnItem { return b.returns.Rows() }

// Archives returns the archive log, newest first.
func (b *Board) Archives() []ArchiveEntry { return b.archive.Entries() }

// SearchArchives filters the archive log.
func (b *Board) SearchArchives(query string) []ArchiveEntry { return b.archive.Search(query) }

// Assign writes status and order into a slot. EMPTY behaves like Clear.
// The order keeps the id and entry time of the order it replaces; a missing
// entry time is stamped with now. Tournée only applies to BLANC.
func (b *Board) Assign(id string, status Status, draft *Order) (Slot, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return Slot{}, err
	}
	if status == StatusEmpty {
		_, err := b.Clear(id)
		if err != nil {
			return Slot{}, err
		}
		return b.Slot(id)
	}
	current, err := b.Slot(id)
	if err != nil {
		return Slot{}, err
	}

	order := Order{}
	if draft != nil {
		order = *draft
	}
	if current.Order != nil {
		if order.ID == "" {
			order.ID = current.Order.ID
		}
		if order.CreatedAt == 0 {
			order.CreatedAt = current.Order.CreatedAt
		}
	}
	if order.ID == "" {
		order.ID = b.newID()
	}
	if order.CreatedAt == 0 {
		order.CreatedAt = millis(b.now())
	}
	if status != StatusBlanc {
		order.Tournee = ""
	}

	b.slots.Set(id, status, &order)
	b.touch()
	return b.Slot(id)
}

// Clear empties a slot, archiving the evicted order first. It reports
// whether an archive entry was written.
func (b *Board) Clear(id string) (bool, error) {
	current, err := b.Slot(id)
	if err != nil {
		return false, err
	}
	archived := false
	if current.Order != nil {
		archived = b.archive.Record(*current.Order, id, b.now())
	}
	b.slots.Set(id, StatusEmpty, nil)
	b.touch()
	return archived, nil
}

// MoveToReturns turns the slot's order into a return row dated today and
// clears the slot. A slot without an order is left alone and ok is false.
func (b *Board) MoveToReturns(id string) (item ReturnItem, ok bool, err error) {
	current, err := b.Slot(id)
	if err != nil {
		return ReturnItem{}, false, err
	}
	if current.Order == nil {
		return ReturnItem{}, false, nil
	}
	item = ReturnItem{
		ID:           b.newID(),
		ReturnNumber: current.Order.OrderNumber,
		ClientName:   current.Order.ClientName,
		Date:         b.Today(),
		CreatedAt:    current.Order.CreatedAt,
	}
	b.returns.Append(item)
	if _, err := b.Clear(id); err != nil {
		return ReturnItem{}, false, err
	}
	return item, true, nil
}

// CopySlot duplicates the order and status of src into dst under a new id.
func (b *Board) CopySlot(src, dst string) (Slot, error) {
	from, err := b.Slot(src)
	if err != nil {
		return Slot{}, err
	}
	if _, err := b.Slot(dst); err != nil {
		return Slot{}, err
	}
	if from.Order == nil {
		return Slot{}, fmt.Errorf("%w: %s", ErrNoOrder, src)
	}
	order := *from.Order
	order.ID = b.newID()
	b.slots.Set(dst, from.Status, &order)
	b.touch()
	return b.Slot(dst)
}

// MoveSlot relocates the order and status of src into dst in one step.
// The pallet stays in the warehouse, so nothing is archived.
func (b *Board) MoveSlot(src, dst string) (Slot, error) {
	from, err := b.Slot(src)
	if err != nil {
		return Slot{}, err
	}
	if _, err := b.Slot(dst); err != nil {
		return Slot{}, err
	}
	if from.Order == nil {
		return Slot{}, fmt.Errorf("%w: %s", ErrNoOrder, src)
	}
	if src == dst {
		return from, nil
	}
	b.slots.Set(dst, from.Status, from.Order)
	b.slots.Set(src, StatusEmpty, nil)
	b.touch()
	return b.Slot(dst)
}

// PickFromSas fills a slot from a reception row and removes the row. The
// slot becomes JAUNE with date NEW.
func (b *Board) PickFromSas(slotID, sasID string) (Slot, error) {
	current, err := b.Slot(slotID)
	if err != nil {
		return Slot{}, err
	}
	row, ok := b.sas.Find(sasID)
	if !ok {
		return Slot{}, fmt.Errorf("%w: id %q", ErrRowNotFound, sasID)
	}

	draft := Order{}
	if current.Order != nil {
		draft = *current.Order
	}
	draft.OrderNumber = row.OrderNumber
	draft.ClientName = row.ClientName
	draft.Flux = row.Flux
	draft.Date = DateNew

	slot, err := b.Assign(slotID, StatusJaune, &draft)
	if err != nil {
		return Slot{}, err
	}
	if _, err := b.sas.RemoveByID(sasID); err != nil {
		return Slot{}, err
	}
	return slot, nil
}

// ImportSasToReturns moves a reception row into the returns buffer.
func (b *Board) ImportSasToReturns(sasID string) (ReturnItem, error) {
	row, ok := b.sas.Find(sasID)
	if !ok {
		return ReturnItem{}, fmt.Errorf("%w: id %q", ErrRowNotFound, sasID)
	}
	item := ReturnItem{
		ID:           b.newID(),
		ReturnNumber: row.OrderNumber,
		ClientName:   row.ClientName,
		Date:         row.Date,
	}
	if item.Date == "" {
		item.Date = b.Today()
	}
	b.returns.Append(item)
	if _, err := b.sas.RemoveByID(sasID); err != nil {
		return ReturnItem{}, err
	}
	b.touch()
	return item, nil
}

// EditSas edits one cell of the reception buffer.
func (b *Board) EditSas(index int, field, value string) error {
	if err := b.sas.EditCell(index, field, value, b.newID(), b.Today()); err != nil {
		return err
	}
	b.touch()
	return nil
}

// RemoveSas deletes the reception row at index.
func (b *Board) RemoveSas(index int) error {
	if _, err := b.sas.RemoveRow(index); err != nil {
		return err
	}
	b.touch()
	return nil
}

// AddSas appends a reception row dated today. Rows with neither number nor
// client are ignored and ok is false.
func (b *Board) AddSas(orderNumber, clientName string, flux Flux) (item SasItem, ok bool) {
	item = SasItem{
		ID:          b.newID(),
		OrderNumber: NormalizeNumber(orderNumber),
		ClientName:  clientName,
		Flux:        flux,
		Date:        b.Today(),
	}
	if sasKind.blank(item) {
		return SasItem{}, false
	}
	b.sas.Append(item)
	b.touch()
	return item, true
}

// EditReturn edits one cell of the returns buffer.
func (b *Board) EditReturn(index int, field, value string) error {
	if err := b.returns.EditCell(index, field, value, b.newID(), b.Today()); err != nil {
		return err
	}
	b.touch()
	return nil
}

// RemoveReturn deletes the return row at index.
func (b *Board) RemoveReturn(index int) error {
	if _, err := b.returns.RemoveRow(index); err != nil {
		return err
	}
	b.touch()
	return nil
}

// ClearReturns empties the returns buffer.
func (b *Board) ClearReturns() {
	b.returns.Clear()
	b.touch()
}

// ClearArchives empties the archive log.
func (b *Board) ClearArchives() {
	b.archive.Clear()
	b.touch()
}
