package board

import (
	"pallet-board-backend/internal/layout"
)

// SlotStore maps location ids to slot records. Its only invariant is the
// status/order coupling; ids are not validated here.
type SlotStore struct {
	slots map[string]Slot
}

// NewSlotStore creates a store holding one EMPTY slot per generated location.
func NewSlotStore() *SlotStore {
	s := &SlotStore{slots: make(map[string]Slot)}
	for _, id := range layout.GenerateAllLocationIDs() {
		s.slots[id] = Slot{LocationID: id, Status: StatusEmpty}
	}
	return s
}

// Get returns the slot for id.
func (s *SlotStore) Get(id string) (Slot, bool) {
	slot, ok := s.slots[id]
	if ok && slot.Order != nil {
		o := *slot.Order
		slot.Order = &o
	}
	return slot, ok
}

// Set writes a slot. EMPTY drops the order; an occupied status always carries one.
func (s *SlotStore) Set(id string, status Status, order *Order) {
	slot := Slot{LocationID: id, Status: status}
	if status.Occupied() {
		o := Order{}
		if order != nil {
			o = *order
		}
		slot.Order = &o
	}
	s.slots[id] = slot
}

// ReplaceAll swaps the whole mapping, normalizing each record.
func (s *SlotStore) ReplaceAll(slots map[string]Slot) {
	next := make(map[string]Slot, len(slots))
	for id, slot := range slots {
		if slot.LocationID == "" {
			slot.LocationID = id
		}
		if slot.Status == "" {
			slot.Status = StatusEmpty
		}
		if !slot.Status.Occupied() {
			slot.Order = nil
		} else if slot.Order == nil {
			slot.Order = &Order{}
		}
		next[id] = slot
	}
	s.slots = next
}

// Values returns every slot in list order.
func (s *SlotStore) Values() []Slot {
	ids := make([]string, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	layout.Sort(ids)
	out := make([]Slot, 0, len(ids))
	for _, id := range ids {
		slot, _ := s.Get(id)
		out = append(out, slot)
	}
	return out
}

// Map returns a copy of the mapping for serialization.
func (s *SlotStore) Map() map[string]Slot {
	out := make(map[string]Slot, len(s.slots))
	for id := range s.slots {
		out[id], _ = s.Get(id)
	}
	return out
}

// Len returns the number of slots.
func (s *SlotStore) Len() int { return len(s.slots) }
