package board

import (
	"strconv"
	"strings"
	"time"

	"pallet-board-backend/internal/layout"
)

// FilterInProgress selects the JAUNE/BLANC/ROUGE/BLEU slots.
const FilterInProgress = "ENCOURS"

// Filter narrows the slot listing.
type Filter struct {
	Status     Status // exact status, ignored when empty
	InProgress bool   // ENCOURS, takes precedence over Status
	Query      string // case-insensitive search
}

// Match reports whether slot passes the filter.
func (f Filter) Match(slot Slot) bool {
	switch {
	case f.InProgress:
		if !slot.Status.InProgress() {
			return false
		}
	case f.Status != "":
		if slot.Status != f.Status {
			return false
		}
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if containsFold(slot.LocationID, q) {
		return true
	}
	o := slot.Order
	if o == nil {
		return false
	}
	return containsFold(o.OrderNumber, q) ||
		containsFold(o.ClientName, q) ||
		containsFold(o.Date, q) ||
		containsFold(o.Tournee, q) ||
		containsFold(o.Comment, q)
}

// List returns matching slots sorted in list order.
func (b *Board) List(f Filter) []Slot {
	all := b.slots.Map()
	ids := make([]string, 0, len(all))
	for id, slot := range all {
		if f.Match(slot) {
			ids = append(ids, id)
		}
	}
	layout.Sort(ids)
	out := make([]Slot, 0, len(ids))
	for _, id := range ids {
		out = append(out, all[id])
	}
	return out
}

// Stats summarizes the board.
type Stats struct {
	Counts     map[Status]int `json:"counts"`
	InProgress int            `json:"encours"`
	Sas        int            `json:"sas"`
	Returns    int            `json:"returns"`
	GrandTotal int            `json:"grandTotal"`
}

// Stats counts slots per status.
func (b *Board) Stats() Stats {
	st := Stats{Counts: make(map[Status]int, len(Statuses))}
	for _, s := range Statuses {
		st.Counts[s] = 0
	}
	for _, slot := range b.slots.Values() {
		st.Counts[slot.Status]++
		if slot.Status.InProgress() {
			st.InProgress++
		}
		st.GrandTotal++
	}
	st.Sas = b.sas.Len()
	st.Returns = b.returns.Len()
	return st
}

// Urgency classifies an order date against today.
type Urgency string

const (
	UrgencyNew      Urgency = "new"
	UrgencyPast     Urgency = "past"
	UrgencyToday    Urgency = "today"
	UrgencyTomorrow Urgency = "tomorrow"
	UrgencyLater    Urgency = "later"
	UrgencyUndated  Urgency = "undated"
)

// DateUrgency reads a "DD/MM" date in the current year of now.
func DateUrgency(date string, now time.Time) Urgency {
	date = strings.TrimSpace(date)
	if date == DateNew {
		return UrgencyNew
	}
	day, month, ok := strings.Cut(date, "/")
	if !ok {
		return UrgencyUndated
	}
	d, err1 := strconv.Atoi(day)
	m, err2 := strconv.Atoi(month)
	if err1 != nil || err2 != nil || d < 1 || d > 31 || m < 1 || m > 12 {
		return UrgencyUndated
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	item := time.Date(now.Year(), time.Month(m), d, 0, 0, 0, 0, now.Location())
	switch {
	case item.Before(today):
		return UrgencyPast
	case item.Equal(today):
		return UrgencyToday
	case item.Equal(today.AddDate(0, 0, 1)):
		return UrgencyTomorrow
	}
	return UrgencyLater
}

// SlotCandidates are reception rows that may be picked into a slot: return
// numbers (dashed or letter-led) are excluded.
func (b *Board) SlotCandidates() []SasItem {
	out := []SasItem{}
	for _, row := range b.sas.Rows() {
		num := row.OrderNumber
		if strings.Contains(num, "-") || (num != "" && isLetter(num[0])) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// ReturnCandidates are reception rows flagged RET.
func (b *Board) ReturnCandidates() []SasItem {
	out := []SasItem{}
	for _, row := range b.sas.Rows() {
		if row.Flux == FluxRET {
			out = append(out, row)
		}
	}
	return out
}
