package board

import (
	"strings"
	"time"
)

const (
	// ArchiveCap bounds the archive log; older entries are dropped.
	ArchiveCap = 200
	// ArchiveDedupWindow suppresses re-archiving the same order number.
	ArchiveDedupWindow = 2 * time.Second
)

// ArchiveLog is the newest-first history of completed occupancies.
type ArchiveLog struct {
	entries []ArchiveEntry

	// last archived order number and when, for the dedup guard
	lastNumber string
	lastAt     time.Time
}

// Record archives the order leaving locationID. It returns false when the
// same order number was archived less than ArchiveDedupWindow ago.
func (a *ArchiveLog) Record(order Order, locationID string, now time.Time) bool {
	if a.lastNumber == order.OrderNumber && !a.lastAt.IsZero() && now.Sub(a.lastAt) < ArchiveDedupWindow {
		return false
	}
	a.lastNumber = order.OrderNumber
	a.lastAt = now

	entry := ArchiveEntry{
		OrderNumber: order.OrderNumber,
		ClientName:  order.ClientName,
		EntryTime:   order.CreatedAt,
		ExitTime:    millis(now),
		Flux:        order.Flux,
		LocationID:  locationID,
	}
	if entry.EntryTime == 0 {
		entry.EntryTime = entry.ExitTime
	}

	next := make([]ArchiveEntry, 0, min(len(a.entries)+1, ArchiveCap))
	next = append(next, entry)
	next = append(next, a.entries...)
	if len(next) > ArchiveCap {
		next = next[:ArchiveCap]
	}
	a.entries = next
	return true
}

// Clear empties the log. The dedup guard is kept.
func (a *ArchiveLog) Clear() {
	a.entries = nil
}

// Entries returns a copy of the log, newest first.
func (a *ArchiveLog) Entries() []ArchiveEntry {
	out := make([]ArchiveEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Replace swaps the log contents, enforcing the cap.
func (a *ArchiveLog) Replace(entries []ArchiveEntry) {
	if len(entries) > ArchiveCap {
		entries = entries[:ArchiveCap]
	}
	a.entries = make([]ArchiveEntry, len(entries))
	copy(a.entries, entries)
}

// Len returns the number of entries.
func (a *ArchiveLog) Len() int { return len(a.entries) }

// Search matches query case-insensitively against order number, client,
// flux and location. An empty query returns everything.
func (a *ArchiveLog) Search(query string) []ArchiveEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return a.Entries()
	}
	var out []ArchiveEntry
	for _, e := range a.entries {
		if containsFold(e.OrderNumber, q) ||
			containsFold(e.ClientName, q) ||
			containsFold(string(e.Flux), q) ||
			containsFold(e.LocationID, q) {
			out = append(out, e)
		}
	}
	return out
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}
