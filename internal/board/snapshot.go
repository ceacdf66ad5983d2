package board

// Snapshot is the serialized aggregate exchanged with local and remote
// storage. A nil field means "absent" and is left untouched by Apply.
type Snapshot struct {
	Data        map[string]Slot `json:"data"`
	Returns     []ReturnItem    `json:"returns"`
	Sas         []SasItem       `json:"sas"`
	Archives    []ArchiveEntry  `json:"archives"`
	LastUpdated int64           `json:"lastUpdated,omitempty"`
}

// Export captures the whole aggregate. Every field is non-nil.
func (b *Board) Export() Snapshot {
	snap := Snapshot{
		Data:        b.slots.Map(),
		Returns:     b.returns.Rows(),
		Sas:         b.sas.Rows(),
		Archives:    b.archive.Entries(),
		LastUpdated: millis(b.now()),
	}
	return snap
}

// Apply replaces every part present in snap. It bumps the revision; callers
// that must not mark the board dirty record the new revision as clean.
func (b *Board) Apply(snap Snapshot) {
	if snap.Data != nil {
		b.slots.ReplaceAll(snap.Data)
	}
	if snap.Sas != nil {
		b.sas.Replace(snap.Sas)
	}
	if snap.Returns != nil {
		b.returns.Replace(snap.Returns)
	}
	if snap.Archives != nil {
		b.archive.Replace(snap.Archives)
	}
	b.touch()
}

// SasLen and ReturnsLen expose buffer sizes for change detection.
func (b *Board) SasLen() int { return b.sas.Len() }

func (b *Board) ReturnsLen() int { return b.returns.Len() }
