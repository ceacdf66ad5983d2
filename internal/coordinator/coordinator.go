package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"pallet-board-backend/internal/board"
	"pallet-board-backend/internal/store"
)

// Event types emitted to listeners.
const (
	EventBoardChanged   = "board_changed"
	EventSasEmptied     = "sas_emptied"
	EventReturnsEmptied = "returns_emptied"
	EventSaved          = "saved"
	EventSyncFailed     = "sync_failed"
	EventRemoteApplied  = "remote_applied"
)

// Themes accepted by SetTheme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var ErrInvalidTheme = errors.New("invalid theme")

// Event describes a change of the board or of its sync state.
type Event struct {
	Type     string `json:"type"`
	Revision uint64 `json:"revision"`
	Dirty    bool   `json:"dirty"`
	Message  string `json:"message,omitempty"`
}

// Listener receives events outside the coordinator lock.
type Listener func(Event)

// Status reports the unsaved-changes indicator.
type Status struct {
	Dirty         bool       `json:"dirty"`
	Revision      uint64     `json:"revision"`
	LastSaved     *time.Time `json:"lastSaved,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
	RemoteEnabled bool       `json:"remoteEnabled"`
}

// Coordinator owns the board. Every access goes through its mutex, which
// serializes HTTP handlers and remote deliveries like a single event queue.
type Coordinator struct {
	mu    sync.Mutex
	board *board.Board

	local  store.LocalStore
	remote store.RemoteStore // nil when the mirror is disabled

	cleanRevision uint64
	lastSaved     time.Time
	lastError     string
	pushed        map[int64]struct{} // lastUpdated of our remote writes not yet echoed

	listenersMu sync.RWMutex
	listeners   []Listener
}

// New creates a coordinator. remote may be nil.
func New(b *board.Board, local store.LocalStore, remote store.RemoteStore) *Coordinator {
	return &Coordinator{
		board:         b,
		local:         local,
		remote:        remote,
		cleanRevision: b.Revision(),
		pushed:        make(map[int64]struct{}),
	}
}

// Subscribe registers a listener.
func (c *Coordinator) Subscribe(l Listener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, l)
}

func (c *Coordinator) emit(events ...Event) {
	c.listenersMu.RLock()
	listeners := append([]Listener(nil), c.listeners...)
	c.listenersMu.RUnlock()
	for _, e := range events {
		for _, l := range listeners {
			l(e)
		}
	}
}

// Load populates the board from local storage. Absent keys keep their
// defaults and unreadable keys are logged and skipped. Loading never marks
// the board dirty.
func (c *Coordinator) Load(ctx context.Context) error {
	var snap board.Snapshot
	targets := map[string]any{
		store.KeySlots:    &snap.Data,
		store.KeyReturns:  &snap.Returns,
		store.KeySas:      &snap.Sas,
		store.KeyArchives: &snap.Archives,
	}
	loaded := 0
	for _, key := range store.BoardKeys {
		payload, ok, err := c.local.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", key, err)
		}
		if !ok {
			continue
		}
		if err := json.Unmarshal(payload, targets[key]); err != nil {
			log.Printf("Warning: ignoring unreadable local key %s: %v", key, err)
			continue
		}
		loaded++
	}

	c.mu.Lock()
	c.board.Apply(snap)
	c.cleanRevision = c.board.Revision()
	c.mu.Unlock()

	log.Printf("Loaded %d/%d board keys from local storage", loaded, len(store.BoardKeys))
	return nil
}

// Read runs fn with exclusive access to the board. fn must not mutate it.
func (c *Coordinator) Read(fn func(b *board.Board)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.board)
}

// Mutate runs fn with exclusive access to the board and emits change events
// when the board revision moved.
func (c *Coordinator) Mutate(fn func(b *board.Board) error) error {
	c.mu.Lock()
	sasBefore, returnsBefore := c.board.SasLen(), c.board.ReturnsLen()
	revBefore := c.board.Revision()

	err := fn(c.board)

	rev := c.board.Revision()
	var events []Event
	if rev != revBefore {
		dirty := rev != c.cleanRevision
		events = append(events, Event{Type: EventBoardChanged, Revision: rev, Dirty: dirty})
		if sasBefore > 0 && c.board.SasLen() == 0 {
			events = append(events, Event{Type: EventSasEmptied, Revision: rev, Dirty: dirty, Message: "SAS vidé"})
		}
		if returnsBefore > 0 && c.board.ReturnsLen() == 0 {
			events = append(events, Event{Type: EventReturnsEmptied, Revision: rev, Dirty: dirty, Message: "Retours vidés"})
		}
	}
	c.mu.Unlock()

	c.emit(events...)
	return err
}

// Save writes the board to local storage, then mirrors it remotely. A
// remote failure is recorded and reported in Status but does not fail the
// save. Edits made while the remote call runs stay dirty.
func (c *Coordinator) Save(ctx context.Context) (Status, error) {
	c.mu.Lock()
	snap := c.board.Export()
	rev := c.board.Revision()
	entries, err := encodeLocal(snap)
	if err == nil {
		err = c.local.PutAll(ctx, entries)
	}
	if err != nil {
		c.mu.Unlock()
		return c.Status(), fmt.Errorf("local save failed: %w", err)
	}
	if c.remote != nil {
		c.pushed[snap.LastUpdated] = struct{}{}
	}
	c.mu.Unlock()

	var remoteErr error
	if c.remote != nil {
		payload, err := json.Marshal(snap)
		if err == nil {
			err = c.remote.Upsert(ctx, payload, time.UnixMilli(snap.LastUpdated))
		}
		remoteErr = err
	}

	c.mu.Lock()
	if rev > c.cleanRevision {
		c.cleanRevision = rev
	}
	c.lastSaved = c.board.Now()
	c.lastError = ""
	if remoteErr != nil {
		c.lastError = remoteErr.Error()
	}
	status := c.statusLocked()
	c.mu.Unlock()

	if remoteErr != nil {
		log.Printf("Remote sync failed: %v", remoteErr)
		c.emit(Event{Type: EventSyncFailed, Revision: rev, Dirty: status.Dirty, Message: remoteErr.Error()})
	} else {
		c.emit(Event{Type: EventSaved, Revision: rev, Dirty: status.Dirty})
	}
	return status, nil
}

// ApplyRemote decodes a remote payload and applies it. It reports whether
// the board changed; echoes of our own writes are skipped.
func (c *Coordinator) ApplyRemote(payload []byte) (bool, error) {
	var snap board.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return false, fmt.Errorf("failed to decode remote snapshot: %w", err)
	}
	return c.ApplyRemoteSnapshot(snap), nil
}

// ApplyRemoteSnapshot replaces the parts present in snap and clears the
// dirty flag. Last snapshot wins. Rows this process wrote itself are
// skipped, including older ones delivered while a newer save is in flight.
func (c *Coordinator) ApplyRemoteSnapshot(snap board.Snapshot) bool {
	c.mu.Lock()
	if _, own := c.pushed[snap.LastUpdated]; own && snap.LastUpdated != 0 {
		for v := range c.pushed {
			if v <= snap.LastUpdated {
				delete(c.pushed, v)
			}
		}
		c.mu.Unlock()
		return false
	}
	// Another writer won: our pending echoes must now be applied, or the
	// board would keep this snapshot while the remote holds ours.
	clear(c.pushed)
	c.board.Apply(snap)
	rev := c.board.Revision()
	c.cleanRevision = rev
	c.mu.Unlock()

	c.emit(Event{Type: EventRemoteApplied, Revision: rev})
	return true
}

// Status returns the current sync indicator.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Coordinator) statusLocked() Status {
	st := Status{
		Dirty:         c.board.Revision() != c.cleanRevision,
		Revision:      c.board.Revision(),
		LastError:     c.lastError,
		RemoteEnabled: c.remote != nil,
	}
	if !c.lastSaved.IsZero() {
		t := c.lastSaved
		st.LastSaved = &t
	}
	return st
}

// Theme returns the stored UI theme, light by default.
func (c *Coordinator) Theme(ctx context.Context) (string, error) {
	payload, ok, err := c.local.Get(ctx, store.KeyTheme)
	if err != nil {
		return "", err
	}
	if !ok {
		return ThemeLight, nil
	}
	var theme string
	if err := json.Unmarshal(payload, &theme); err != nil || (theme != ThemeLight && theme != ThemeDark) {
		return ThemeLight, nil
	}
	return theme, nil
}

// SetTheme persists the UI theme. It is not part of the board.
func (c *Coordinator) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	payload, _ := json.Marshal(theme)
	return c.local.Put(ctx, store.KeyTheme, payload)
}

func encodeLocal(snap board.Snapshot) (map[string][]byte, error) {
	parts := map[string]any{
		store.KeySlots:    snap.Data,
		store.KeyReturns:  snap.Returns,
		store.KeySas:      snap.Sas,
		store.KeyArchives: snap.Archives,
	}
	entries := make(map[string][]byte, len(parts))
	for key, v := range parts {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		entries[key] = b
	}
	return entries, nil
}
