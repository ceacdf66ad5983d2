package remote

import (
	"context"
	"errors"
	"log"
	"time"

	"pallet-board-backend/internal/store"
)

// Applier receives remote snapshots.
type Applier interface {
	ApplyRemote(payload []byte) (bool, error)
}

// Watcher polls the shared app_state row and forwards every new version
// to the applier. It is the change-notification side of the remote mirror.
type Watcher struct {
	remote   store.RemoteStore
	applier  Applier
	interval time.Duration

	lastSeen time.Time
}

// NewWatcher creates a watcher polling at interval.
func NewWatcher(remote store.RemoteStore, applier Applier, interval time.Duration) *Watcher {
	return &Watcher{remote: remote, applier: applier, interval: interval}
}

// Run fetches the current row once, then polls until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	log.Printf("Starting remote watcher (every %s)...", w.interval)

	w.PollOnce(ctx)

	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Remote watcher shutting down.")
			return
		case <-timer.C:
			w.PollOnce(ctx)
			timer.Reset(w.interval)
		}
	}
}

// PollOnce fetches the row and delivers it when updated_at moved forward.
// It reports whether a payload was delivered.
func (w *Watcher) PollOnce(ctx context.Context) bool {
	row, err := w.remote.Fetch(ctx)
	if errors.Is(err, store.ErrNoRemoteState) {
		return false
	}
	if err != nil {
		log.Printf("Error fetching remote state: %v", err)
		return false
	}
	if !row.UpdatedAt.After(w.lastSeen) {
		return false
	}
	w.lastSeen = row.UpdatedAt

	changed, err := w.applier.ApplyRemote(row.Payload)
	if err != nil {
		log.Printf("Error applying remote state: %v", err)
		return false
	}
	if changed {
		log.Printf("Applied remote state updated at %s", row.UpdatedAt.Format(time.RFC3339))
	}
	return true
}
