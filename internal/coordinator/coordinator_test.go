package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pallet-board-backend/internal/board"
	"pallet-board-backend/internal/remote"
	"pallet-board-backend/internal/store"
)

// memLocal is an in-memory LocalStore with an injectable write error.
type memLocal struct {
	mu      sync.Mutex
	data    map[string][]byte
	putErr  error
	putKeys int
}

func newMemLocal() *memLocal { return &memLocal{data: map[string][]byte{}} }

func (m *memLocal) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memLocal) Put(ctx context.Context, key string, payload []byte) error {
	return m.PutAll(ctx, map[string][]byte{key: payload})
}

func (m *memLocal) PutAll(_ context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	for k, v := range entries {
		m.data[k] = v
		m.putKeys++
	}
	return nil
}

func (m *memLocal) Close() error { return nil }

// fakeRemote records upserts. When release is set, Upsert signals entered
// and waits for release before recording.
type fakeRemote struct {
	mu        sync.Mutex
	payloads  [][]byte
	updatedAt []time.Time
	err       error

	entered chan struct{}
	release chan struct{}
}

func (f *fakeRemote) Upsert(_ context.Context, payload []byte, updatedAt time.Time) error {
	f.mu.Lock()
	release := f.release
	f.mu.Unlock()
	if release != nil {
		f.entered <- struct{}{}
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	f.updatedAt = append(f.updatedAt, updatedAt)
	return nil
}

func (f *fakeRemote) Fetch(context.Context) (store.RemoteRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.payloads) == 0 {
		return store.RemoteRow{}, store.ErrNoRemoteState
	}
	last := len(f.payloads) - 1
	return store.RemoteRow{Payload: f.payloads[last], UpdatedAt: f.updatedAt[last]}, nil
}

func newTestBoard() *board.Board {
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	n := 0
	return board.New(
		board.WithClock(func() time.Time { return now }),
		board.WithLocation(time.UTC),
		board.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func collect(c *Coordinator) func() []string {
	var mu sync.Mutex
	var types []string
	c.Subscribe(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		types = append(types, e.Type)
	})
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), types...)
	}
}

func assign(t *testing.T, c *Coordinator, id string, status board.Status, number string) {
	t.Helper()
	require.NoError(t, c.Mutate(func(b *board.Board) error {
		_, err := b.Assign(id, status, &board.Order{OrderNumber: number})
		return err
	}))
}

func TestLoad_EmptyStorageIsClean(t *testing.T) {
	c := New(newTestBoard(), newMemLocal(), nil)
	require.NoError(t, c.Load(context.Background()))

	st := c.Status()
	assert.False(t, st.Dirty)
	assert.False(t, st.RemoteEnabled)
	c.Read(func(b *board.Board) {
		assert.Len(t, b.Slots(), 81)
		assert.Empty(t, b.SasRows())
	})
}

func TestLoad_SkipsCorruptKeys(t *testing.T) {
	local := newMemLocal()
	local.data[store.KeySlots] = []byte(`{"A-2-1-H":{"locationId":"A-2-1-H","status":"JAUNE","order":{"id":"o1","orderNumber":"1500000001"}},"A-3-1-B":{"locationId":"A-3-1-B","status":""}}`)
	local.data[store.KeySas] = []byte(`not json`)
	local.data[store.KeyReturns] = []byte(`[{"id":"r1","returnNumber":"1600000001","clientName":"DUPONT","date":"16/10"}]`)

	c := New(newTestBoard(), local, nil)
	require.NoError(t, c.Load(context.Background()))

	assert.False(t, c.Status().Dirty, "loading never marks the board dirty")
	c.Read(func(b *board.Board) {
		slot, err := b.Slot("A-2-1-H")
		require.NoError(t, err)
		assert.Equal(t, board.StatusJaune, slot.Status)
		require.NotNil(t, slot.Order)
		assert.Equal(t, "1500000001", slot.Order.OrderNumber)
		blank, err := b.Slot("A-3-1-B")
		require.NoError(t, err)
		assert.Equal(t, board.StatusEmpty, blank.Status)
		assert.Empty(t, b.SasRows())
		assert.Len(t, b.ReturnRows(), 1)
	})
}

func TestMutate_DirtyAndEvents(t *testing.T) {
	c := New(newTestBoard(), newMemLocal(), nil)
	events := collect(c)

	// a failed mutation that changes nothing emits nothing
	err := c.Mutate(func(b *board.Board) error {
		_, err := b.Assign("NOPE", board.StatusJaune, nil)
		return err
	})
	assert.ErrorIs(t, err, board.ErrUnknownLocation)
	assert.Empty(t, events())
	assert.False(t, c.Status().Dirty)

	assign(t, c, "A-2-1-H", board.StatusJaune, "1500000001")
	assert.True(t, c.Status().Dirty)
	assert.Equal(t, []string{EventBoardChanged}, events())
}

func TestMutate_EmptiedBuffers(t *testing.T) {
	c := New(newTestBoard(), newMemLocal(), nil)
	require.NoError(t, c.Mutate(func(b *board.Board) error {
		b.AddSas("1500000001", "DUPONT", board.FluxCDC)
		return b.EditReturn(0, "returnNumber", "1600000001")
	}))
	events := collect(c)

	require.NoError(t, c.Mutate(func(b *board.Board) error { return b.RemoveSas(0) }))
	require.NoError(t, c.Mutate(func(b *board.Board) error {
		b.ClearReturns()
		return nil
	}))

	assert.Equal(t, []string{
		EventBoardChanged, EventSasEmptied,
		EventBoardChanged, EventReturnsEmptied,
	}, events())
}

func TestSave_LocalAndRemote(t *testing.T) {
	ctx := context.Background()
	local := newMemLocal()
	remote := &fakeRemote{}
	c := New(newTestBoard(), local, remote)
	events := collect(c)

	assign(t, c, "A-2-1-H", board.StatusBlanc, "1500000001")
	st, err := c.Save(ctx)
	require.NoError(t, err)
	assert.False(t, st.Dirty)
	assert.Empty(t, st.LastError)
	require.NotNil(t, st.LastSaved)

	for _, key := range store.BoardKeys {
		assert.Contains(t, local.data, key)
	}
	var slots map[string]board.Slot
	require.NoError(t, json.Unmarshal(local.data[store.KeySlots], &slots))
	assert.Equal(t, board.StatusBlanc, slots["A-2-1-H"].Status)

	require.Len(t, remote.payloads, 1)
	var snap board.Snapshot
	require.NoError(t, json.Unmarshal(remote.payloads[0], &snap))
	assert.NotNil(t, snap.Sas)
	assert.NotNil(t, snap.Returns)
	assert.NotNil(t, snap.Archives)
	assert.Equal(t, remote.updatedAt[0].UnixMilli(), snap.LastUpdated)

	assert.Equal(t, []string{EventBoardChanged, EventSaved}, events())
}

func TestSave_RemoteFailureStillClean(t *testing.T) {
	local := newMemLocal()
	remote := &fakeRemote{err: assertErr("connection refused")}
	c := New(newTestBoard(), local, remote)
	events := collect(c)

	assign(t, c, "A-2-1-H", board.StatusJaune, "1500000001")
	st, err := c.Save(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Dirty)
	assert.Contains(t, st.LastError, "connection refused")
	assert.NotEmpty(t, local.data[store.KeySlots])
	assert.Equal(t, []string{EventBoardChanged, EventSyncFailed}, events())

	// the next successful save clears the error
	remote.err = nil
	st, err = c.Save(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.LastError)
}

func TestSave_LocalFailureKeepsDirty(t *testing.T) {
	local := newMemLocal()
	local.putErr = assertErr("disk full")
	remote := &fakeRemote{}
	c := New(newTestBoard(), local, remote)

	assign(t, c, "A-2-1-H", board.StatusJaune, "1500000001")
	st, err := c.Save(context.Background())
	assert.Error(t, err)
	assert.True(t, st.Dirty)
	assert.Empty(t, remote.payloads, "remote is not written when the local save fails")
}

func TestApplyRemote(t *testing.T) {
	c := New(newTestBoard(), newMemLocal(), &fakeRemote{})
	events := collect(c)

	assign(t, c, "A-2-1-H", board.StatusJaune, "1500000001")
	require.True(t, c.Status().Dirty)

	changed, err := c.ApplyRemote([]byte(`{"sas":[{"id":"s1","orderNumber":"1500000009","flux":"LCD","clientName":"MARTIN","date":"17/10"}],"lastUpdated":42}`))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, c.Status().Dirty, "a remote delivery clears the dirty flag")

	c.Read(func(b *board.Board) {
		require.Len(t, b.SasRows(), 1)
		assert.Equal(t, "1500000009", b.SasRows()[0].OrderNumber)
		// absent parts are untouched
		slot, _ := b.Slot("A-2-1-H")
		assert.Equal(t, board.StatusJaune, slot.Status)
	})
	assert.Equal(t, []string{EventBoardChanged, EventRemoteApplied}, events())

	_, err = c.ApplyRemote([]byte(`{`))
	assert.Error(t, err)
}

func TestApplyRemote_SkipsOwnEcho(t *testing.T) {
	remote := &fakeRemote{}
	c := New(newTestBoard(), newMemLocal(), remote)

	assign(t, c, "A-2-1-H", board.StatusJaune, "1500000001")
	_, err := c.Save(context.Background())
	require.NoError(t, err)

	row, err := remote.Fetch(context.Background())
	require.NoError(t, err)
	changed, err := c.ApplyRemote(row.Payload)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestApplyRemote_SkipsOlderOwnRowDuringSave(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	b := board.New(
		board.WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		}),
		board.WithLocation(time.UTC),
	)
	rs := &fakeRemote{}
	c := New(b, newMemLocal(), rs)
	w := remote.NewWatcher(rs, c, time.Hour)

	assign(t, c, "A-1-3", board.StatusJaune, "1500000001")
	_, err := c.Save(ctx)
	require.NoError(t, err)

	assign(t, c, "A-2-3", board.StatusBlanc, "1500000002")

	rs.mu.Lock()
	rs.entered = make(chan struct{})
	rs.release = make(chan struct{})
	rs.mu.Unlock()

	saved := make(chan error, 1)
	go func() {
		_, err := c.Save(ctx)
		saved <- err
	}()
	<-rs.entered

	// The remote still holds the first save.
	assert.True(t, w.PollOnce(ctx))
	c.Read(func(b *board.Board) {
		slot, _ := b.Slot("A-2-3")
		assert.Equal(t, board.StatusBlanc, slot.Status)
	})

	rs.mu.Lock()
	release := rs.release
	rs.release = nil
	rs.mu.Unlock()
	close(release)
	require.NoError(t, <-saved)

	assert.True(t, w.PollOnce(ctx))
	c.Read(func(b *board.Board) {
		slot, _ := b.Slot("A-2-3")
		assert.Equal(t, board.StatusBlanc, slot.Status)
		assert.Equal(t, "1500000002", slot.Order.OrderNumber)
	})
	assert.False(t, c.Status().Dirty)
}

func TestApplyRemote_ForeignRowThenOwnEchoConverges(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	b := board.New(
		board.WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		}),
		board.WithLocation(time.UTC),
	)
	rs := &fakeRemote{}
	c := New(b, newMemLocal(), rs)

	assign(t, c, "A-3-3", board.StatusRouge, "1500000003")
	_, err := c.Save(ctx)
	require.NoError(t, err)
	own, err := rs.Fetch(ctx)
	require.NoError(t, err)

	changed, err := c.ApplyRemote([]byte(`{"sas":[],"lastUpdated":1}`))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = c.ApplyRemote(own.Payload)
	require.NoError(t, err)
	assert.True(t, changed, "after another writer's snapshot our own row is applied again")
}

func TestTheme(t *testing.T) {
	ctx := context.Background()
	c := New(newTestBoard(), newMemLocal(), nil)

	theme, err := c.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)

	require.NoError(t, c.SetTheme(ctx, ThemeDark))
	theme, err = c.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)

	assert.ErrorIs(t, c.SetTheme(ctx, "sepia"), ErrInvalidTheme)
	assert.False(t, c.Status().Dirty, "theme is not part of the board")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
