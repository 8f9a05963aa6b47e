package table

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a named result registered in a Store. Two variants exist:
//
//   - Materialized: an independent deep copy taken at registration time.
//     Later mutation of the source table never leaks into the snapshot.
//   - Transient: a view. Every Get re-runs the refresh function, so the
//     snapshot always reflects the current source state (and pays the
//     recompute cost each time).
//
// Snapshots live until Drop is called or the session ends; nothing is
// persisted across sessions.
type Snapshot struct {
	ID      string // uuid, assigned at registration
	Name    string
	Created time.Time

	tbl     *Table                  // materialized copy; nil for transient
	refresh func() (*Table, error) // recompute; nil for materialized
}

// Materialized reports whether the snapshot is a frozen copy (true) or a
// recomputed view (false).
func (s *Snapshot) Materialized() bool { return s.refresh == nil }

// Table returns the snapshot's table: the frozen copy for a materialized
// snapshot, or the result of a fresh recompute for a transient one.
func (s *Snapshot) Table() (*Table, error) {
	if s.refresh != nil {
		t, err := s.refresh()
		if err != nil {
			return nil, fmt.Errorf("snapshot %q: refresh: %w", s.Name, err)
		}
		return t, nil
	}
	return s.tbl, nil
}

// Store holds a session's named snapshots. Reads may come from concurrent
// reporting goroutines, so access is guarded; registration and drop are
// expected from the single mutating goroutine.
type Store struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{snaps: make(map[string]*Snapshot)}
}

// Materialize registers a deep copy of t under name, replacing any previous
// snapshot with that name, and returns the new snapshot.
func (st *Store) Materialize(name string, t *Table) *Snapshot {
	s := &Snapshot{
		ID:      uuid.NewString(),
		Name:    name,
		Created: time.Now(),
		tbl:     t.Clone(),
	}
	st.mu.Lock()
	st.snaps[name] = s
	st.mu.Unlock()
	return s
}

// Transient registers a recomputed view under name, replacing any previous
// snapshot with that name.
func (st *Store) Transient(name string, refresh func() (*Table, error)) *Snapshot {
	s := &Snapshot{
		ID:      uuid.NewString(),
		Name:    name,
		Created: time.Now(),
		refresh: refresh,
	}
	st.mu.Lock()
	st.snaps[name] = s
	st.mu.Unlock()
	return s
}

// Get returns the named snapshot.
func (st *Store) Get(name string) (*Snapshot, error) {
	st.mu.RLock()
	s, ok := st.snaps[name]
	st.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: no snapshot %q", name)
	}
	return s, nil
}

// Drop removes the named snapshot and reports whether it existed.
func (st *Store) Drop(name string) bool {
	st.mu.Lock()
	_, ok := st.snaps[name]
	delete(st.snaps, name)
	st.mu.Unlock()
	return ok
}

// List returns all snapshots sorted by name.
func (st *Store) List() []*Snapshot {
	st.mu.RLock()
	out := make([]*Snapshot, 0, len(st.snaps))
	for _, s := range st.snaps {
		out = append(out, s)
	}
	st.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
