package state

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/introspect"
)

// Snapshot is one loaded dataset with its option lists.
// Snapshots are never modified after publication.
type Snapshot struct {
	ID       uuid.UUID
	Version  int64
	FileName string
	LoadedAt time.Time
	Dataset  *contracts.Dataset
	Options  introspect.Options
}

// Summary is the wire form of a snapshot without its rows
type Summary struct {
	ID       string    `json:"id"`
	Version  int64     `json:"version"`
	FileName string    `json:"file_name"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Summary describes the snapshot
func (s *Snapshot) Summary() Summary {
	return Summary{
		ID:       s.ID.String(),
		Version:  s.Version,
		FileName: s.FileName,
		Rows:     s.Dataset.Len(),
		LoadedAt: s.LoadedAt,
	}
}

// Listener is notified after the current snapshot changes.
// snap is nil after a reset.
type Listener func(snap *Snapshot)

// Store holds the current dataset. Writers replace the snapshot; readers
// take one snapshot per request and never see a partial update.
// ⭐ SSOT: 현재 데이터셋 상태는 Store 하나만 소유
type Store struct {
	// notifyMu orders publication with notification, so listeners see
	// snapshots in version order. Listeners must not call Load or Reset.
	notifyMu sync.Mutex

	mu        sync.RWMutex
	current   *Snapshot
	version   int64
	listeners []Listener
	now       func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Load introspects d and publishes it as the current snapshot.
// On error the previous snapshot stays in place.
func (s *Store) Load(fileName string, d *contracts.Dataset) (*Snapshot, error) {
	return s.LoadWithID(uuid.New(), fileName, d)
}

// LoadWithID publishes d under a known ID (restoring an archived upload)
func (s *Store) LoadWithID(id uuid.UUID, fileName string, d *contracts.Dataset) (*Snapshot, error) {
	opts, err := introspect.Introspect(d)
	if err != nil {
		return nil, err
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.version++
	snap := &Snapshot{
		ID:       id,
		Version:  s.version,
		FileName: fileName,
		LoadedAt: s.now().UTC(),
		Dataset:  d,
		Options:  opts,
	}
	s.current = snap
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}

// Current returns the current snapshot, or ErrNoDataset when empty
func (s *Store) Current() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, contracts.ErrNoDataset
	}
	return s.current, nil
}

// Reset drops the current dataset
func (s *Store) Reset() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if !had {
		return
	}
	for _, fn := range listeners {
		fn(nil)
	}
}

// Subscribe registers fn for every later Load and Reset
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
