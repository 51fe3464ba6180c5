package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	schemaVersion = "1.0"
	lockTimeout   = 5 * time.Second

	// DefaultMaxRuns is how many runs the history keeps.
	DefaultMaxRuns = 200
)

// JSONStore implements Store using a single JSON file.
type JSONStore struct {
	path    string
	lock    *FileLock
	data    *storeData
	mu      sync.RWMutex
	maxRuns int
}

// storeData is the top-level JSON structure.
type storeData struct {
	Version    string                `json:"version"`
	UpdatedAt  time.Time             `json:"updated_at"`
	Runs       map[string]*Run       `json:"runs"`
	RunOrder   []string              `json:"run_order"` // oldest first
	SyncStates map[string]*SyncState `json:"sync_states"`
}

// NewJSONStore opens the JSON file store at path, holding its lock until Close.
// If the file exists, it is loaded; otherwise an empty store is created.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{
		path:    path,
		lock:    NewFileLock(path),
		maxRuns: DefaultMaxRuns,
	}

	if err := s.lock.Lock(lockTimeout); err != nil {
		return nil, err
	}

	if err := s.load(); err != nil {
		s.lock.Unlock()
		return nil, err
	}

	return s, nil
}

// SetMaxRuns changes the retention limit. Older runs are pruned on the next write.
func (s *JSONStore) SetMaxRuns(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxRuns = n
}

// load reads the JSON file into memory. Creates empty data if file doesn't exist.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.data = newStoreData()
			// Save immediately to catch permission errors early
			return s.save()
		}
		return &StorageError{Op: "read", Entity: "store", Err: err}
	}

	s.data = &storeData{}
	if err := json.Unmarshal(data, s.data); err != nil {
		return &StorageError{Op: "read", Entity: "store", Err: ErrStorageCorrupt}
	}
	if s.data.Runs == nil {
		s.data.Runs = make(map[string]*Run)
	}
	if s.data.SyncStates == nil {
		s.data.SyncStates = make(map[string]*SyncState)
	}
	for _, id := range s.data.RunOrder {
		if _, ok := s.data.Runs[id]; !ok {
			return &StorageError{Op: "read", Entity: "run", ID: id, Err: ErrStorageCorrupt}
		}
	}

	return nil
}

// save writes the whole store to disk, replacing the previous file.
func (s *JSONStore) save() error {
	s.data.UpdatedAt = time.Now()

	err := replaceFile(s.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s.data)
	})
	if err != nil {
		return &StorageError{Op: "write", Entity: "store", Err: err}
	}
	return nil
}

// Close releases resources held by the store.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.Unlock()
}

func newStoreData() *storeData {
	return &storeData{
		Version:    schemaVersion,
		UpdatedAt:  time.Now(),
		Runs:       make(map[string]*Run),
		SyncStates: make(map[string]*SyncState),
	}
}

// --- RunStore implementation ---

func (s *JSONStore) CreateRun(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.PlaylistID == "" {
		return &StorageError{Op: "create", Entity: "run", Err: ErrInvalidInput}
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if _, exists := s.data.Runs[run.ID]; exists {
		return &StorageError{Op: "create", Entity: "run", ID: run.ID, Err: ErrAlreadyExists}
	}

	s.data.Runs[run.ID] = run
	s.data.RunOrder = append(s.data.RunOrder, run.ID)
	s.prune()

	return s.save()
}

func (s *JSONStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data.Runs[id]
	if !exists {
		return nil, &StorageError{Op: "read", Entity: "run", ID: id, Err: ErrNotFound}
	}
	return run, nil
}

func (s *JSONStore) UpdateRun(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.Runs[run.ID]; !exists {
		return &StorageError{Op: "update", Entity: "run", ID: run.ID, Err: ErrNotFound}
	}
	s.data.Runs[run.ID] = run

	return s.save()
}

func (s *JSONStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.data.RunOrder)
	if limit <= 0 || limit > n {
		limit = n
	}
	runs := make([]*Run, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		runs = append(runs, s.data.Runs[s.data.RunOrder[i]])
	}
	return runs, nil
}

// prune drops the oldest runs beyond maxRuns. Must be called with mutex held.
func (s *JSONStore) prune() {
	if s.maxRuns <= 0 {
		return
	}
	for len(s.data.RunOrder) > s.maxRuns {
		delete(s.data.Runs, s.data.RunOrder[0])
		s.data.RunOrder = s.data.RunOrder[1:]
	}
}

// --- SyncStateStore implementation ---

func (s *JSONStore) GetSyncState(ctx context.Context, playlistID string) (*SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.data.SyncStates[playlistID]
	if !exists {
		return nil, &StorageError{Op: "read", Entity: "sync_state", ID: playlistID, Err: ErrNotFound}
	}
	return state, nil
}

func (s *JSONStore) UpdateSyncState(ctx context.Context, state *SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state.PlaylistID == "" {
		return &StorageError{Op: "update", Entity: "sync_state", Err: ErrInvalidInput}
	}
	s.data.SyncStates[state.PlaylistID] = state
	return s.save()
}

func (s *JSONStore) ListSyncStates(ctx context.Context) ([]*SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]*SyncState, 0, len(s.data.SyncStates))
	for _, st := range s.data.SyncStates {
		states = append(states, st)
	}
	return states, nil
}
