// Package storage persists the history of sync runs.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common storage conditions.
var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("storage: not found")
	// ErrAlreadyExists indicates the entity already exists in storage.
	ErrAlreadyExists = errors.New("storage: already exists")
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
)

// StorageError wraps storage errors with operation and entity context.
// Use errors.As() to extract this error type and get operation details:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s %s: %v\n", storErr.Op, storErr.Entity, storErr.ID, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("create", "read", "update", "lock").
	Op string
	// Entity is the entity type ("run", "sync_state", "store").
	Entity string
	// ID is the entity ID if applicable.
	ID string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage: %s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// Store is the storage interface for run history.
// Implementations must be safe for concurrent use.
type Store interface {
	RunStore
	SyncStateStore

	// Close releases any resources held by the store.
	Close() error
}

// RunStore records individual sync runs.
type RunStore interface {
	// CreateRun saves a new run, assigning an ID when empty.
	CreateRun(ctx context.Context, run *Run) error
	// GetRun retrieves a run by ID.
	GetRun(ctx context.Context, id string) (*Run, error)
	// UpdateRun replaces an existing run.
	UpdateRun(ctx context.Context, run *Run) error
	// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
}

// SyncStateStore tracks the latest outcome per playlist.
type SyncStateStore interface {
	// GetSyncState retrieves the state for a playlist.
	GetSyncState(ctx context.Context, playlistID string) (*SyncState, error)
	// UpdateSyncState stores the state for a playlist.
	UpdateSyncState(ctx context.Context, state *SyncState) error
	// ListSyncStates returns the state of every known playlist.
	ListSyncStates(ctx context.Context) ([]*SyncState, error)
}
