package storage

import (
	"context"
	"errors"
	"time"

	"remindbot/internal/reminder"
)

// ErrUnavailable wraps any I/O failure of the underlying medium. Callers
// match it with errors.Is; the command layer turns it into a generic failure
// message, the scheduler aborts the current tick and retries next tick.
var ErrUnavailable = errors.New("reminder store unavailable")

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//   - "memory": process-local store, nothing survives a restart
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is durable CRUD over reminder records.
//
// Every operation is atomic with respect to concurrent callers; the store is
// the sole synchronization primitive between the command layer and the
// scheduler loop.
type Store interface {
	// Create inserts a record and returns its fresh unique id.
	Create(ctx context.Context, r reminder.Reminder) (int64, error)

	// ListActive returns the owner's records with DueAt after now,
	// ascending by DueAt.
	ListActive(ctx context.Context, ownerID string, now time.Time) ([]reminder.Reminder, error)

	// Update replaces message/mode/due/channel only if a record with that
	// id AND owner exists. The bool reports whether a match was found.
	Update(ctx context.Context, id int64, ownerID string, r reminder.Reminder) (bool, error)

	// Delete removes the record, ownership-scoped like Update.
	Delete(ctx context.Context, id int64, ownerID string) (bool, error)

	// PopDue returns all records with DueAt at or before now WITHOUT
	// deleting them. Deletion is the caller's responsibility after the
	// record has been handled, so a crash between read and delivery leaves
	// the record intact (at-least-once).
	PopDue(ctx context.Context, now time.Time) ([]reminder.Reminder, error)

	// Remove unconditionally deletes a record by id. Used by the scheduler
	// loop after a dispatch attempt.
	Remove(ctx context.Context, id int64) error

	Close() error
}
