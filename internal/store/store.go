package store

import (
	"errors"
	"fmt"

	"DeskChat/internal/session"
)

// Sentinel errors shared by every Store implementation.
var (
	// ErrNotFound means no record exists under the given title.
	ErrNotFound = errors.New("conversation not found")
	// ErrCorrupt means a stored record exists but cannot be parsed
	// into a valid Record.
	ErrCorrupt = errors.New("conversation record corrupt")
)

// Store is a durable mapping from title to conversation record. The
// one-file-per-title layout is the default implementation; the SQLite
// implementation provides the same contract on an embedded database.
//
// Stores are only ever used from the engine's owner goroutine, so
// implementations do not need to be safe for concurrent use.
type Store interface {
	// List returns all stored titles, newest first by name ordering.
	// Listing failures degrade to an empty result.
	List() []string
	// Save writes the full record, replacing any record of the same
	// title. Records with no messages are not persisted; Save is a
	// no-op for them.
	Save(rec *session.Record) error
	// Load reads the record stored under title. It returns
	// ErrNotFound if absent and ErrCorrupt if the stored structure is
	// not a valid record.
	Load(title string) (*session.Record, error)
	// Rename moves a record to a new title. The caller must have
	// resolved any collision beforehand; Rename does not allocate
	// uniqueness.
	Rename(oldTitle, newTitle string) error
	// Delete removes the record stored under title, returning
	// ErrNotFound if absent.
	Delete(title string) error
	// Close releases any underlying resources.
	Close() error
}

// validate checks the structural invariants of a loaded record.
func validate(rec *session.Record) error {
	if rec.Title == "" {
		return fmt.Errorf("%w: missing title", ErrCorrupt)
	}
	for i, m := range rec.Messages {
		if m.Role != session.RoleUser && m.Role != session.RoleAssistant {
			return fmt.Errorf("%w: message %d has role %q", ErrCorrupt, i, m.Role)
		}
	}
	return nil
}
