package core

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// ID is a KSUID-backed audit log entry identifier. KSUIDs sort
// lexicographically by creation time, so a directory of `LogEntry.ID`
// values already reads newest-last without touching the timestamp field —
// useful for the query API's `since`/`until` filters and for deduping a
// replayed `rulez logs` tail.
type ID string

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the ID is the zero value ("")
func (id ID) IsZero() bool {
	return id == ""
}

// NewID mints a fresh LogEntry ID. Called once per ProcessEvent invocation,
// never reused across retries since the state machine has none.
func NewID() (ID, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate new ID: %w", err)
	}
	return ID(id.String()), nil
}

// MustNewID panics on entropy failure; used on the hot path where an
// unrecoverable entropy failure should surface immediately rather than
// propagate as a swallowed empty ID.
func MustNewID() ID {
	id, err := NewID()
	if err != nil {
		panic(err)
	}
	return id
}

// ParseID validates s as a well-formed ID, for `rulez logs` filters that
// accept an entry ID.
func ParseID(s string) (ID, error) {
	if s == "" {
		return "", fmt.Errorf("empty ID")
	}
	// Validate it's a valid KSUID
	if _, err := ksuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid ID format: %w", err)
	}
	return ID(s), nil
}
