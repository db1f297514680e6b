package types

import (
	"github.com/google/uuid"
)

// RunID identifies a single prioritization invocation in logs. String
// alias enables type safety while maintaining JSON
// string serialization. UUIDv7 time-ordering keeps runs sortable by start
// time without a separate timestamp column.
type RunID string

// NewRunID generates a UUIDv7 run identifier.
// Panics if the random source fails (uuid.Must); acceptable for ID generation.
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}

// ParseRunID validates and converts a string to RunID.
// Rejects malformed UUIDs so invalid ids cannot enter log correlation.
func ParseRunID(s string) (RunID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return RunID(s), nil
}
