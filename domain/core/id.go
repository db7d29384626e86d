package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RequestID ID
	RowID     ID
)

func (id RequestID) String() string { return ID(id).String() }
func (id RowID) String() string     { return ID(id).String() }

// NewRequestID tags one pipeline invocation for logs and API responses.
func NewRequestID() RequestID {
	return RequestID(NewID())
}

// ParseRequestID parses a string into RequestID
func ParseRequestID(s string) (RequestID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("request ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("request ID %q is not a UUID: %w", s, err)
	}
	return RequestID(s), nil
}

// StableRowID derives a deterministic row identifier from its source
// coordinates so re-reading the same file yields the same ids.
func StableRowID(source string, index int) RowID {
	return RowID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", source, index))).String())
}
