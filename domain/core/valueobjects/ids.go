package valueobjects

import (
	"github.com/google/uuid"

	pkgerrors "lineage-backend/pkg/errors"
)

// NodeID uniquely identifies a node in the lineage graph.
// Identifiers are assigned once at creation time and never reused.
type NodeID struct {
	value string
}

// NewNodeID generates a new unique node identifier
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// NewNodeIDFromString creates a NodeID from an existing identifier string
func NewNodeIDFromString(s string) (NodeID, error) {
	if s == "" {
		return NodeID{}, pkgerrors.NewValidation("node ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return NodeID{}, pkgerrors.NewValidation("node ID must be a valid UUID: " + s)
	}
	return NodeID{value: s}, nil
}

// String returns the identifier as a string
func (id NodeID) String() string {
	return id.value
}

// Equals compares two node identifiers
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsEmpty reports whether the identifier has not been assigned
func (id NodeID) IsEmpty() bool {
	return id.value == ""
}
