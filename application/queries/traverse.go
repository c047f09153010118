package queries

import (
	"errors"

	"lineage-backend/domain/core/entities"
)

// Direction selects which edges a traversal follows from each discovered node
type Direction string

const (
	TraverseIncoming Direction = "Incoming"
	TraverseOutgoing Direction = "Outgoing"
	TraverseBoth     Direction = "Both"
)

// IsValid reports whether the direction is one of the traversal directions
func (d Direction) IsValid() bool {
	switch d {
	case TraverseIncoming, TraverseOutgoing, TraverseBoth:
		return true
	}
	return false
}

// NeighborsQuery asks for the one-hop neighbor set of a node
type NeighborsQuery struct {
	NodeID    string
	Direction string
}

// Validate validates the NeighborsQuery
func (q NeighborsQuery) Validate() error {
	if q.NodeID == "" {
		return errors.New("node ID is required")
	}
	if !Direction(q.Direction).IsValid() {
		return errors.New("direction must be Incoming, Outgoing or Both")
	}
	return nil
}

// TraverseQuery asks for the subgraph reachable from a root. MaxDepth zero
// means unbounded: the expansion runs until no new nodes are discovered.
type TraverseQuery struct {
	RootID    string
	Direction string
	MaxDepth  int
}

// Validate validates the TraverseQuery
func (q TraverseQuery) Validate() error {
	if q.RootID == "" {
		return errors.New("root ID is required")
	}
	if !Direction(q.Direction).IsValid() {
		return errors.New("direction must be Incoming, Outgoing or Both")
	}
	if q.MaxDepth < 0 {
		return errors.New("max depth cannot be negative")
	}
	return nil
}

// Subgraph is the result of a traversal: every reachable node and edge within
// the depth bound, each exactly once. Iteration order carries no guarantee.
type Subgraph struct {
	Nodes map[string]*entities.Node
	Edges []*entities.Association
}
