package ports

import (
	"context"

	"lineage-backend/domain/core/entities"
	"lineage-backend/domain/core/valueobjects"
)

// SortField selects the node attribute list queries order by
type SortField string

const (
	SortByCreationTime SortField = "CreationTime"
	SortByName         SortField = "Name"
)

// SortOrder selects the direction of a sorted listing
type SortOrder string

const (
	Ascending  SortOrder = "Ascending"
	Descending SortOrder = "Descending"
)

// EdgeDirection selects which facet of the bidirectional edge index a query reads
type EdgeDirection string

const (
	DirectionIncoming EdgeDirection = "Incoming"
	DirectionOutgoing EdgeDirection = "Outgoing"
)

// Page is one page of a cursor-paginated result. An empty NextCursor means the
// sequence is exhausted.
type Page[T any] struct {
	Items      []T
	NextCursor string
	HasMore    bool
}

// NodeQuery describes a node listing request. Ordering is stable for a fixed
// sort key even as new nodes are created concurrently.
type NodeQuery struct {
	Category     entities.Category
	SortField    SortField
	SortOrder    SortOrder
	NameContains string
	Limit        int
	Cursor       string
}

// NodeRepository is the persistence/transport provider contract for nodes.
// Every call may be network-bound: slow, and fallible with transient errors.
//
// Put enforces the structural invariants atomically with respect to the
// provider's consistency guarantees: a duplicate name within the category
// fails with a DUPLICATE_NAME error, and a manually created node beyond the
// category ceiling fails with CAPACITY_EXCEEDED. Under concurrent creation of
// the same name exactly one caller wins.
type NodeRepository interface {
	// Put persists a new node
	Put(ctx context.Context, node *entities.Node) error

	// Get retrieves a node by its identifier; NOT_FOUND if absent
	Get(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error)

	// GetByName retrieves a node by its category-scoped name; NOT_FOUND if absent
	GetByName(ctx context.Context, category entities.Category, name string) (*entities.Node, error)

	// Query returns one page of nodes for a listing
	Query(ctx context.Context, q NodeQuery) (Page[*entities.Node], error)

	// UpdateProperties merges the delta into the node's properties and returns
	// the updated node. Keys absent from the delta are untouched.
	UpdateProperties(ctx context.Context, id valueobjects.NodeID, delta map[string]string) (*entities.Node, error)

	// Delete removes a node. Fails with HAS_INCIDENT_EDGES while any
	// association still references it; this is the integrity gate the cascade
	// engine exists to satisfy.
	Delete(ctx context.Context, id valueobjects.NodeID) error
}

// EdgeQuery describes an edge listing request for one endpoint facet
type EdgeQuery struct {
	NodeID    valueobjects.NodeID
	Direction EdgeDirection
	Limit     int
	Cursor    string
}

// AssociationRepository is the persistence/transport provider contract for the
// bidirectional edge index. Both index facets (by source, by destination)
// describe the same logical edge; a state where only one facet exists is an
// internal-consistency bug and never observable by callers.
type AssociationRepository interface {
	// PutEdge persists an edge. Re-creating an edge with the same ordered pair
	// and type is idempotent and returns the existing edge. The same pair with
	// a different type fails with INVALID_ASSOCIATION. The global ceiling on
	// manually created associations fails with CAPACITY_EXCEEDED.
	PutEdge(ctx context.Context, assoc *entities.Association) (*entities.Association, error)

	// GetEdge retrieves the edge for an ordered pair; NOT_FOUND if absent
	GetEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) (*entities.Association, error)

	// QueryEdges returns one page of edges incident to a node on the requested facet
	QueryEdges(ctx context.Context, q EdgeQuery) (Page[*entities.Association], error)

	// DeleteEdge removes both index facets of an edge atomically from the
	// caller's perspective; NOT_FOUND if the pair has no edge.
	DeleteEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) error
}
