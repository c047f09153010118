package entities

import (
	"time"

	"lineage-backend/domain/core/valueobjects"
	pkgerrors "lineage-backend/pkg/errors"
)

// Category classifies a node in the lineage graph
type Category string

const (
	CategoryArtifact         Category = "Artifact"
	CategoryAction           Category = "Action"
	CategoryContext          Category = "Context"
	CategoryExperimentEntity Category = "ExperimentEntity"
)

// IsValid reports whether the category is one of the known node categories
func (c Category) IsValid() bool {
	switch c {
	case CategoryArtifact, CategoryAction, CategoryContext, CategoryExperimentEntity:
		return true
	}
	return false
}

// Categories returns all node categories, used when iterating the whole graph
func Categories() []Category {
	return []Category{CategoryArtifact, CategoryAction, CategoryContext, CategoryExperimentEntity}
}

// Origin records how a node came to exist. Capacity ceilings only apply to
// manually created nodes; nodes created by automated workflow execution are
// exempt and unbounded.
type Origin string

const (
	OriginManual   Origin = "manual"
	OriginWorkflow Origin = "workflow"
)

// Capacity ceilings for manually created entities
const (
	MaxArtifacts    = 6000
	MaxActions      = 3000
	MaxContexts     = 500
	MaxAssociations = 6000
)

// CapacityCeiling returns the manual-creation ceiling for a category.
// The second return is false when the category is unbounded.
func CapacityCeiling(c Category) (int, bool) {
	switch c {
	case CategoryArtifact:
		return MaxArtifacts, true
	case CategoryAction:
		return MaxActions, true
	case CategoryContext:
		return MaxContexts, true
	}
	return 0, false
}

const maxNameLength = 120

// Node is a typed entity in the lineage graph: a piece of data (Artifact), a
// processing step (Action), a logical grouping (Context), or a pre-existing
// experiment-family entity treated as an opaque pass-through node.
type Node struct {
	id         valueobjects.NodeID
	category   Category
	subtype    string
	name       string
	sourceURI  string
	properties map[string]string
	origin     Origin
	createdAt  time.Time
	updatedAt  time.Time
}

// NewNode creates a manually originated node with validation.
// The store assigns the identifier; it is immutable once assigned.
func NewNode(category Category, subtype, name, sourceURI string, properties map[string]string) (*Node, error) {
	return newNode(category, subtype, name, sourceURI, properties, OriginManual)
}

// NewWorkflowNode creates a node on behalf of an automated workflow execution.
// These nodes are exempt from capacity ceilings.
func NewWorkflowNode(category Category, subtype, name, sourceURI string, properties map[string]string) (*Node, error) {
	return newNode(category, subtype, name, sourceURI, properties, OriginWorkflow)
}

func newNode(category Category, subtype, name, sourceURI string, properties map[string]string, origin Origin) (*Node, error) {
	if !category.IsValid() {
		return nil, pkgerrors.NewValidation("unknown node category: " + string(category))
	}
	if name == "" {
		return nil, pkgerrors.NewValidation("node name cannot be empty")
	}
	if len(name) > maxNameLength {
		return nil, pkgerrors.NewValidation("node name exceeds maximum length")
	}

	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[k] = v
	}

	now := time.Now().UTC()
	return &Node{
		id:         valueobjects.NewNodeID(),
		category:   category,
		subtype:    subtype,
		name:       name,
		sourceURI:  sourceURI,
		properties: props,
		origin:     origin,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructNode rebuilds a node from persisted state with preserved timestamps
func ReconstructNode(
	id valueobjects.NodeID,
	category Category,
	subtype, name, sourceURI string,
	properties map[string]string,
	origin Origin,
	createdAt, updatedAt time.Time,
) *Node {
	if properties == nil {
		properties = make(map[string]string)
	}
	return &Node{
		id:         id,
		category:   category,
		subtype:    subtype,
		name:       name,
		sourceURI:  sourceURI,
		properties: properties,
		origin:     origin,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID { return n.id }

// Category returns the node's category
func (n *Node) Category() Category { return n.category }

// Subtype returns the free-form sub-type string (e.g. "Model", "MLWorkflow")
func (n *Node) Subtype() string { return n.subtype }

// Name returns the human-assigned name, unique within the category
func (n *Node) Name() string { return n.name }

// SourceURI returns the locator of the external object this node describes
func (n *Node) SourceURI() string { return n.sourceURI }

// Origin reports whether the node was created manually or by a workflow
func (n *Node) Origin() Origin { return n.origin }

// CreatedAt returns the creation timestamp
func (n *Node) CreatedAt() time.Time { return n.createdAt }

// UpdatedAt returns the last-modified timestamp
func (n *Node) UpdatedAt() time.Time { return n.updatedAt }

// Properties returns a copy of the node's metadata properties
func (n *Node) Properties() map[string]string {
	props := make(map[string]string, len(n.properties))
	for k, v := range n.properties {
		props[k] = v
	}
	return props
}

// MergeProperties merges the delta into the node's properties, overwriting
// existing keys. Keys not mentioned in the delta are kept.
func (n *Node) MergeProperties(delta map[string]string) {
	for k, v := range delta {
		n.properties[k] = v
	}
	n.updatedAt = time.Now().UTC()
}

// CountsAgainstCeiling reports whether this node consumes capacity for its category
func (n *Node) CountsAgainstCeiling() bool {
	_, bounded := CapacityCeiling(n.category)
	return bounded && n.origin == OriginManual
}
