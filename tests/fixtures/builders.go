// Package fixtures provides builders for test entities with sensible defaults.
package fixtures

import (
	"time"

	"lineage-backend/domain/core/entities"
	"lineage-backend/domain/core/valueobjects"
)

// NodeBuilder helps create test nodes with default values
type NodeBuilder struct {
	id         valueobjects.NodeID
	category   entities.Category
	subtype    string
	name       string
	sourceURI  string
	properties map[string]string
	origin     entities.Origin
	createdAt  time.Time
}

// NewNodeBuilder returns a builder for a manually created artifact
func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{
		id:        valueobjects.NewNodeID(),
		category:  entities.CategoryArtifact,
		subtype:   "Dataset",
		name:      "test-artifact",
		sourceURI: "s3://bucket/test-artifact",
		origin:    entities.OriginManual,
		createdAt: time.Now().UTC(),
	}
}

func (b *NodeBuilder) WithID(id string) *NodeBuilder {
	b.id, _ = valueobjects.NewNodeIDFromString(id)
	return b
}

func (b *NodeBuilder) WithCategory(category entities.Category) *NodeBuilder {
	b.category = category
	return b
}

func (b *NodeBuilder) WithSubtype(subtype string) *NodeBuilder {
	b.subtype = subtype
	return b
}

func (b *NodeBuilder) WithName(name string) *NodeBuilder {
	b.name = name
	return b
}

func (b *NodeBuilder) WithSourceURI(uri string) *NodeBuilder {
	b.sourceURI = uri
	return b
}

func (b *NodeBuilder) WithProperties(properties map[string]string) *NodeBuilder {
	b.properties = properties
	return b
}

func (b *NodeBuilder) WithWorkflowOrigin() *NodeBuilder {
	b.origin = entities.OriginWorkflow
	return b
}

func (b *NodeBuilder) WithCreatedAt(t time.Time) *NodeBuilder {
	b.createdAt = t
	return b
}

// Build assembles the node
func (b *NodeBuilder) Build() *entities.Node {
	return entities.ReconstructNode(
		b.id,
		b.category,
		b.subtype,
		b.name,
		b.sourceURI,
		b.properties,
		b.origin,
		b.createdAt,
		b.createdAt,
	)
}

// AssociationBuilder helps create test edges between two nodes
type AssociationBuilder struct {
	source    *entities.Node
	dest      *entities.Node
	assocType entities.AssociationType
	createdAt time.Time
}

// NewAssociationBuilder returns a builder with two fresh endpoint nodes
func NewAssociationBuilder() *AssociationBuilder {
	return &AssociationBuilder{
		source: NewNodeBuilder().
			WithCategory(entities.CategoryAction).
			WithSubtype("TrainingRun").
			WithName("test-action").Build(),
		dest:      NewNodeBuilder().Build(),
		assocType: entities.AssociationProduced,
		createdAt: time.Now().UTC(),
	}
}

func (b *AssociationBuilder) WithSource(source *entities.Node) *AssociationBuilder {
	b.source = source
	return b
}

func (b *AssociationBuilder) WithDest(dest *entities.Node) *AssociationBuilder {
	b.dest = dest
	return b
}

func (b *AssociationBuilder) WithType(assocType entities.AssociationType) *AssociationBuilder {
	b.assocType = assocType
	return b
}

// Build assembles the edge
func (b *AssociationBuilder) Build() *entities.Association {
	return entities.ReconstructAssociation(
		b.source.ID(),
		b.dest.ID(),
		b.assocType,
		b.source.Name(),
		b.dest.Name(),
		b.createdAt,
	)
}
