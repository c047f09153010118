package entities

import (
	"time"

	"lineage-backend/domain/core/valueobjects"
	pkgerrors "lineage-backend/pkg/errors"
)

// AssociationType classifies the relationship an edge expresses.
// The empty type is permitted; it marks an untyped link.
type AssociationType string

const (
	AssociationProduced       AssociationType = "Produced"
	AssociationDerivedFrom    AssociationType = "DerivedFrom"
	AssociationAssociatedWith AssociationType = "AssociatedWith"
	AssociationContributedTo  AssociationType = "ContributedTo"
	AssociationUnset          AssociationType = ""
)

// IsValid reports whether the association type is one of the known types or unset
func (t AssociationType) IsValid() bool {
	switch t {
	case AssociationProduced, AssociationDerivedFrom, AssociationAssociatedWith,
		AssociationContributedTo, AssociationUnset:
		return true
	}
	return false
}

// Association is a directed edge between two nodes, identified by the ordered
// pair (source, destination). Edges hold non-owning references; deleting a
// node does not implicitly delete its edges.
type Association struct {
	sourceID   valueobjects.NodeID
	destID     valueobjects.NodeID
	assocType  AssociationType
	sourceName string
	destName   string
	createdAt  time.Time
}

// NewAssociation creates an edge between two resolved nodes with validation.
// An edge between two ExperimentEntity nodes is forbidden. The endpoint
// display names are denormalized onto the edge so listings never need a full
// node fetch.
func NewAssociation(source, dest *Node, assocType AssociationType) (*Association, error) {
	if source == nil || dest == nil {
		return nil, pkgerrors.NewValidation("association endpoints must be resolved nodes")
	}
	if !assocType.IsValid() {
		return nil, pkgerrors.NewValidation("unknown association type: " + string(assocType))
	}
	if source.Category() == CategoryExperimentEntity && dest.Category() == CategoryExperimentEntity {
		return nil, pkgerrors.NewInvalidAssociation(
			"cannot associate two experiment entities: " + source.Name() + " -> " + dest.Name())
	}

	return &Association{
		sourceID:   source.ID(),
		destID:     dest.ID(),
		assocType:  assocType,
		sourceName: source.Name(),
		destName:   dest.Name(),
		createdAt:  time.Now().UTC(),
	}, nil
}

// ReconstructAssociation rebuilds an edge from persisted state
func ReconstructAssociation(
	sourceID, destID valueobjects.NodeID,
	assocType AssociationType,
	sourceName, destName string,
	createdAt time.Time,
) *Association {
	return &Association{
		sourceID:   sourceID,
		destID:     destID,
		assocType:  assocType,
		sourceName: sourceName,
		destName:   destName,
		createdAt:  createdAt,
	}
}

// SourceID returns the source node identifier
func (a *Association) SourceID() valueobjects.NodeID { return a.sourceID }

// DestID returns the destination node identifier
func (a *Association) DestID() valueobjects.NodeID { return a.destID }

// Type returns the association type
func (a *Association) Type() AssociationType { return a.assocType }

// SourceName returns the denormalized display name of the source node
func (a *Association) SourceName() string { return a.sourceName }

// DestName returns the denormalized display name of the destination node
func (a *Association) DestName() string { return a.destName }

// CreatedAt returns the creation timestamp
func (a *Association) CreatedAt() time.Time { return a.createdAt }

// HasNode reports whether the edge touches the given node on either side
func (a *Association) HasNode(id valueobjects.NodeID) bool {
	return a.sourceID.Equals(id) || a.destID.Equals(id)
}

// SameIdentity reports whether two edges share the ordered endpoint pair
func (a *Association) SameIdentity(other *Association) bool {
	return a.sourceID.Equals(other.sourceID) && a.destID.Equals(other.destID)
}
