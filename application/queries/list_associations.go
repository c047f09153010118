package queries

import (
	"errors"
	"time"

	"lineage-backend/application/ports"
	"lineage-backend/domain/core/entities"
)

// ListAssociationsQuery lists edges incident to a node on one facet of the index
type ListAssociationsQuery struct {
	NodeID    string
	Direction string // Incoming or Outgoing
	PageSize  int
}

// Validate validates the ListAssociationsQuery
func (q ListAssociationsQuery) Validate() error {
	if q.NodeID == "" {
		return errors.New("node ID is required")
	}
	switch ports.EdgeDirection(q.Direction) {
	case ports.DirectionIncoming, ports.DirectionOutgoing:
	default:
		return errors.New("direction must be Incoming or Outgoing")
	}
	return nil
}

// AssociationSummary is a lightweight read model for one edge, carrying the
// opposite endpoint's identifier and display name so listings never need a
// full node fetch.
type AssociationSummary struct {
	SourceID     string
	DestID       string
	Type         string
	OppositeID   string
	OppositeName string
	CreatedAt    time.Time
}

// SummarizeAssociation builds the summary for an edge as seen from the
// queried facet: for an incoming edge the opposite endpoint is the source,
// for an outgoing edge it is the destination.
func SummarizeAssociation(a *entities.Association, direction ports.EdgeDirection) AssociationSummary {
	s := AssociationSummary{
		SourceID:  a.SourceID().String(),
		DestID:    a.DestID().String(),
		Type:      string(a.Type()),
		CreatedAt: a.CreatedAt(),
	}
	if direction == ports.DirectionIncoming {
		s.OppositeID = a.SourceID().String()
		s.OppositeName = a.SourceName()
	} else {
		s.OppositeID = a.DestID().String()
		s.OppositeName = a.DestName()
	}
	return s
}
