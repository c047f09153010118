package rest

import (
	"time"

	"lineage-backend/application/queries"
	"lineage-backend/domain/core/entities"
)

// CreateNodeRequest is the body for POST /api/v1/nodes
type CreateNodeRequest struct {
	Category       string            `json:"category" validate:"required"`
	Subtype        string            `json:"subtype" validate:"max=120"`
	Name           string            `json:"name" validate:"required,max=120"`
	SourceURI      string            `json:"sourceUri" validate:"omitempty,max=2048"`
	Properties     map[string]string `json:"properties"`
	WorkflowOrigin bool              `json:"workflowOrigin"`
}

// UpdatePropertiesRequest is the body for PATCH /api/v1/nodes/{nodeID}/properties
type UpdatePropertiesRequest struct {
	Properties map[string]string `json:"properties" validate:"required,min=1"`
}

// CreateAssociationRequest is the body for POST /api/v1/associations
type CreateAssociationRequest struct {
	SourceID string `json:"sourceId" validate:"required,uuid"`
	DestID   string `json:"destId" validate:"required,uuid"`
	Type     string `json:"type"`
}

// NodeResponse is the API representation of a single node
type NodeResponse struct {
	ID         string            `json:"id"`
	Category   string            `json:"category"`
	Subtype    string            `json:"subtype,omitempty"`
	Name       string            `json:"name"`
	SourceURI  string            `json:"sourceUri,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Origin     string            `json:"origin"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// NodePageResponse is one page of a node listing
type NodePageResponse struct {
	Nodes      []NodeResponse `json:"nodes"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// AssociationResponse is the API representation of an edge
type AssociationResponse struct {
	SourceID   string    `json:"sourceId"`
	DestID     string    `json:"destId"`
	Type       string    `json:"type,omitempty"`
	SourceName string    `json:"sourceName"`
	DestName   string    `json:"destName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AssociationSummaryResponse is the lightweight per-facet edge view
type AssociationSummaryResponse struct {
	SourceID     string    `json:"sourceId"`
	DestID       string    `json:"destId"`
	Type         string    `json:"type,omitempty"`
	OppositeID   string    `json:"oppositeId"`
	OppositeName string    `json:"oppositeName"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SubgraphResponse is the result of a traversal
type SubgraphResponse struct {
	Nodes []NodeResponse        `json:"nodes"`
	Edges []AssociationResponse `json:"edges"`
}

func toNodeResponse(node *entities.Node) NodeResponse {
	return NodeResponse{
		ID:         node.ID().String(),
		Category:   string(node.Category()),
		Subtype:    node.Subtype(),
		Name:       node.Name(),
		SourceURI:  node.SourceURI(),
		Properties: node.Properties(),
		Origin:     string(node.Origin()),
		CreatedAt:  node.CreatedAt(),
		UpdatedAt:  node.UpdatedAt(),
	}
}

func toAssociationResponse(assoc *entities.Association) AssociationResponse {
	return AssociationResponse{
		SourceID:   assoc.SourceID().String(),
		DestID:     assoc.DestID().String(),
		Type:       string(assoc.Type()),
		SourceName: assoc.SourceName(),
		DestName:   assoc.DestName(),
		CreatedAt:  assoc.CreatedAt(),
	}
}

func toSummaryResponse(summary queries.AssociationSummary) AssociationSummaryResponse {
	return AssociationSummaryResponse{
		SourceID:     summary.SourceID,
		DestID:       summary.DestID,
		Type:         summary.Type,
		OppositeID:   summary.OppositeID,
		OppositeName: summary.OppositeName,
		CreatedAt:    summary.CreatedAt,
	}
}
