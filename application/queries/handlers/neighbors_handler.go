package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lineage-backend/application/ports"
	"lineage-backend/application/queries"
	"lineage-backend/domain/core/entities"
	"lineage-backend/domain/core/valueobjects"
)

// NeighborsHandler handles one-hop neighbor queries, built directly on the
// association index.
type NeighborsHandler struct {
	nodeRepo  ports.NodeRepository
	assocRepo ports.AssociationRepository
	logger    *zap.Logger
}

// NewNeighborsHandler creates a new neighbors handler
func NewNeighborsHandler(
	nodeRepo ports.NodeRepository,
	assocRepo ports.AssociationRepository,
	logger *zap.Logger,
) *NeighborsHandler {
	return &NeighborsHandler{
		nodeRepo:  nodeRepo,
		assocRepo: assocRepo,
		logger:    logger,
	}
}

// Handle executes the neighbors query and returns the neighbor set keyed by
// node identifier.
func (h *NeighborsHandler) Handle(ctx context.Context, query queries.NeighborsQuery) (map[string]*entities.Node, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	nodeID, err := valueobjects.NewNodeIDFromString(query.NodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid node ID: %w", err)
	}

	neighbors := make(map[string]*entities.Node)
	for _, facet := range facets(queries.Direction(query.Direction)) {
		edges, err := drainEdges(ctx, h.assocRepo, nodeID, facet)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s edges: %w", facet, err)
		}
		for _, edge := range edges {
			oppID := oppositeEndpoint(edge, nodeID)
			if _, seen := neighbors[oppID.String()]; seen {
				continue
			}
			node, err := h.nodeRepo.Get(ctx, oppID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve neighbor %s: %w", oppID, err)
			}
			neighbors[oppID.String()] = node
		}
	}

	return neighbors, nil
}

// facets maps a traversal direction to the index facets it reads
func facets(d queries.Direction) []ports.EdgeDirection {
	switch d {
	case queries.TraverseIncoming:
		return []ports.EdgeDirection{ports.DirectionIncoming}
	case queries.TraverseOutgoing:
		return []ports.EdgeDirection{ports.DirectionOutgoing}
	default:
		return []ports.EdgeDirection{ports.DirectionIncoming, ports.DirectionOutgoing}
	}
}

// oppositeEndpoint returns the endpoint of the edge that is not the given node.
// Self-loops return the node itself.
func oppositeEndpoint(edge *entities.Association, nodeID valueobjects.NodeID) valueobjects.NodeID {
	if edge.SourceID().Equals(nodeID) {
		return edge.DestID()
	}
	return edge.SourceID()
}

// drainEdges pulls every page of one index facet for a node
func drainEdges(ctx context.Context, repo ports.AssociationRepository, nodeID valueobjects.NodeID, facet ports.EdgeDirection) ([]*entities.Association, error) {
	var edges []*entities.Association
	cursor := ""
	for {
		page, err := repo.QueryEdges(ctx, ports.EdgeQuery{
			NodeID:    nodeID,
			Direction: facet,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, err
		}
		edges = append(edges, page.Items...)
		if !page.HasMore {
			return edges, nil
		}
		cursor = page.NextCursor
	}
}
