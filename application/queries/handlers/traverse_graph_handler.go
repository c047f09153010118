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

// TraverseGraphHandler handles reachable-subgraph queries
type TraverseGraphHandler struct {
	nodeRepo  ports.NodeRepository
	assocRepo ports.AssociationRepository
	logger    *zap.Logger
}

// NewTraverseGraphHandler creates a new traverse graph handler
func NewTraverseGraphHandler(
	nodeRepo ports.NodeRepository,
	assocRepo ports.AssociationRepository,
	logger *zap.Logger,
) *TraverseGraphHandler {
	return &TraverseGraphHandler{
		nodeRepo:  nodeRepo,
		assocRepo: assocRepo,
		logger:    logger,
	}
}

// Handle executes a breadth-first expansion from the root, following edges in
// the requested direction. The visited set guarantees termination on cyclic
// graphs; every reachable node and edge within MaxDepth appears exactly once.
func (h *TraverseGraphHandler) Handle(ctx context.Context, query queries.TraverseQuery) (*queries.Subgraph, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	rootID, err := valueobjects.NewNodeIDFromString(query.RootID)
	if err != nil {
		return nil, fmt.Errorf("invalid root ID: %w", err)
	}

	root, err := h.nodeRepo.Get(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("root node not found: %w", err)
	}

	sub := &queries.Subgraph{
		Nodes: map[string]*entities.Node{rootID.String(): root},
	}
	edgeSeen := make(map[string]bool)
	frontier := []valueobjects.NodeID{rootID}

	for depth := 0; len(frontier) > 0; depth++ {
		if query.MaxDepth > 0 && depth >= query.MaxDepth {
			break
		}

		var next []valueobjects.NodeID
		for _, current := range frontier {
			for _, facet := range facets(queries.Direction(query.Direction)) {
				edges, err := drainEdges(ctx, h.assocRepo, current, facet)
				if err != nil {
					return nil, fmt.Errorf("failed to expand node %s: %w", current, err)
				}
				for _, edge := range edges {
					key := edge.SourceID().String() + "->" + edge.DestID().String()
					if !edgeSeen[key] {
						edgeSeen[key] = true
						sub.Edges = append(sub.Edges, edge)
					}

					oppID := oppositeEndpoint(edge, current)
					if _, visited := sub.Nodes[oppID.String()]; visited {
						continue
					}
					node, err := h.nodeRepo.Get(ctx, oppID)
					if err != nil {
						return nil, fmt.Errorf("failed to resolve node %s: %w", oppID, err)
					}
					sub.Nodes[oppID.String()] = node
					next = append(next, oppID)
				}
			}
		}
		frontier = next
	}

	h.logger.Debug("Traversal complete",
		zap.String("rootID", query.RootID),
		zap.String("direction", query.Direction),
		zap.Int("nodes", len(sub.Nodes)),
		zap.Int("edges", len(sub.Edges)),
	)

	return sub, nil
}
