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

// GetNodeHandler handles node lookup queries
type GetNodeHandler struct {
	nodeRepo ports.NodeRepository
	logger   *zap.Logger
}

// NewGetNodeHandler creates a new get node handler
func NewGetNodeHandler(nodeRepo ports.NodeRepository, logger *zap.Logger) *GetNodeHandler {
	return &GetNodeHandler{
		nodeRepo: nodeRepo,
		logger:   logger,
	}
}

// Handle executes the get node query, resolving by identifier when given and
// by category-scoped name otherwise.
func (h *GetNodeHandler) Handle(ctx context.Context, query queries.GetNodeQuery) (*entities.Node, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	if query.NodeID != "" {
		nodeID, err := valueobjects.NewNodeIDFromString(query.NodeID)
		if err != nil {
			return nil, fmt.Errorf("invalid node ID: %w", err)
		}
		return h.nodeRepo.Get(ctx, nodeID)
	}

	return h.nodeRepo.GetByName(ctx, entities.Category(query.Category), query.Name)
}
