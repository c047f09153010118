package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lineage-backend/application/commands"
	"lineage-backend/application/ports"
	"lineage-backend/domain/core/valueobjects"
)

// DeleteNodeHandler handles direct node deletion commands
type DeleteNodeHandler struct {
	nodeRepo ports.NodeRepository
	logger   *zap.Logger
}

// NewDeleteNodeHandler creates a new delete node handler
func NewDeleteNodeHandler(nodeRepo ports.NodeRepository, logger *zap.Logger) *DeleteNodeHandler {
	return &DeleteNodeHandler{
		nodeRepo: nodeRepo,
		logger:   logger,
	}
}

// Handle executes the delete node command. The provider rejects the delete
// with HAS_INCIDENT_EDGES while any association still references the node.
func (h *DeleteNodeHandler) Handle(ctx context.Context, cmd commands.DeleteNodeCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	nodeID, err := valueobjects.NewNodeIDFromString(cmd.NodeID)
	if err != nil {
		return fmt.Errorf("invalid node ID: %w", err)
	}

	if err := h.nodeRepo.Delete(ctx, nodeID); err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}

	h.logger.Info("Node deleted", zap.String("nodeID", cmd.NodeID))
	return nil
}
