package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lineage-backend/application/commands"
	"lineage-backend/application/ports"
	"lineage-backend/domain/core/entities"
	"lineage-backend/domain/core/valueobjects"
)

// UpdatePropertiesHandler handles property merge commands
type UpdatePropertiesHandler struct {
	nodeRepo ports.NodeRepository
	logger   *zap.Logger
}

// NewUpdatePropertiesHandler creates a new update properties handler
func NewUpdatePropertiesHandler(nodeRepo ports.NodeRepository, logger *zap.Logger) *UpdatePropertiesHandler {
	return &UpdatePropertiesHandler{
		nodeRepo: nodeRepo,
		logger:   logger,
	}
}

// Handle executes the update properties command. Keys in the delta overwrite
// existing keys; keys not mentioned are kept.
func (h *UpdatePropertiesHandler) Handle(ctx context.Context, cmd commands.UpdatePropertiesCommand) (*entities.Node, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	nodeID, err := valueobjects.NewNodeIDFromString(cmd.NodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid node ID: %w", err)
	}

	node, err := h.nodeRepo.UpdateProperties(ctx, nodeID, cmd.Properties)
	if err != nil {
		return nil, fmt.Errorf("failed to update properties: %w", err)
	}

	h.logger.Debug("Node properties updated",
		zap.String("nodeID", cmd.NodeID),
		zap.Int("keys", len(cmd.Properties)),
	)

	return node, nil
}
