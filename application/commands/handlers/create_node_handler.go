package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lineage-backend/application/commands"
	"lineage-backend/application/ports"
	"lineage-backend/domain/core/entities"
)

// CreateNodeHandler handles node creation commands
type CreateNodeHandler struct {
	nodeRepo ports.NodeRepository
	logger   *zap.Logger
}

// NewCreateNodeHandler creates a new create node handler
func NewCreateNodeHandler(nodeRepo ports.NodeRepository, logger *zap.Logger) *CreateNodeHandler {
	return &CreateNodeHandler{
		nodeRepo: nodeRepo,
		logger:   logger,
	}
}

// Handle executes the create node command. The provider enforces name
// uniqueness and the category's capacity ceiling atomically on Put.
func (h *CreateNodeHandler) Handle(ctx context.Context, cmd commands.CreateNodeCommand) (*entities.Node, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	category := entities.Category(cmd.Category)

	var node *entities.Node
	var err error
	if cmd.WorkflowOrigin {
		node, err = entities.NewWorkflowNode(category, cmd.Subtype, cmd.Name, cmd.SourceURI, cmd.Properties)
	} else {
		node, err = entities.NewNode(category, cmd.Subtype, cmd.Name, cmd.SourceURI, cmd.Properties)
	}
	if err != nil {
		return nil, err
	}

	if err := h.nodeRepo.Put(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to persist node: %w", err)
	}

	h.logger.Info("Node created",
		zap.String("nodeID", node.ID().String()),
		zap.String("category", string(node.Category())),
		zap.String("name", node.Name()),
	)

	return node, nil
}
