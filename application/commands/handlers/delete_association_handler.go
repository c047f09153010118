package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lineage-backend/application/commands"
	"lineage-backend/application/ports"
	"lineage-backend/domain/core/valueobjects"
)

// DeleteAssociationHandler handles edge deletion commands
type DeleteAssociationHandler struct {
	assocRepo ports.AssociationRepository
	logger    *zap.Logger
}

// NewDeleteAssociationHandler creates a new delete association handler
func NewDeleteAssociationHandler(assocRepo ports.AssociationRepository, logger *zap.Logger) *DeleteAssociationHandler {
	return &DeleteAssociationHandler{
		assocRepo: assocRepo,
		logger:    logger,
	}
}

// Handle executes the delete association command. Both facets of the edge
// index are removed together; a one-sided removal is never observable.
func (h *DeleteAssociationHandler) Handle(ctx context.Context, cmd commands.DeleteAssociationCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	sourceID, err := valueobjects.NewNodeIDFromString(cmd.SourceID)
	if err != nil {
		return fmt.Errorf("invalid source node ID: %w", err)
	}
	destID, err := valueobjects.NewNodeIDFromString(cmd.DestID)
	if err != nil {
		return fmt.Errorf("invalid destination node ID: %w", err)
	}

	if err := h.assocRepo.DeleteEdge(ctx, sourceID, destID); err != nil {
		return fmt.Errorf("failed to delete association: %w", err)
	}

	h.logger.Info("Association deleted",
		zap.String("sourceID", cmd.SourceID),
		zap.String("destID", cmd.DestID),
	)
	return nil
}
