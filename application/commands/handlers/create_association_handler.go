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

// CreateAssociationHandler handles the creation of directed edges between nodes
type CreateAssociationHandler struct {
	nodeRepo  ports.NodeRepository
	assocRepo ports.AssociationRepository
	logger    *zap.Logger
}

// NewCreateAssociationHandler creates a new handler for association creation
func NewCreateAssociationHandler(
	nodeRepo ports.NodeRepository,
	assocRepo ports.AssociationRepository,
	logger *zap.Logger,
) *CreateAssociationHandler {
	return &CreateAssociationHandler{
		nodeRepo:  nodeRepo,
		assocRepo: assocRepo,
		logger:    logger,
	}
}

// Handle executes the create association command. Both endpoints must resolve
// to existing nodes, and an edge between two ExperimentEntity nodes is
// forbidden. Re-creating an identical edge is idempotent and returns the
// existing one, which keeps the operation safe under retries.
func (h *CreateAssociationHandler) Handle(ctx context.Context, cmd commands.CreateAssociationCommand) (*entities.Association, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	sourceID, err := valueobjects.NewNodeIDFromString(cmd.SourceID)
	if err != nil {
		return nil, fmt.Errorf("invalid source node ID: %w", err)
	}
	destID, err := valueobjects.NewNodeIDFromString(cmd.DestID)
	if err != nil {
		return nil, fmt.Errorf("invalid destination node ID: %w", err)
	}

	source, err := h.nodeRepo.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("source node not found: %w", err)
	}
	dest, err := h.nodeRepo.Get(ctx, destID)
	if err != nil {
		return nil, fmt.Errorf("destination node not found: %w", err)
	}

	assoc, err := entities.NewAssociation(source, dest, entities.AssociationType(cmd.Type))
	if err != nil {
		return nil, err
	}

	stored, err := h.assocRepo.PutEdge(ctx, assoc)
	if err != nil {
		return nil, fmt.Errorf("failed to persist association: %w", err)
	}

	h.logger.Info("Association created",
		zap.String("sourceID", cmd.SourceID),
		zap.String("destID", cmd.DestID),
		zap.String("type", cmd.Type),
	)

	return stored, nil
}
