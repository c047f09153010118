package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lineage-backend/application/ports"
	"lineage-backend/application/queries"
	"lineage-backend/domain/core/valueobjects"
)

// ListAssociationsHandler handles edge listing queries over one index facet
type ListAssociationsHandler struct {
	assocRepo ports.AssociationRepository
	logger    *zap.Logger
}

// NewListAssociationsHandler creates a new list associations handler
func NewListAssociationsHandler(assocRepo ports.AssociationRepository, logger *zap.Logger) *ListAssociationsHandler {
	return &ListAssociationsHandler{
		assocRepo: assocRepo,
		logger:    logger,
	}
}

// Handle executes the list associations query, draining the provider's pages
// and mapping each edge to a summary facing the queried direction.
func (h *ListAssociationsHandler) Handle(ctx context.Context, query queries.ListAssociationsQuery) ([]queries.AssociationSummary, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	nodeID, err := valueobjects.NewNodeIDFromString(query.NodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid node ID: %w", err)
	}
	direction := ports.EdgeDirection(query.Direction)

	var summaries []queries.AssociationSummary
	cursor := ""
	for {
		page, err := h.assocRepo.QueryEdges(ctx, ports.EdgeQuery{
			NodeID:    nodeID,
			Direction: direction,
			Limit:     query.PageSize,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query associations: %w", err)
		}
		for _, assoc := range page.Items {
			summaries = append(summaries, queries.SummarizeAssociation(assoc, direction))
		}
		if !page.HasMore {
			return summaries, nil
		}
		cursor = page.NextCursor
	}
}
