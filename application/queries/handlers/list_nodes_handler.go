package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lineage-backend/application/ports"
	"lineage-backend/application/queries"
	"lineage-backend/domain/core/entities"
)

// ListNodesHandler handles node listing queries
type ListNodesHandler struct {
	nodeRepo ports.NodeRepository
	logger   *zap.Logger
}

// NewListNodesHandler creates a new list nodes handler
func NewListNodesHandler(nodeRepo ports.NodeRepository, logger *zap.Logger) *ListNodesHandler {
	return &ListNodesHandler{
		nodeRepo: nodeRepo,
		logger:   logger,
	}
}

// Handle returns a lazy iterator over the listing. Pagination stays with the
// provider; the iterator only pulls the next page when its buffer runs dry.
func (h *ListNodesHandler) Handle(ctx context.Context, query queries.ListNodesQuery) (*queries.NodeIterator, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	category := entities.Category(query.Category)
	if !category.IsValid() {
		return nil, fmt.Errorf("unknown node category: %s", query.Category)
	}

	sortField := ports.SortField(query.SortField)
	if sortField == "" {
		sortField = ports.SortByCreationTime
	}
	sortOrder := ports.SortOrder(query.SortOrder)
	if sortOrder == "" {
		sortOrder = ports.Ascending
	}

	fetch := func(ctx context.Context, cursor string) (ports.Page[*entities.Node], error) {
		return h.nodeRepo.Query(ctx, ports.NodeQuery{
			Category:     category,
			SortField:    sortField,
			SortOrder:    sortOrder,
			NameContains: query.NameContains,
			Limit:        query.PageSize,
			Cursor:       cursor,
		})
	}

	return queries.NewNodeIterator(fetch, query.StartCursor), nil
}
