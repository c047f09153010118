package rest

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"lineage-backend/application/queries"
	qryhandlers "lineage-backend/application/queries/handlers"
)

// LineageHandler serves the graph traversal endpoints
type LineageHandler struct {
	neighbors *qryhandlers.NeighborsHandler
	traverse  *qryhandlers.TraverseGraphHandler
	logger    *zap.Logger
}

// NewLineageHandler creates a new lineage handler
func NewLineageHandler(
	neighbors *qryhandlers.NeighborsHandler,
	traverse *qryhandlers.TraverseGraphHandler,
	logger *zap.Logger,
) *LineageHandler {
	return &LineageHandler{
		neighbors: neighbors,
		traverse:  traverse,
		logger:    logger.Named("LineageHandler"),
	}
}

// Neighbors handles GET /api/v1/nodes/{nodeID}/neighbors?direction=Both
func (h *LineageHandler) Neighbors(w http.ResponseWriter, r *http.Request) {
	direction := r.URL.Query().Get("direction")
	if direction == "" {
		direction = string(queries.TraverseBoth)
	}

	nodes, err := h.neighbors.Handle(r.Context(), queries.NeighborsQuery{
		NodeID:    chi.URLParam(r, "nodeID"),
		Direction: direction,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	response := make([]NodeResponse, 0, len(nodes))
	for _, node := range nodes {
		response = append(response, toNodeResponse(node))
	}
	respondJSON(w, http.StatusOK, response)
}

// Traverse handles GET /api/v1/nodes/{nodeID}/lineage?direction=Both&maxDepth=3
func (h *LineageHandler) Traverse(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	direction := params.Get("direction")
	if direction == "" {
		direction = string(queries.TraverseBoth)
	}
	maxDepth := 0
	if raw := params.Get("maxDepth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(w, "invalid maxDepth")
			return
		}
		maxDepth = parsed
	}

	subgraph, err := h.traverse.Handle(r.Context(), queries.TraverseQuery{
		RootID:    chi.URLParam(r, "nodeID"),
		Direction: direction,
		MaxDepth:  maxDepth,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	response := SubgraphResponse{
		Nodes: make([]NodeResponse, 0, len(subgraph.Nodes)),
		Edges: make([]AssociationResponse, 0, len(subgraph.Edges)),
	}
	for _, node := range subgraph.Nodes {
		response.Nodes = append(response.Nodes, toNodeResponse(node))
	}
	for _, edge := range subgraph.Edges {
		response.Edges = append(response.Edges, toAssociationResponse(edge))
	}
	respondJSON(w, http.StatusOK, response)
}
