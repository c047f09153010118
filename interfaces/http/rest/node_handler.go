package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"lineage-backend/application/commands"
	cmdhandlers "lineage-backend/application/commands/handlers"
	"lineage-backend/application/queries"
	qryhandlers "lineage-backend/application/queries/handlers"
	"lineage-backend/application/services"
	"lineage-backend/domain/core/valueobjects"
)

// NodeHandler adapts HTTP requests onto the node commands and queries. It
// carries no business logic; everything is delegated to the application layer.
type NodeHandler struct {
	createNode       *cmdhandlers.CreateNodeHandler
	updateProperties *cmdhandlers.UpdatePropertiesHandler
	deleteNode       *cmdhandlers.DeleteNodeHandler
	getNode          *qryhandlers.GetNodeHandler
	listNodes        *qryhandlers.ListNodesHandler
	cascade          *services.CascadeDeleter

	validate *validator.Validate
	logger   *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(
	createNode *cmdhandlers.CreateNodeHandler,
	updateProperties *cmdhandlers.UpdatePropertiesHandler,
	deleteNode *cmdhandlers.DeleteNodeHandler,
	getNode *qryhandlers.GetNodeHandler,
	listNodes *qryhandlers.ListNodesHandler,
	cascade *services.CascadeDeleter,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{
		createNode:       createNode,
		updateProperties: updateProperties,
		deleteNode:       deleteNode,
		getNode:          getNode,
		listNodes:        listNodes,
		cascade:          cascade,
		validate:         validator.New(),
		logger:           logger.Named("NodeHandler"),
	}
}

// Create handles POST /api/v1/nodes
func (h *NodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(&request); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	node, err := h.createNode.Handle(r.Context(), commands.CreateNodeCommand{
		Category:       request.Category,
		Subtype:        request.Subtype,
		Name:           request.Name,
		SourceURI:      request.SourceURI,
		Properties:     request.Properties,
		WorkflowOrigin: request.WorkflowOrigin,
	})
	if err != nil {
		h.logger.Debug("Node creation failed", zap.String("name", request.Name), zap.Error(err))
		respondError(w, err)
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+node.ID().String())
	respondJSON(w, http.StatusCreated, toNodeResponse(node))
}

// Get handles GET /api/v1/nodes/{nodeID}
func (h *NodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	node, err := h.getNode.Handle(r.Context(), queries.GetNodeQuery{
		NodeID: chi.URLParam(r, "nodeID"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toNodeResponse(node))
}

// GetByName handles GET /api/v1/nodes/lookup?category=...&name=...
func (h *NodeHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	node, err := h.getNode.Handle(r.Context(), queries.GetNodeQuery{
		Category: r.URL.Query().Get("category"),
		Name:     r.URL.Query().Get("name"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toNodeResponse(node))
}

// List handles GET /api/v1/nodes?category=...
// One page is returned per call; the response cursor resumes the listing.
func (h *NodeHandler) List(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	pageSize := 0
	if raw := params.Get("pageSize"); raw != "" {
		pageSize, _ = strconv.Atoi(raw)
	}
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 50
	}

	iter, err := h.listNodes.Handle(r.Context(), queries.ListNodesQuery{
		Category:     params.Get("category"),
		SortField:    params.Get("sortField"),
		SortOrder:    params.Get("sortOrder"),
		NameContains: params.Get("nameContains"),
		PageSize:     pageSize,
		StartCursor:  params.Get("cursor"),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	response := NodePageResponse{Nodes: make([]NodeResponse, 0, pageSize)}
	for len(response.Nodes) < pageSize {
		node, err := iter.Next(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		if node == nil {
			break
		}
		response.Nodes = append(response.Nodes, toNodeResponse(node))
	}
	if len(response.Nodes) == pageSize && !iter.Done() {
		response.NextCursor = iter.Cursor()
	}
	respondJSON(w, http.StatusOK, response)
}

// UpdateProperties handles PATCH /api/v1/nodes/{nodeID}/properties
func (h *NodeHandler) UpdateProperties(w http.ResponseWriter, r *http.Request) {
	var request UpdatePropertiesRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(&request); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	node, err := h.updateProperties.Handle(r.Context(), commands.UpdatePropertiesCommand{
		NodeID:     chi.URLParam(r, "nodeID"),
		Properties: request.Properties,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toNodeResponse(node))
}

// Delete handles DELETE /api/v1/nodes/{nodeID}. With ?cascade=true the
// incident associations are drained first; without it a referenced node is
// rejected with a conflict.
func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	if parseBoolParam(r, "cascade") {
		id, err := valueobjects.NewNodeIDFromString(nodeID)
		if err != nil {
			respondBadRequest(w, "invalid node ID")
			return
		}
		if err := h.cascade.DeleteNode(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.deleteNode.Handle(r.Context(), commands.DeleteNodeCommand{NodeID: nodeID}); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Purge handles DELETE /api/v1/graph
func (h *NodeHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if err := h.cascade.PurgeGraph(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseBoolParam(r *http.Request, name string) bool {
	val, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return val
}
