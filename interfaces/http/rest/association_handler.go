package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"lineage-backend/application/commands"
	cmdhandlers "lineage-backend/application/commands/handlers"
	"lineage-backend/application/queries"
	qryhandlers "lineage-backend/application/queries/handlers"
	"lineage-backend/application/ports"
)

// AssociationHandler adapts HTTP requests onto the association commands and
// queries.
type AssociationHandler struct {
	createAssociation *cmdhandlers.CreateAssociationHandler
	deleteAssociation *cmdhandlers.DeleteAssociationHandler
	listAssociations  *qryhandlers.ListAssociationsHandler

	validate *validator.Validate
	logger   *zap.Logger
}

// NewAssociationHandler creates a new association handler
func NewAssociationHandler(
	createAssociation *cmdhandlers.CreateAssociationHandler,
	deleteAssociation *cmdhandlers.DeleteAssociationHandler,
	listAssociations *qryhandlers.ListAssociationsHandler,
	logger *zap.Logger,
) *AssociationHandler {
	return &AssociationHandler{
		createAssociation: createAssociation,
		deleteAssociation: deleteAssociation,
		listAssociations:  listAssociations,
		validate:          validator.New(),
		logger:            logger.Named("AssociationHandler"),
	}
}

// Create handles POST /api/v1/associations
func (h *AssociationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request CreateAssociationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(&request); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	assoc, err := h.createAssociation.Handle(r.Context(), commands.CreateAssociationCommand{
		SourceID: request.SourceID,
		DestID:   request.DestID,
		Type:     request.Type,
	})
	if err != nil {
		h.logger.Debug("Association creation failed",
			zap.String("sourceID", request.SourceID),
			zap.String("destID", request.DestID),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toAssociationResponse(assoc))
}

// ListIncoming handles GET /api/v1/nodes/{nodeID}/associations/incoming
func (h *AssociationHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ports.DirectionIncoming)
}

// ListOutgoing handles GET /api/v1/nodes/{nodeID}/associations/outgoing
func (h *AssociationHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ports.DirectionOutgoing)
}

func (h *AssociationHandler) list(w http.ResponseWriter, r *http.Request, direction ports.EdgeDirection) {
	summaries, err := h.listAssociations.Handle(r.Context(), queries.ListAssociationsQuery{
		NodeID:    chi.URLParam(r, "nodeID"),
		Direction: string(direction),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	response := make([]AssociationSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		response = append(response, toSummaryResponse(summary))
	}
	respondJSON(w, http.StatusOK, response)
}

// Delete handles DELETE /api/v1/associations/{sourceID}/{destID}
func (h *AssociationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.deleteAssociation.Handle(r.Context(), commands.DeleteAssociationCommand{
		SourceID: chi.URLParam(r, "sourceID"),
		DestID:   chi.URLParam(r, "destID"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
