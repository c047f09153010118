package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "lineage-backend/pkg/errors"
)

// errorResponse is the standardized error body
type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// respondError maps an application error onto an HTTP status and body
func respondError(w http.ResponseWriter, err error) {
	var di *pkgerrors.DeletionIncompleteError
	if errors.As(err, &di) {
		details := append([]string{}, di.FailedNodes...)
		details = append(details, di.FailedAssociations...)
		respondJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "deletion incomplete",
			Details: details,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case pkgerrors.IsValidation(err):
		status = http.StatusBadRequest
	case pkgerrors.IsNotFound(err):
		status = http.StatusNotFound
	case pkgerrors.IsDuplicateName(err):
		status = http.StatusConflict
	case pkgerrors.IsHasIncidentEdges(err):
		status = http.StatusConflict
	case pkgerrors.IsInvalidAssociation(err):
		status = http.StatusUnprocessableEntity
	case pkgerrors.IsCapacityExceeded(err):
		status = http.StatusTooManyRequests
	case pkgerrors.IsTransient(err):
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

// respondBadRequest writes a 400 with a plain message
func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}
