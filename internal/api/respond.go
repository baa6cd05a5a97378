package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ignite/contact-engine/internal/store"
	"github.com/ignite/contact-engine/internal/tabular"
	"github.com/ignite/contact-engine/internal/workflow"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps engine errors onto HTTP statuses and shapes. The
// snapshot, when present, rides along so the client can render the current
// wizard step without a second request.
func respondDomainError(w http.ResponseWriter, err error, snap *workflow.Snapshot) {
	var vErr *workflow.ValidationError
	var pErr *tabular.ParseError
	var reqErr *store.RequestError

	switch {
	case errors.As(err, &vErr):
		body := map[string]interface{}{
			"error":      err.Error(),
			"row_errors": vErr.Rows,
		}
		if snap != nil {
			body["session"] = snap
		}
		respondJSON(w, http.StatusUnprocessableEntity, body)
	case errors.As(err, &pErr):
		body := map[string]interface{}{
			"error":  pErr.Message,
			"reason": string(pErr.Reason),
		}
		if snap != nil {
			body["session"] = snap
		}
		respondJSON(w, http.StatusBadRequest, body)
	case errors.As(err, &reqErr):
		body := map[string]interface{}{"error": reqErr.Message}
		if len(reqErr.Fields) > 0 {
			body["fields"] = reqErr.Fields
		}
		respondJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, workflow.ErrUnknownSession):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrAlreadyResolved):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, workflow.ErrBadAction),
		errors.Is(err, workflow.ErrConflictIndex):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, workflow.ErrScanUnavailable):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusBadGateway, err.Error())
	}
}
