package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/contact-engine/internal/domain"
)

// handleListContacts serves the visible collection, not the store: it is
// what the user currently sees, including optimistic removals still inside
// their undo window.
func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	list := s.view.All()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"contacts": list,
		"total":    len(list),
	})
}

// handleCreateContact persists a single manually entered contact.
func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var cand domain.CandidateContact
	if err := json.NewDecoder(r.Body).Decode(&cand); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if cand.Source == "" {
		cand.Source = domain.SourceManual
	}
	if cand.Consent == "" {
		cand.Consent = domain.ConsentUnknown
	}

	created, err := s.store.Create(r.Context(), cand)
	if err != nil {
		respondDomainError(w, err, nil)
		return
	}
	s.view.Add(created)
	respondJSON(w, http.StatusCreated, created)
}

// handleUpdateContact applies a partial field-level update.
func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(fields) == 0 {
		respondError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	updated, err := s.store.Update(r.Context(), urlParam(r, "id"), fields)
	if err != nil {
		respondDomainError(w, err, nil)
		return
	}
	s.view.Replace(updated)
	respondJSON(w, http.StatusOK, updated)
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// handleDeleteContacts starts a deferred deletion. The response carries the
// pending id and expiry; until then POST /delete/{pendingID}/undo reverses it.
func (s *Server) handleDeleteContacts(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "ids is required")
		return
	}

	pendingID, err := s.deleter.DeleteWithUndo(req.IDs)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"pending_id": pendingID,
		"expires_at": time.Now().Add(s.deleter.GraceWindow()).UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleUndoDelete(w http.ResponseWriter, r *http.Request) {
	pendingID, err := strconv.ParseInt(urlParam(r, "pendingID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "pending id must be an integer")
		return
	}

	if !s.deleter.Undo(pendingID) {
		respondError(w, http.StatusGone, "deletion already committed or unknown")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}
