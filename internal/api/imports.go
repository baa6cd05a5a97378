package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"

	// Registered decoders for the scan upload sniff.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/ignite/contact-engine/internal/domain"
)

var scanFormats = map[string]bool{"jpeg": true, "png": true, "webp": true}

// handleStartImport accepts a multipart spreadsheet upload and opens an
// import session.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	snap, err := s.imports.StartImport(r.Context(), filename, data)
	if err != nil {
		respondDomainError(w, err, &snap)
		return
	}

	if s.archiver != nil {
		s.archiver.SaveAsync(snap.ID, filename, data)
	}
	respondJSON(w, http.StatusCreated, snap)
}

// handleStartScan accepts a business-card photo and opens a scan session.
// The payload must decode as jpeg, png, or webp before it goes anywhere.
func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || !scanFormats[format] {
		respondError(w, http.StatusBadRequest, "file is not a jpeg, png, or webp image")
		return
	}

	snap, err := s.imports.StartScan(r.Context(), data)
	if err != nil {
		respondDomainError(w, err, &snap)
		return
	}

	if s.archiver != nil {
		s.archiver.SaveAsync(snap.ID, filename, data)
	}
	respondJSON(w, http.StatusCreated, snap)
}

// readUpload pulls the "file" part out of a multipart request, enforcing the
// upload size cap before reading the body into memory.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds %d bytes or is not multipart", s.maxUploadBytes))
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, `multipart field "file" is required`)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return "", nil, false
	}
	return header.Filename, data, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.imports.Get(urlParam(r, "sessionID"))
	if err != nil {
		respondDomainError(w, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	sessionID := urlParam(r, "sessionID")
	if snap, ok := s.tracker.Get(r.Context(), sessionID); ok {
		respondJSON(w, http.StatusOK, snap)
		return
	}
	// Fall back to the in-memory session when Redis has nothing.
	if _, err := s.imports.Get(sessionID); err != nil {
		respondDomainError(w, err, nil)
		return
	}
	respondError(w, http.StatusNotFound, "no progress recorded for session")
}

type confirmRequest struct {
	Rows []domain.CandidateContact `json:"rows"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	snap, err := s.imports.Confirm(r.Context(), urlParam(r, "sessionID"), req.Rows)
	if err != nil {
		respondDomainError(w, err, &snap)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

type resolveRequest struct {
	Action domain.Resolution `json:"action"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(urlParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "conflict index must be an integer")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	snap, err := s.imports.Resolve(r.Context(), urlParam(r, "sessionID"), index, req.Action)
	if err != nil {
		respondDomainError(w, err, &snap)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleResolveAll(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	snap, err := s.imports.ResolveAll(r.Context(), urlParam(r, "sessionID"), req.Action)
	if err != nil {
		respondDomainError(w, err, &snap)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.imports.Close(r.Context(), urlParam(r, "sessionID")); err != nil {
		respondDomainError(w, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	if err := s.imports.Cancel(r.Context(), urlParam(r, "sessionID")); err != nil {
		respondDomainError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
