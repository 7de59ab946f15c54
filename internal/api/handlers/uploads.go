package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wonny/stockdash/internal/state"
	"github.com/wonny/stockdash/pkg/logger"
)

// UploadsHandler lists and restores archived uploads
type UploadsHandler struct {
	archive Archive
	store   *state.Store
	logger  *logger.Logger
}

// NewUploadsHandler creates a new uploads handler. arc may be nil, in which
// case every endpoint answers 503.
func NewUploadsHandler(arc Archive, store *state.Store, log *logger.Logger) *UploadsHandler {
	return &UploadsHandler{
		archive: arc,
		store:   store,
		logger:  log,
	}
}

// List returns archived uploads, newest first
// GET /api/uploads?limit=20
func (h *UploadsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "Upload archive is disabled")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = v
	}

	uploads, err := h.archive.List(r.Context(), limit)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, uploads)
}

// Restore reloads an archived upload as the current dataset
// POST /api/uploads/{id}/restore
func (h *UploadsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "Upload archive is disabled")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid upload id")
		return
	}

	upload, ds, err := h.archive.Load(r.Context(), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	snap, err := h.store.LoadWithID(upload.ID, upload.FileName, ds)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"upload": upload.ID.String(),
		"file":   upload.FileName,
	}).Info("Archived upload restored")

	summary := snap.Summary()
	respondJSON(w, http.StatusOK, UploadResponse{
		Snapshot: &summary,
		Options:  snap.Options,
		Errors:   []FileError{},
		Archived: true,
	})
}
