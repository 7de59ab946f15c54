package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/wonny/stockdash/internal/archive"
	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/decoder"
	"github.com/wonny/stockdash/internal/filter"
	"github.com/wonny/stockdash/internal/introspect"
	"github.com/wonny/stockdash/internal/state"
	"github.com/wonny/stockdash/pkg/logger"
)

// Archive is the upload archive as the handlers use it
type Archive interface {
	Save(ctx context.Context, id uuid.UUID, fileName string, d *contracts.Dataset) (archive.Upload, error)
	List(ctx context.Context, limit int) ([]archive.Upload, error)
	Load(ctx context.Context, id uuid.UUID) (archive.Upload, *contracts.Dataset, error)
}

// DatasetHandler handles upload, introspection and filtering
// ⭐ SSOT: 데이터셋 API 핸들러는 이 구조체에서만
type DatasetHandler struct {
	decoder *decoder.Decoder
	store   *state.Store
	archive Archive // nil when DATABASE_URL is unset
	maxBody int64
	logger  *logger.Logger
}

// NewDatasetHandler creates a new dataset handler. maxBody bounds the whole
// request body; arc may be nil.
func NewDatasetHandler(dec *decoder.Decoder, store *state.Store, arc Archive, maxBody int64, log *logger.Logger) *DatasetHandler {
	return &DatasetHandler{
		decoder: dec,
		store:   store,
		archive: arc,
		maxBody: maxBody,
		logger:  log,
	}
}

// UploadRequest carries one or more files from the upload widget
type UploadRequest struct {
	Files []decoder.File `json:"files"`
}

// FileError is a per-file decode failure shown in place of the table
type FileError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// UploadResponse reports the loaded snapshot and any rejected files
type UploadResponse struct {
	Snapshot *state.Summary     `json:"snapshot,omitempty"`
	Options  introspect.Options `json:"options,omitempty"`
	Errors   []FileError        `json:"errors"`
	Archived bool               `json:"archived"`
}

// Upload decodes the files and loads the last one that parses
// POST /api/dataset/upload
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req UploadRequest
	if err := decodeJSON(r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Files) == 0 {
		respondError(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	result := h.decoder.DecodeBatch(req.Files)

	resp := UploadResponse{Errors: make([]FileError, 0, len(result.Errors))}
	for _, de := range result.Errors {
		resp.Errors = append(resp.Errors, FileError{File: de.File, Message: de.Message})
	}

	if result.Dataset == nil {
		respondJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	snap, err := h.store.Load(result.File, result.Dataset)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	if h.archive != nil {
		if _, err := h.archive.Save(r.Context(), snap.ID, snap.FileName, snap.Dataset); err != nil {
			h.logger.WithError(err).WithField("file", snap.FileName).Warn("Failed to archive upload")
		} else {
			resp.Archived = true
		}
	}

	summary := snap.Summary()
	resp.Snapshot = &summary
	resp.Options = snap.Options

	h.logger.WithFields(map[string]interface{}{
		"file":     snap.FileName,
		"rows":     summary.Rows,
		"version":  snap.Version,
		"rejected": len(resp.Errors),
	}).Info("Dataset loaded")

	respondJSON(w, http.StatusOK, resp)
}

// Get returns the current snapshot summary
// GET /api/dataset
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Current()
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, snap.Summary())
}

// Reset drops the current dataset
// DELETE /api/dataset
func (h *DatasetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.store.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// Options returns the option lists of the current dataset
// GET /api/dataset/options
func (h *DatasetHandler) Options(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Current()
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, snap.Options)
}

// FilterRequest holds per-column directives
type FilterRequest struct {
	Directives filter.Directives `json:"directives"`
}

// Filter applies directives to the current dataset and returns the table
// POST /api/dataset/filter
func (h *DatasetHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, contracts.ErrUnknownColumn) || errors.Is(err, contracts.ErrInvalidDirective) {
			respondDomainError(w, h.logger, err)
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snap, err := h.store.Current()
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	out, err := filter.Apply(snap.Dataset, req.Directives)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, filter.ToTable(out))
}
