package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/stockdash/internal/archive"
	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps domain errors onto HTTP statuses.
// Anything unrecognised is logged and reported as a 500.
// ⭐ SSOT: 도메인 에러 → HTTP 상태 매핑은 여기서만
func respondDomainError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, contracts.ErrNoDataset):
		respondError(w, http.StatusConflict, "No dataset loaded. Upload a file first.")
	case errors.Is(err, contracts.ErrInvalidDirective),
		errors.Is(err, contracts.ErrTypeCoercion),
		errors.Is(err, contracts.ErrUnknownColumn),
		errors.Is(err, contracts.ErrMissingFeature),
		errors.Is(err, contracts.ErrFeatureNotNumeric):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, archive.ErrUploadNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		log.WithError(err).Error("Request failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON request body, rejecting unknown fields
func decodeJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}
