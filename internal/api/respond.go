package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pepedome/backend/internal/newsletter"
	"github.com/pepedome/backend/internal/pkg/logger"
)

// Responses use {data: ...} and {error: {message: ...}} envelopes.

type errorBody struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]interface{}{"data": data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]errorBody{"error": {Message: message}})
}

// respondSafeError logs the internal error and sends a generic message, so
// database details and file paths never reach API consumers.
func respondSafeError(w http.ResponseWriter, internalErr error, publicMsg string) {
	if internalErr != nil {
		logger.Error("request failed", "status", http.StatusInternalServerError,
			"public_msg", publicMsg, "error", internalErr)
	}
	respondError(w, http.StatusInternalServerError, publicMsg)
}

// respondStoreError maps store error types onto HTTP statuses: validation
// 400, missing 404, lifecycle conflicts 409, everything else a sanitized 500.
func respondStoreError(w http.ResponseWriter, err error) {
	var (
		ve *newsletter.ErrValidation
		nf *newsletter.ErrNotFound
		is *newsletter.ErrInvalidState
	)
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &nf):
		respondError(w, http.StatusNotFound, nf.Error())
	case errors.As(err, &is):
		respondError(w, http.StatusConflict, is.Error())
	default:
		respondSafeError(w, err, "an internal error occurred")
	}
}
