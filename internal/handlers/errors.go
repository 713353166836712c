package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"mathdrill/internal/logger"
	"mathdrill/internal/service"
	"mathdrill/internal/validation"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error(logMsg, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: userMsg})
}

// writeServiceError maps service errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	var verr *service.ValidationError
	var fieldErr validation.ValidationError
	var perr *service.PersistenceError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fieldErr.Message, Field: fieldErr.Field})
	case errors.Is(err, service.ErrEmptyPool):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrAnswerPending), errors.Is(err, service.ErrSessionClosed), errors.Is(err, service.ErrNoQuestion):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNoSession), errors.Is(err, service.ErrReviewItemNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.As(err, &perr):
		respondWithError(w, log, http.StatusInternalServerError, "Failed to save progress", perr.Op, perr.Err)
	default:
		respondWithError(w, log, http.StatusInternalServerError, ErrInternalServerError, "", err)
	}
}

// decodeJSON reads a request body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &service.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return nil
}
