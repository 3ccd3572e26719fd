package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/marque/internal/domain"
	"github.com/MrSnakeDoc/marque/internal/logger"
	"github.com/MrSnakeDoc/marque/internal/search"
)

type errorResponse struct {
	Error      string `json:"error"`
	ExistingID *int   `json:"existing_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the core error taxonomy onto HTTP statuses:
// not found -> 404, duplicate url -> 409 (with the conflicting id),
// validation / bad pagination -> 400, everything else -> 500.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	var dup *domain.DuplicateURLError
	var invalid *domain.ValidationError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, errorResponse{Error: dup.Error(), ExistingID: &dup.ExistingID})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalid.Error()})
	case errors.Is(err, search.ErrOffsetOutOfBounds):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.Error("request failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
