package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"recipebox/internal/linkmeta"
	"recipebox/internal/recipe"
	"recipebox/internal/shopping"
	"recipebox/internal/user"
)

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{OK: false, Error: msg})
}

// fail maps a service error to its HTTP response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recipe.ErrNotFound), errors.Is(err, shopping.ErrRecipeNotFound):
		writeError(w, http.StatusNotFound, "No recipe found")
	case errors.Is(err, user.ErrNotFound), errors.Is(err, shopping.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, shopping.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "Invalid recipe id")
	case errors.Is(err, linkmeta.ErrInvalidLink):
		writeError(w, http.StatusBadRequest, "Invalid link")
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
