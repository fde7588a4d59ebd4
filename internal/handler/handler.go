package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/j-chowder/anime-recommendation-backend/internal/recommend"
)

type Handler struct {
	service *recommend.Service
	log     *zap.Logger
}

func NewHandler(svc *recommend.Service, log *zap.Logger) *Handler {
	return &Handler{service: svc, log: log}
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}
