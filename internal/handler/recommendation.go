package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
)

// GET /categories/anime/{name}
func (h *Handler) GetAnimeRecs(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Missing anime name")
		return
	}

	res, err := h.service.ByTitle(r.Context(), name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if res.Suggestions != nil {
		writeJSON(w, http.StatusOK, DataResponse{Data: res.Suggestions})
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Data: res.Recommendations})
}

// GET /categories/genre/{genres}, genres are space-separated
func (h *Handler) GetGenreRecs(w http.ResponseWriter, r *http.Request) {
	genres := strings.Fields(chi.URLParam(r, "genres"))
	if len(genres) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Missing genre list")
		return
	}

	recs, err := h.service.ByGenre(r.Context(), genres)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Data: recs})
}

// GET /categories/user/{user}
func (h *Handler) GetUserRecs(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	if user == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Missing user name")
		return
	}

	res, err := h.service.RecommendUser(r.Context(), user)
	if err != nil {
		// no usable signal is a distinct outcome, not an empty list
		if errors.Is(err, domain.ErrNoHistory) {
			writeError(w, http.StatusUnprocessableEntity, "no_history",
				"User has no anime on their list")
			return
		}
		if errors.Is(err, domain.ErrNoUsableSeed) {
			writeError(w, http.StatusUnprocessableEntity, "no_usable_seed",
				"User history has no usable titles to anchor recommendations")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Data: res.Recommendations})
}

// GET /genres
func (h *Handler) GetGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.service.AllGenres(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Data: genres})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		writeError(w, http.StatusServiceUnavailable, "request_timeout",
			"Request timed out, please try again")
		return
	}
	if errors.Is(err, domain.ErrUpstreamUnavailable) {
		writeError(w, http.StatusBadGateway, "upstream_unavailable",
			"An upstream service is temporarily unavailable")
		return
	}
	h.log.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}
