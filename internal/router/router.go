package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/j-chowder/anime-recommendation-backend/internal/handler"
)

func Setup(h *handler.Handler, origins []string) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"*"},
	}))

	// Routes
	r.Get("/categories/anime/{name}", h.GetAnimeRecs)
	r.Get("/categories/genre/{genres}", h.GetGenreRecs)
	r.Get("/categories/user/{user}", h.GetUserRecs)
	r.Get("/genres", h.GetGenres)
	r.Get("/health", healthCheck)

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
