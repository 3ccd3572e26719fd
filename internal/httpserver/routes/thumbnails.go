package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marque/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marque/internal/httpserver/handlers"
)

func init() { Register(registerThumbnails) }

func registerThumbnails(r chi.Router, d deps.Deps) {
	r.Post("/api/v1/thumbnails/refresh", handlers.TriggerThumbnails(d))
}
