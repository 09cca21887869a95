package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notedex/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/render", h.Render)
	r.Post("/legacy/convert", h.ConvertLegacy)
	r.Get("/search", h.Search)
	r.Post("/ingest", h.Ingest)
	r.Get("/ingest/failed", h.Failed)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
