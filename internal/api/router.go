package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mindflow/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)
		r.Delete("/", h.ClearNotes)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Put("/", h.UpdateNote)
			r.Delete("/", h.DeleteNote)
			r.Put("/content", h.UpdateContent)
			r.Get("/tasks", h.ListTasks)
			r.Post("/tasks/{index}", h.ToggleTask)
			r.Post("/pin", h.TogglePin)
			r.Post("/archive", h.Archive)
			r.Post("/undo", h.Undo)
		})
	})

	r.Route("/transform", func(r chi.Router) {
		r.Post("/magic", h.MagicFormat)
		r.Post("/summary", h.Summarize)
		r.Post("/tone", h.RewriteTone)
	})

	r.Post("/ask", h.Ask)

	r.Get("/preferences/theme", h.GetTheme)
	r.Put("/preferences/theme", h.PutTheme)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
