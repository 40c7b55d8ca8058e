package chat

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers RAG chat routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/starters", h.GetStarters)

	r.Route("/chat", func(r chi.Router) {
		r.Post("/search", h.Search)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.StartChat)
			r.Get("/{id}", h.GetSession)
			r.Post("/{id}/messages", h.SendMessage)
			r.Get("/{id}/transcript", h.GetTranscript)
		})
	})
}
