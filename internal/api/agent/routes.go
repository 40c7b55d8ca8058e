package agent

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers agent proxy routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/agent/sessions", func(r chi.Router) {
		r.Post("/", h.StartChat)
		r.Get("/{id}", h.GetSession)
		r.Post("/{id}/messages", h.SendMessage)
	})
}
