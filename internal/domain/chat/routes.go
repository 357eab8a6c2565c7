package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns chat router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/agents", h.ListAgents)
	r.Get("/agents/{agentId}/messages", h.History)
	r.Post("/agents/{agentId}/messages", h.SendMessage)

	return r
}
