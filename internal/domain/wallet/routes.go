package wallet

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns wallet router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/balance", h.Balance)
	r.Get("/transactions", h.Transactions)
	r.Post("/ad-reward", h.AdReward)
	r.Get("/stream", h.Stream)

	return r
}
