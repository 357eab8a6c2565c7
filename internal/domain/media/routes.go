package media

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns media router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Post("/images", h.GenerateImage)
	r.Post("/voices", h.GenerateVoice)
	r.Post("/videos", h.GenerateVideo)

	return r
}
