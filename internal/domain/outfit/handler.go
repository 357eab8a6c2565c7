package outfit

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenai/companion-api/internal/domain/wallet"
	"github.com/lumenai/companion-api/internal/middleware"
	"github.com/lumenai/companion-api/internal/pkg/errorhandler"
	"github.com/lumenai/companion-api/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /outfits?agent_id=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	items, err := h.service.List(r.Context(), userID, r.URL.Query().Get("agent_id"))
	if err != nil {
		errorhandler.Internal(r.Context(), w, "list outfits", err)
		return
	}
	response.OK(w, items)
}

// Unlock handles POST /outfits/{outfitId}/unlock
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	u, balance, err := h.service.Unlock(r.Context(), userID, chi.URLParam(r, "outfitId"))
	if err != nil {
		switch {
		case errors.Is(err, ErrOutfitNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrAlreadyUnlocked):
			response.Conflict(w, err.Error())
		case errors.Is(err, ErrUnlockNotApplied):
			response.ServiceUnavailable(w, err.Error())
		default:
			wallet.WriteError(r.Context(), w, err)
		}
		return
	}

	response.Created(w, UnlockResponse{Unlock: u, Balance: balance})
}

// Routes returns outfit router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Post("/{outfitId}/unlock", h.Unlock)

	return r
}
