package gift

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenai/companion-api/internal/domain/wallet"
	"github.com/lumenai/companion-api/internal/middleware"
	"github.com/lumenai/companion-api/internal/pkg/errorhandler"
	"github.com/lumenai/companion-api/internal/pkg/response"
	"github.com/lumenai/companion-api/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Catalog handles GET /gifts
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	response.OK(w, Catalog())
}

// Send handles POST /gifts
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req SendRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	rec, balance, err := h.service.Send(r.Context(), userID, req.AgentID, req.GiftID)
	if err != nil {
		switch {
		case errors.Is(err, ErrGiftNotFound), errors.Is(err, ErrAgentNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotDelivered):
			response.ServiceUnavailable(w, err.Error())
		default:
			wallet.WriteError(r.Context(), w, err)
		}
		return
	}

	response.Created(w, SendResponse{Gift: rec, Balance: balance})
}

// Sent handles GET /gifts/sent?agent_id=
func (h *Handler) Sent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	recs, err := h.service.Sent(r.Context(), userID, r.URL.Query().Get("agent_id"), limit, offset)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "list gifts", err)
		return
	}
	if recs == nil {
		recs = []*Record{}
	}
	response.OK(w, SentListResponse{Items: recs, Limit: limit, Offset: offset})
}

// Routes returns gift router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.Catalog)
	r.Post("/", h.Send)
	r.Get("/sent", h.Sent)

	return r
}
