package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenai/companion-api/internal/domain/wallet"
	"github.com/lumenai/companion-api/internal/middleware"
	"github.com/lumenai/companion-api/internal/pkg/errorhandler"
	"github.com/lumenai/companion-api/internal/pkg/logger"
	"github.com/lumenai/companion-api/internal/pkg/response"
	"github.com/lumenai/companion-api/internal/pkg/validator"
)

// Handler handles admin wallet operations
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Recharge handles POST /admin/users/{id}/recharge
func (h *Handler) Recharge(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, ErrInvalidUserID.Error())
		return
	}

	var req RechargeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	adminID := middleware.GetUserID(r.Context())
	balance, err := h.service.Recharge(r.Context(), RechargeInput{
		AdminID:        adminID,
		UserID:         userID,
		Amount:         req.Amount,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
		IPAddress:      r.RemoteAddr,
	})
	switch {
	case errors.Is(err, wallet.ErrDuplicateReward):
		response.OK(w, RechargeResponse{UserID: userID.String(), AlreadyApplied: true})
		return
	case errors.Is(err, ErrAmountTooLarge):
		response.BadRequest(w, err.Error())
		return
	case err != nil:
		wallet.WriteError(r.Context(), w, err)
		return
	}

	logger.FromContext(r.Context()).Info().
		Str("admin_id", adminID.String()).
		Str("user_id", userID.String()).
		Int64("amount", req.Amount).
		Msg("Admin recharged wallet")

	response.OK(w, RechargeResponse{UserID: userID.String(), Balance: balance})
}

// Wallet handles GET /admin/users/{id}/wallet
func (h *Handler) Wallet(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, ErrInvalidUserID.Error())
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	overview, err := h.service.Wallet(r.Context(), userID, limit)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "admin wallet overview", err)
		return
	}
	response.OK(w, overview)
}

// Routes returns admin router. Every route needs an admin token.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireAdmin())

	r.Post("/users/{id}/recharge", h.Recharge)
	r.Get("/users/{id}/wallet", h.Wallet)

	return r
}
