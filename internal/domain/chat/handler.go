package chat

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

// Handler handles chat HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates chat handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListAgents handles GET /chat/agents
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	response.OK(w, ListAgents())
}

// SendMessage handles POST /chat/agents/{agentId}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req SendMessageRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	exchange, err := h.service.SendMessage(r.Context(), userID, chi.URLParam(r, "agentId"), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, SendMessageResponse{
		Message: exchange.UserMessage,
		Reply:   exchange.Reply,
		Charge:  exchange.Charge,
	})
}

// History handles GET /chat/agents/{agentId}/messages
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	msgs, err := h.service.History(r.Context(), userID, chi.URLParam(r, "agentId"), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*Message{}
	}

	response.OK(w, HistoryResponse{Items: msgs, Limit: limit, Offset: offset})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAgentNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLong):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrRateLimited):
		response.Error(w, http.StatusTooManyRequests, "RATE_LIMITED", err.Error())
	case errors.Is(err, ErrProviderFailed):
		response.BadGateway(w, err.Error())
	default:
		wallet.WriteError(r.Context(), w, err)
	}
}
