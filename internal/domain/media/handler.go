package media

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/lumenai/companion-api/internal/domain/wallet"
	"github.com/lumenai/companion-api/internal/middleware"
	"github.com/lumenai/companion-api/internal/pkg/errorhandler"
	"github.com/lumenai/companion-api/internal/pkg/response"
	"github.com/lumenai/companion-api/internal/pkg/validator"
)

// Handler handles media HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates media handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GenerateImage handles POST /media/images
func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	generate(w, r, &req, func(ctx context.Context, userID uuid.UUID) (*Result, error) {
		return h.service.GenerateImage(ctx, userID, &req)
	})
}

// GenerateVoice handles POST /media/voices
func (h *Handler) GenerateVoice(w http.ResponseWriter, r *http.Request) {
	var req VoiceRequest
	generate(w, r, &req, func(ctx context.Context, userID uuid.UUID) (*Result, error) {
		return h.service.GenerateVoice(ctx, userID, &req)
	})
}

// GenerateVideo handles POST /media/videos
func (h *Handler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	var req VideoRequest
	generate(w, r, &req, func(ctx context.Context, userID uuid.UUID) (*Result, error) {
		return h.service.GenerateVideo(ctx, userID, &req)
	})
}

// List handles GET /media?kind=&limit=&offset=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	kind := Kind(r.URL.Query().Get("kind"))
	switch kind {
	case "", KindImage, KindVoice, KindVideo:
	default:
		response.BadRequest(w, "kind must be image, voice or video")
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

	assets, err := h.service.List(r.Context(), userID, kind, limit, offset)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "list media", err)
		return
	}
	if assets == nil {
		assets = []*Asset{}
	}
	response.OK(w, AssetListResponse{Items: assets, Limit: limit, Offset: offset})
}

func generate(w http.ResponseWriter, r *http.Request, req interface{}, run func(ctx context.Context, userID uuid.UUID) (*Result, error)) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := response.DecodeJSON(r.Body, req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	result, err := run(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrGenerationFailed):
			response.BadGateway(w, err.Error())
		case errors.Is(err, ErrUploadFailed):
			response.ServiceUnavailable(w, err.Error())
		default:
			wallet.WriteError(r.Context(), w, err)
		}
		return
	}

	response.Created(w, AssetResponse{Asset: result.Asset, Charge: result.Charge})
}
