package wallet

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/lumenai/companion-api/internal/middleware"
	"github.com/lumenai/companion-api/internal/pkg/errorhandler"
	"github.com/lumenai/companion-api/internal/pkg/logger"
	"github.com/lumenai/companion-api/internal/pkg/response"
	"github.com/lumenai/companion-api/internal/pkg/validator"
)

// WebSocket constants
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Subscriber opens a user's balance event stream.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) *redis.PubSub
}

type HandlerConfig struct {
	AdRewardAmount int64
	AllowedOrigins []string
}

type Handler struct {
	svc        *Service
	subscriber Subscriber
	adReward   int64
	upgrader   websocket.Upgrader
}

// NewHandler creates the wallet handler. subscriber may be nil, in which case
// the stream endpoint answers 503.
func NewHandler(svc *Service, subscriber Subscriber, cfg HandlerConfig) *Handler {
	if cfg.AdRewardAmount <= 0 {
		cfg.AdRewardAmount = 50
	}
	allowedOrigins := cfg.AllowedOrigins
	return &Handler{
		svc:        svc,
		subscriber: subscriber,
		adReward:   cfg.AdRewardAmount,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(allowedOrigins) == 0 || origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				logger.FromContext(r.Context()).Warn().Str("origin", origin).Msg("WebSocket origin rejected")
				return false
			},
		},
	}
}

// Balance handles GET /wallet/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	balance, err := h.svc.GetBalance(r.Context(), userID.String())
	if err != nil {
		WriteError(r.Context(), w, err)
		return
	}

	response.OK(w, BalanceResponse{Balance: balance})
}

// Transactions handles GET /wallet/transactions?limit=&offset=
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
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

	txs, err := h.svc.ListTransactions(r.Context(), userID.String(), limit, offset)
	if err != nil {
		WriteError(r.Context(), w, err)
		return
	}

	items := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		items = append(items, TransactionResponseFromEntity(tx))
	}
	response.OK(w, TransactionListResponse{Items: items, Limit: limit, Offset: offset})
}

// AdReward handles POST /wallet/ad-reward. The ad network's impression id is
// the trace id, so a replayed callback credits nothing.
func (h *Handler) AdReward(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req AdRewardRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	balance, err := h.svc.Reward(r.Context(), userID.String(), h.adReward, ItemAdReward, req.TraceID, req.TraceID)
	if errors.Is(err, ErrDuplicateReward) {
		current, err := h.svc.GetBalance(r.Context(), userID.String())
		if err != nil {
			WriteError(r.Context(), w, err)
			return
		}
		response.OK(w, AdRewardResponse{Balance: current, AlreadyClaimed: true})
		return
	}
	if err != nil {
		WriteError(r.Context(), w, err)
		return
	}

	response.OK(w, AdRewardResponse{Balance: balance, Credited: h.adReward})
}

// Stream handles GET /wallet/stream and pushes balance events over a websocket.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}
	if h.subscriber == nil {
		response.ServiceUnavailable(w, "Live balance updates are disabled")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	sub := h.subscriber.Subscribe(ctx, userID.String())

	go h.streamReader(conn, cancel)
	go h.streamWriter(ctx, conn, sub)
}

// streamReader only services control frames; clients send nothing else.
func (h *Handler) streamReader(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) streamWriter(ctx context.Context, conn *websocket.Conn, sub *redis.PubSub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sub.Close()
		_ = conn.Close()
	}()

	events := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// WriteError maps wallet errors onto the response envelope. Other domains
// use it for errors coming out of the wallet service.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	var insufficient *InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		response.PaymentRequired(w, insufficient.Balance, insufficient.Required)
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrMissingItemType):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrDuplicateReward):
		response.Error(w, http.StatusConflict, "DUPLICATE_REWARD", "Reward already claimed")
	default:
		errorhandler.Internal(ctx, w, "wallet", err)
	}
}
