package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/lumenai/companion-api/internal/config"
	"github.com/lumenai/companion-api/internal/domain/admin"
	"github.com/lumenai/companion-api/internal/domain/billing"
	"github.com/lumenai/companion-api/internal/domain/chat"
	"github.com/lumenai/companion-api/internal/domain/gift"
	"github.com/lumenai/companion-api/internal/domain/media"
	"github.com/lumenai/companion-api/internal/domain/outfit"
	"github.com/lumenai/companion-api/internal/domain/wallet"
	"github.com/lumenai/companion-api/internal/middleware"
	"github.com/lumenai/companion-api/internal/pkg/aiprovider"
	"github.com/lumenai/companion-api/internal/pkg/database"
	"github.com/lumenai/companion-api/internal/pkg/imaging"
	"github.com/lumenai/companion-api/internal/pkg/jwt"
	"github.com/lumenai/companion-api/internal/pkg/logger"
	pkgresponse "github.com/lumenai/companion-api/internal/pkg/response"
	"github.com/lumenai/companion-api/internal/pkg/storage"
	"github.com/lumenai/companion-api/migrations"
)

const (
	traceCleanupInterval = time.Hour
	chatMessagesPerMin   = 30
)

// handlers groups everything mounted under the API prefixes.
type handlers struct {
	wallet *wallet.Handler
	chat   *chat.Handler
	media  *media.Handler
	gift   *gift.Handler
	outfit *outfit.Handler
	admin  *admin.Handler
}

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting companion API")

	db, err := database.NewPostgres(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := migrations.Apply(migrateCtx, db); err != nil {
		cancelMigrate()
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}
	cancelMigrate()

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without it")
		rdb = nil
	}
	defer database.CloseRedis(rdb)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Wallet ----------
	traces := newTraceStore(cfg, db, rdb)

	var ledgerOpts []wallet.LedgerOption
	var subscriber wallet.Subscriber
	if rdb != nil {
		publisher := wallet.NewRedisPublisher(rdb)
		ledgerOpts = append(ledgerOpts, wallet.WithAfterAppend(wallet.PublishAfterAppend(publisher)))
		subscriber = publisher
	}

	txRepo := wallet.NewTransactionRepository(db)
	ledger := wallet.NewLedgerWriter(txRepo, cfg.LedgerBufferSize, ledgerOpts...)

	walletService := wallet.NewService(wallet.Deps{
		Balances: wallet.NewRepository(db),
		Ledger:   ledger,
		History:  txRepo,
		Traces:   traces,
	}, wallet.Options{InitialGrant: cfg.InitialGrant})

	charger := billing.NewCharger(walletService)

	// ---------- Providers ----------
	aiClient := aiprovider.NewClient(aiprovider.Config{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Timeout: time.Duration(cfg.AITimeoutSeconds) * time.Second,
	})

	mediaStore, localMedia, err := newMediaStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media storage")
	}

	// ---------- Services ----------
	chatService := chat.NewService(
		chat.NewRepository(db),
		aiClient,
		charger,
		chat.NewRateLimiter(rdb, chatMessagesPerMin, time.Minute),
	)
	mediaService := media.NewService(
		media.NewRepository(db),
		aiClient,
		imaging.NewProcessor(imaging.DefaultConfig()),
		mediaStore,
		charger,
	)
	giftService := gift.NewService(gift.NewRepository(db), walletService)
	outfitService := outfit.NewService(outfit.NewRepository(db), walletService)
	adminService := admin.NewService(walletService, admin.NewAuditRepository(db), cfg.AdminRechargeMax)

	// ---------- Handlers ----------
	h := handlers{
		wallet: wallet.NewHandler(walletService, subscriber, wallet.HandlerConfig{
			AdRewardAmount: cfg.AdRewardAmount,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		chat:   chat.NewHandler(chatService),
		media:  media.NewHandler(mediaService),
		gift:   gift.NewHandler(giftService),
		outfit: outfit.NewHandler(outfitService),
		admin:  admin.NewHandler(adminService),
	}

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := database.Check(r.Context(), db, rdb)
		if !status.Healthy() {
			pkgresponse.JSON(w, http.StatusServiceUnavailable, status)
			return
		}
		pkgresponse.OK(w, status)
	})
	r.Handle("/metrics", promhttp.Handler())
	if localMedia != nil {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(localMedia.Dir()))))
	}

	mountRoutes(r, middleware.Auth(jwtService), h)

	// ---------- Background jobs ----------
	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	go wallet.NewTraceCleanupJob(traces, cfg.TraceRetention()).Start(jobCtx, traceCleanupInterval)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.AITimeoutSeconds)*time.Second + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stopJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Drain ledger entries queued by requests that finished during shutdown.
	if err := ledger.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Ledger writer did not drain before shutdown deadline")
	}

	log.Info().Msg("Server exited properly")
}

// newTraceStore picks where reward trace ids are claimed. Redis is used only
// when it was requested and a client is connected.
func newTraceStore(cfg *config.Config, db *sqlx.DB, rdb *redis.Client) wallet.TraceStore {
	if cfg.TraceBackend == "redis" {
		if rdb != nil {
			log.Info().Msg("Reward traces stored in Redis")
			return wallet.NewRedisTraceStore(rdb, cfg.TraceRetention())
		}
		log.Warn().Msg("TRACE_BACKEND=redis but Redis is unavailable, using PostgreSQL")
	}
	return wallet.NewTraceRepository(db)
}

// newMediaStorage returns S3 unless MEDIA_LOCAL_DIR points at a directory the
// API serves under /media.
func newMediaStorage(cfg *config.Config) (storage.Storage, *storage.LocalStorage, error) {
	if cfg.MediaLocalDir != "" {
		if cfg.IsProduction() {
			log.Warn().Msg("MEDIA_LOCAL_DIR is set in production, generated media stays on this node")
		}
		local, err := storage.NewLocalStorage(cfg.MediaLocalDir, strings.TrimRight(cfg.PublicBaseURL, "/")+"/media")
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("dir", cfg.MediaLocalDir).Msg("Generated media stored on local disk")
		return local, local, nil
	}

	s3Store, err := storage.NewS3Storage(context.Background(), storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, nil, err
	}
	return s3Store, nil, nil
}

func mountRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler, h handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/wallet", h.wallet.Routes(authMiddleware))
		r.Mount("/chat", h.chat.Routes(authMiddleware))
		r.Mount("/media", h.media.Routes(authMiddleware))
		r.Mount("/gifts", h.gift.Routes(authMiddleware))
		r.Mount("/outfits", h.outfit.Routes(authMiddleware))
	})

	r.Mount("/api/admin", h.admin.Routes(authMiddleware))
}
