// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/toolshare/marketplace-api/internal/cache"
	"github.com/toolshare/marketplace-api/internal/config"
	"github.com/toolshare/marketplace-api/internal/handler"
	"github.com/toolshare/marketplace-api/internal/middleware"
	"github.com/toolshare/marketplace-api/internal/model"
	natsclient "github.com/toolshare/marketplace-api/internal/nats"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/internal/service"
	"github.com/toolshare/marketplace-api/internal/storage"
	"github.com/toolshare/marketplace-api/pkg/logger"
	"github.com/toolshare/marketplace-api/pkg/tracing"
)

func main() {
	cfg := config.MustLoad()

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server", zap.String("environment", cfg.App.Environment))

	ctx := context.Background()
	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(ctx, cfg.App.Name, cfg.Tracing.Endpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// NATS and the marketplace stream.
	natsClient, err := natsclient.Connect(natsclient.Config{
		URL:      cfg.NATS.URL,
		CAFile:   cfg.NATS.CAFile,
		CertFile: cfg.NATS.CertFile,
		KeyFile:  cfg.NATS.KeyFile,
		Token:    cfg.NATS.Token,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to NATS", zap.Error(err))
	}
	defer natsClient.Close()

	streamManager := natsclient.NewStreamManager(natsClient)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Fatal("failed to ensure stream", zap.Error(err))
	}

	// SQLite.
	db, err := repository.OpenSQLite(cfg.DB.Path)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	accountRepo := repository.NewSQLiteAccountRepository(db)
	listingRepo := repository.NewSQLiteListingRepository(db)
	bookingRepo := repository.NewSQLiteBookingRepository(db)
	bidRepo := repository.NewSQLiteBidRepository(db)
	chatRepo := repository.NewSQLiteChatRepository(db)
	reviewRepo := repository.NewSQLiteReviewRepository(db)
	notificationRepo := repository.NewSQLiteNotificationRepository(db)

	// Cache.
	var listingCache cache.Cache
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisCache.Close()
		listingCache = redisCache
	} else {
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		listingCache = memCache
	}

	// Object storage is optional; uploads are disabled without credentials.
	var store *storage.Store
	if cfg.Storage.Configured() {
		store, err = storage.New(cfg.Storage)
		if err != nil {
			log.Fatal("failed to initialize object storage", zap.Error(err))
		}
	} else {
		log.Warn("object storage not configured, uploads disabled")
	}

	// Services.
	notificationSvc := service.NewNotificationService(notificationRepo, streamManager, log)
	accountSvc := service.NewAccountService(accountRepo, store, cfg.Auth, log)
	listingSvc := service.NewListingService(listingRepo, listingCache, cfg.Cache.TTL, store, log)
	bookingSvc := service.NewBookingService(bookingRepo, listingRepo, notificationSvc, log)
	bidSvc := service.NewBidService(bidRepo, listingRepo, notificationSvc, streamManager, log)
	chatSvc := service.NewChatService(chatRepo, accountRepo, notificationSvc, streamManager, log)
	reviewSvc := service.NewReviewService(reviewRepo, bookingRepo, log)

	expirer := service.NewBidExpirer(bidRepo, 0, log)
	expirer.Start()
	defer expirer.Stop()

	// Handlers.
	healthHandler := handler.NewHealthHandler(db, natsClient)
	authHandler := handler.NewAuthHandler(accountSvc, log)
	accountHandler := handler.NewAccountHandler(accountSvc, log)
	listingHandler := handler.NewListingHandler(listingSvc, reviewSvc, log)
	bookingHandler := handler.NewBookingHandler(bookingSvc, log)
	bidHandler := handler.NewBidHandler(bidSvc, log)
	conversationHandler := handler.NewConversationHandler(chatSvc, log)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, log)
	reviewHandler := handler.NewReviewHandler(reviewSvc, log)
	streamHandler := handler.NewStreamHandler(chatSvc, streamManager, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.App.RateLimitRequests, cfg.App.RateLimitWindow))

			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/password-reset", authHandler.RequestPasswordReset)
			r.Post("/auth/password-update", authHandler.ResetPassword)

			r.Get("/listings", listingHandler.Search)
			r.Get("/listings/{id}", listingHandler.Get)
			r.Get("/listings/{id}/reviews", listingHandler.Reviews)
		})

		// Authenticated endpoints.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Auth.JWTSecret))
			r.Use(middleware.RateLimit(cfg.App.RateLimitRequests, cfg.App.RateLimitWindow))

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/me", accountHandler.Me)
				r.Patch("/me", accountHandler.Update)
				r.Put("/me/avatar", accountHandler.UploadAvatar)
				r.Delete("/me", accountHandler.Deactivate)
				r.Get("/{id}", accountHandler.Get)
				r.With(middleware.RequireRole(model.RoleAdmin)).
					Delete("/{id}", accountHandler.DeactivateByID)
			})

			r.Route("/listings", func(r chi.Router) {
				r.Post("/", listingHandler.Create)
				r.Get("/mine", listingHandler.Mine)

				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", listingHandler.Update)
					r.Delete("/", listingHandler.Archive)
					r.Put("/photo", listingHandler.UploadPhoto)
					r.Put("/favorite", listingHandler.Favorite)
					r.Delete("/favorite", listingHandler.Unfavorite)

					r.Post("/quote", bookingHandler.Quote)

					r.Post("/bids", bidHandler.Place)
					r.Get("/bids", bidHandler.ListByListing)
					r.Get("/bids/stream", streamHandler.Bids)
				})
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", bookingHandler.Create)
				r.Get("/", bookingHandler.List)
				r.Get("/{id}", bookingHandler.Get)
				r.Patch("/{id}/status", bookingHandler.UpdateStatus)
			})

			r.Route("/bids", func(r chi.Router) {
				r.Get("/", bidHandler.Mine)
				r.Post("/{id}/accept", bidHandler.Accept)
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", conversationHandler.Start)
				r.Get("/", conversationHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/messages", conversationHandler.Messages)
					r.Post("/messages", conversationHandler.Send)
					r.Post("/read", conversationHandler.MarkRead)
					r.Get("/stream", streamHandler.Conversation)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Post("/read-all", notificationHandler.MarkAllRead)
				r.Post("/{id}/read", notificationHandler.MarkRead)
			})

			r.Post("/reviews", reviewHandler.Create)

			r.Get("/stream", streamHandler.Notifications)
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	if cfg.App.IsDevelopment() {
		return logger.NewDevelopment()
	}
	return logger.New(cfg.App.LogLevel)
}
