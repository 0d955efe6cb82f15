package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cap-ma/helperinfo/internal/auth"
	"github.com/cap-ma/helperinfo/internal/cache"
	"github.com/cap-ma/helperinfo/internal/config"
	"github.com/cap-ma/helperinfo/internal/db"
	"github.com/cap-ma/helperinfo/internal/guides"
	"github.com/cap-ma/helperinfo/internal/handlers"
	"github.com/cap-ma/helperinfo/internal/middleware"
	"github.com/cap-ma/helperinfo/internal/notifications"
	"github.com/cap-ma/helperinfo/internal/requests"
	"github.com/cap-ma/helperinfo/internal/reviews"
	"github.com/cap-ma/helperinfo/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "helperinfo",
		}
	}

	notifier := notifications.NewTelegramClient(cfg.TelegramBotToken, cfg.TelegramChatID)
	if notifier == nil {
		logger.Info("telegram notifications disabled")
	} else {
		logger.Info("telegram notifications enabled", slog.String("chat_id", cfg.TelegramChatID))
	}

	val := validation.New()
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	server := &handlers.Server{
		Cfg: cfg,
		Val: val,
		Log: logger,
	}

	guideRepo := guides.NewRepository(cols.Guides)
	guideService := guides.NewService(guideRepo, cfg.DefaultLang, cfg.Timezone)
	guideHandler := guides.NewHandler(guideService, val, logger, cacheStore, cacheTTL, cfg.PublicBaseURL)

	requestRepo := requests.NewRepository(cols.ServiceRequests)
	var requestNotifier requests.Notifier
	if notifier != nil {
		requestNotifier = notifier
	}
	requestService := requests.NewService(requestRepo, cfg.Timezone, requestNotifier)
	requestHandler := requests.NewHandler(requestService, val, logger)

	reviewRepo := reviews.NewRepository(cols.Reviews)
	reviewService := reviews.NewService(reviewRepo, cfg.Timezone)
	reviewHandler := reviews.NewHandler(reviewService, val, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	requestsLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	reviewsLimiter := middleware.NewRateLimiter(cfg.RateLimitReviews, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	registerRoutes := func(api chi.Router) {
		api.Get("/health", server.Health)

		api.Get("/guides", guideHandler.PublicList)
		api.Get("/guides/featured", guideHandler.Featured)
		api.Get("/guides/popular", guideHandler.Popular)
		api.Get("/guides/{slug}", guideHandler.PublicDetail)
		api.Post("/guides/{id}/like", guideHandler.Like)

		api.With(requestsLimiter.Middleware).Post("/service-requests", requestHandler.Create)

		api.Get("/reviews", reviewHandler.PublicList)
		api.Get("/reviews/featured", reviewHandler.Featured)
		api.With(reviewsLimiter.Middleware).Post("/reviews", reviewHandler.Create)
		api.Post("/reviews/{id}/helpful", reviewHandler.MarkHelpful)

		api.Route("/admin", func(admin chi.Router) {
			admin.Post("/login", server.AdminLogin)
			admin.Post("/refresh", server.AdminRefresh)
			admin.Post("/logout", server.AdminLogout)

			// chi requires middlewares before routes; session endpoints stay
			// public, everything else goes through the protected sub-router
			admin.Group(func(protected chi.Router) {
				protected.Use(middleware.AdminAuth(cfg.AdminAPIKey, jwtManager))

				protected.Get("/guides", guideHandler.AdminList)
				protected.Post("/guides", guideHandler.AdminCreate)
				protected.Patch("/guides/{id}", guideHandler.AdminUpdate)
				protected.Get("/guides/{id}/translations/{lang}", guideHandler.AdminGetTranslation)
				protected.Put("/guides/{id}/translations/{lang}", guideHandler.AdminPutTranslation)

				protected.Get("/service-requests", requestHandler.AdminList)
				protected.Get("/service-requests/{id}", requestHandler.AdminGetByID)
				protected.Patch("/service-requests/{id}/status", requestHandler.AdminUpdateStatus)

				protected.Get("/reviews", reviewHandler.AdminList)
				protected.Patch("/reviews/{id}", reviewHandler.AdminModerate)
			})
		})
	}

	r.Route("/api", registerRoutes)
	r.Route("/api/v1", registerRoutes)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
