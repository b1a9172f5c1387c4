package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/roster/internal/background"
	"github.com/BradenHooton/roster/internal/config"
	"github.com/BradenHooton/roster/internal/handlers"
	middlewareCustom "github.com/BradenHooton/roster/internal/middleware"
	"github.com/BradenHooton/roster/internal/routes"
	"github.com/BradenHooton/roster/internal/services"
	"github.com/BradenHooton/roster/internal/session"
	"github.com/BradenHooton/roster/internal/source"
	"github.com/BradenHooton/roster/internal/store"
	pkglogger "github.com/BradenHooton/roster/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := pkglogger.New(os.Stdout, cfg.Server.LogLevel, cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.Int("seed_count", cfg.Roster.SeedCount),
		slog.Int("page_size", cfg.Roster.PageSize),
	)

	// Every session gets its own synthetic roster drawn from one generator
	gen := source.NewGenerator()
	newStore := func() *store.Store {
		src := source.NewMockSource(gen, cfg.Roster.SeedCount, cfg.Roster.LoadLatency)
		return store.New(src,
			store.WithPageSize(cfg.Roster.PageSize),
			store.WithLogger(logger),
		)
	}

	// Initialize session manager
	cookies := session.NewCookieStore(cfg.Session.Secret, cfg.Server.Env == "production", cfg.Session.IdleTimeout)
	sessions := session.NewManager(cookies, cfg.Session.CookieName, newStore, logger)

	sweeper := background.NewSessionSweeper(sessions, logger, cfg.Session.SweepInterval, cfg.Session.IdleTimeout)

	// Initialize services
	auditLogger := pkglogger.NewAuditLogger(logger)
	userService := services.NewUserService(services.SessionRoster, auditLogger, logger)
	analyticsService := services.NewAnalyticsService(services.SessionRoster, logger)
	activityService := services.NewActivityService(services.SessionRoster, gen, cfg.Roster.ActivityCount, logger)

	// Initialize handlers
	h := routes.Handlers{
		Users:      handlers.NewUserHandler(userService, logger),
		Analytics:  handlers.NewAnalyticsHandler(analyticsService, logger),
		Activities: handlers.NewActivityHandler(activityService, logger),
		Events:     handlers.NewEventsHandler(userService, logger),
	}

	// Setup router. No request timeout middleware: the event stream is long-lived.
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)

	// Register routes
	routes.RegisterRoutes(router, h, routes.Config{
		Session:        sessions.Middleware,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.RateLimit.MutationsPerMinute},
		Logger:         logger,
	})
	router.Get("/health", handlers.Health(sessions))

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start session sweeper
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go sweeper.Start(sweepCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweepCancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
