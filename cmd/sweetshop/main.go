package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	authclient "github.com/sweetshop/sweetshop-client/internal/auth/client"
	"github.com/sweetshop/sweetshop-client/internal/auth/jwt"
	"github.com/sweetshop/sweetshop-client/internal/backend"
	"github.com/sweetshop/sweetshop-client/internal/dashboard"
	"github.com/sweetshop/sweetshop-client/internal/dashboard/events"
	"github.com/sweetshop/sweetshop-client/internal/dashboard/handler"
	invclient "github.com/sweetshop/sweetshop-client/internal/inventory/client"
	"github.com/sweetshop/sweetshop-client/internal/session"
	"github.com/sweetshop/sweetshop-client/internal/session/repository"
	"github.com/sweetshop/sweetshop-client/pkg/config"
	"github.com/sweetshop/sweetshop-client/pkg/database"
	"github.com/sweetshop/sweetshop-client/pkg/httputil"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
	"github.com/sweetshop/sweetshop-client/pkg/messaging"
)

const serviceName = "sweetshop"

func main() {
	// Load configuration with validation (fails fast on a bad backend URL or session driver)
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment).SetLevel(cfg.Log.Level)
	log.Info().Str("backend", cfg.Backend.BaseURL).Msg("starting SweetShop client")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Token store
	var (
		tokens session.TokenRepository
		db     *database.DB
	)
	if cfg.Session.Driver == config.DriverMemory {
		tokens = repository.NewMemoryTokenRepository()
	} else {
		db, err = database.New(&cfg.Session, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open session store")
		}
		defer db.Close()

		repo := repository.NewTokenRepository(db, repository.DefaultKey)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare session store")
		}
		tokens = repo
	}

	// Backend gateways
	api := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, log)
	authGateway := authclient.NewAuthClient(api, log)
	inventoryGateway := invclient.NewInventoryClient(api, log)

	// Session
	store := session.NewStore(authGateway, tokens, log)
	if err := store.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("could not restore previous session")
	}

	// Optional event publishing
	var (
		opts        []dashboard.Option
		rmq         *messaging.RabbitMQ
		sweetEvents *events.SweetEventPublisher
	)
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeSweetShopEvents, serviceName, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		actor := func() string { return jwt.Subject(store.CurrentToken()) }
		sweetEvents = events.NewSweetEventPublisher(publisher, actor, log)
		opts = append(opts, dashboard.WithEventSink(sweetEvents))
	}

	// Coordinator
	navigator := &dashboard.PendingNavigator{}
	coordinator := dashboard.New(inventoryGateway, store, navigator, log, opts...)
	if err := coordinator.Init(ctx); err != nil {
		log.Warn().Err(err).Msg("initial load failed")
	}

	dashboardHandler := handler.NewDashboardHandler(coordinator, store, navigator, log)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", httputil.RequestIDHeader},
		ExposedHeaders:   []string{httputil.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":        "healthy",
			"service":       serviceName,
			"authenticated": store.IsAuthenticated(),
		}
		if db != nil {
			health["database"] = db.Health(r.Context())
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes
	r.Route("/api/v1", dashboardHandler.Routes)

	// Create server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("dashboard API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	sweetEvents.Wait()

	log.Info().Msg("server stopped")
}
