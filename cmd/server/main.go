// FraudLabs - Fraud-Awareness Simulation Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arthshield/fraudlabs/internal/api"
	"github.com/arthshield/fraudlabs/internal/audio"
	"github.com/arthshield/fraudlabs/internal/config"
	"github.com/arthshield/fraudlabs/internal/content"
	"github.com/arthshield/fraudlabs/internal/engine"
	"github.com/arthshield/fraudlabs/internal/identity"
	"github.com/arthshield/fraudlabs/internal/middleware"
	"github.com/arthshield/fraudlabs/internal/store"
	"github.com/arthshield/fraudlabs/internal/ws"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	catalog, err := content.Load(cfg.DefaultLanguage)
	if err != nil {
		slog.Error("Failed to load content catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Content catalog loaded", "languages", catalog.Languages(), "default", cfg.DefaultLanguage)

	// Initialize the event stream hub and the simulation registry.
	hub := ws.NewHub()

	engineCfg := engine.Config{
		DefaultLanguage:   cfg.DefaultLanguage,
		UrgencySeconds:    cfg.Sim.UrgencySeconds,
		WithdrawalSeconds: cfg.Sim.WithdrawalSeconds,
		CountdownInterval: time.Second,
		GrowthInterval:    cfg.Sim.GrowthInterval,
		GrowthMin:         cfg.Sim.GrowthMin,
		GrowthMax:         cfg.Sim.GrowthMax,
	}
	registry := engine.NewRegistry(func(userID string) *engine.Machine {
		dispatcher := audio.NewDispatcher(hub.PlayerFor(userID), cfg.DefaultLanguage)
		return engine.NewMachine(userID, engineCfg, hub, dispatcher)
	})
	defer registry.DisposeAll()

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, registry, catalog)
	simHandler := api.NewSimulationHandler(baseHandler)
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := ws.NewHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	// Routes.
	healthHandler.RegisterHealth(r)
	simHandler.RegisterRoutes(r)

	// WebSocket event stream.
	r.Get("/ws/simulation", wsHandler.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket event streams stay open indefinitely.
		IdleTimeout:  120 * time.Second,
	}

	// Start TTL worker for abandoned sessions.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine.StartTTLWorker(ctx, registry, repo, cfg.SessionTTL, hub.CloseUser)
	slog.Info("TTL worker started", "session_ttl", cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
