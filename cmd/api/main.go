package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwebster45206/stage-engine/internal/config"
	"github.com/jwebster45206/stage-engine/internal/handlers"
	"github.com/jwebster45206/stage-engine/internal/logger"
	"github.com/jwebster45206/stage-engine/internal/middleware"
	"github.com/jwebster45206/stage-engine/internal/services"
	"github.com/jwebster45206/stage-engine/internal/services/events"
	"github.com/jwebster45206/stage-engine/internal/sessions"
	"github.com/jwebster45206/stage-engine/internal/storage"
	"github.com/jwebster45206/stage-engine/pkg/engine"
	"github.com/jwebster45206/stage-engine/pkg/event"
)

const (
	sweepInterval = 5 * time.Minute
	sessionIdle   = 30 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Stage Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	llmService, err := services.NewLLMService(cfg, log)
	if err != nil {
		log.Error("Failed to create LLM service", "error", err)
		os.Exit(1)
	}
	llmService = services.Wrap(llmService, services.NewTokenCounter(cfg.ModelName, log))

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log).WithTTL(cfg.SessionTTL)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	registry := event.NewBuiltinRegistry()
	n, err := storage.LoadEvents(context.Background(), store, registry)
	if err != nil {
		// broken files are skipped; the rest still load
		log.Warn("Some event files failed to load", "error", err)
	}
	log.Info("Events loaded", "from_files", n, "total", len(registry.List()))

	// Initialize the model on startup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := llmService.InitModel(ctx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	params := engine.DefaultGenerationParams()
	params.MaxContextLength = cfg.MaxContextTokens
	manager := sessions.NewManager(store, registry, log,
		engine.WithGenerator(llmService),
		engine.WithGenerationParams(params),
	)
	manager.SetLockTTL(cfg.SessionLockTTL)

	runCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go manager.Run(runCtx, sweepInterval, sessionIdle)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, llmService, log))
	mux.Handle("/metrics", promhttp.Handler())

	sessionHandler := handlers.NewSessionHandler(manager, log)
	sessionHandler.SetBroadcaster(events.NewBroadcaster(store.Client(), log))
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	eventHandler := handlers.NewEventHandler(manager, log)
	mux.Handle("/v1/events", eventHandler)
	mux.Handle("/v1/events/", eventHandler)

	pcHandler := handlers.NewPCHandler(log, store)
	mux.Handle("/v1/pcs", pcHandler)
	mux.Handle("/v1/pcs/", pcHandler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(mux),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: generation is bounded by LLM_TIMEOUT
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")
	stopSweeper()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
