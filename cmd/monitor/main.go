package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	cfg "github.com/solpulse/wallet-monitor/config"
	"github.com/solpulse/wallet-monitor/internal/clients"
	"github.com/solpulse/wallet-monitor/internal/handlers"
	"github.com/solpulse/wallet-monitor/internal/observability"
	"github.com/solpulse/wallet-monitor/internal/usecases"
	"github.com/solpulse/wallet-monitor/internal/workers"
)

// Server timeout constants.
const (
	readTimeoutSeconds     = 15
	writeTimeoutSeconds    = 15
	idleTimeoutSeconds     = 60
	shutdownTimeoutSeconds = 5
)

func main() {
	time.Local = time.UTC

	// .env is optional and only a convenience for local runs.
	_ = godotenv.Load()

	config, err := cfg.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := newLogger(config)
	logger.Info("Starting application with configuration",
		"name", config.App.Name,
		"environment", config.App.Environment,
		"debug", config.App.Debug,
		"server_port", config.HTTP.Port,
		"helius_url", config.Helius.APIURL,
		"poll_interval_seconds", config.Monitor.PollIntervalSeconds)

	if config.Helius.APIKey == "" {
		logger.Warn("HELIUS_API_KEY is not set, transaction fetches will fail")
	}

	// Pollers live as long as this context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	// Provider clients
	heliusClient := clients.NewHeliusClient(logger, config.Helius.APIKey, config.Helius.APIURL)
	priceClient := clients.NewCoinGeckoClient(logger, config.CoinGecko.PriceAPIURL)

	// Engine
	websocketManager := handlers.NewWebSocketManager(logger, metrics)
	enricher := usecases.NewEnricher(logger, priceClient, heliusClient)
	watchRegistry := usecases.NewWatchRegistry(logger)
	governor := usecases.NewRateGovernor(logger, config.Monitor.MaxHistoryRequests)
	poller := workers.NewPoller(logger, heliusClient, enricher, watchRegistry, websocketManager, metrics,
		time.Duration(config.Monitor.PollIntervalSeconds)*time.Second)
	tracker := usecases.NewTrackerService(ctx, logger, heliusClient, enricher, watchRegistry, governor,
		poller, metrics, config.Monitor.HistoryPageSize)

	// Handlers
	httpHandler := handlers.NewHTTPHandler(logger, tracker, registry)
	wsHandler := handlers.NewWebSocketHandler(logger, websocketManager)

	// Create router
	router := mux.NewRouter()

	// Register WebSocket routes before HTTP routes
	wsHandler.RegisterRoutes(router)
	httpHandler.RegisterRoutes(router)

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + config.HTTP.Port,
		Handler:      c.Handler(router),
		ReadTimeout:  readTimeoutSeconds * time.Second,
		WriteTimeout: writeTimeoutSeconds * time.Second,
		IdleTimeout:  idleTimeoutSeconds * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "address", server.Addr)
		if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			log.Fatal(err)
		}
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Stop all wallet pollers, then give current requests time to finish.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeoutSeconds*time.Second)
	defer shutdownCancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return
	}

	logger.Info("Server exited properly")
}

func newLogger(config *cfg.Config) *slog.Logger {
	if config.App.Debug {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.TimeOnly,
		}))
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
