// Package main provides the entrypoint for the weatherdeck API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdeck/weatherdeck/internal/api"
	"github.com/weatherdeck/weatherdeck/internal/api/middleware"
	"github.com/weatherdeck/weatherdeck/internal/config"
	"github.com/weatherdeck/weatherdeck/internal/provider/resilience"
	"github.com/weatherdeck/weatherdeck/internal/session"
	"github.com/weatherdeck/weatherdeck/internal/sessiontoken"
	"github.com/weatherdeck/weatherdeck/internal/telemetry"
	"github.com/weatherdeck/weatherdeck/internal/weather/openweathermap"
	"github.com/weatherdeck/weatherdeck/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "weatherdeck-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting weatherdeck API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = log.Level(cfg.App.LogLevel)
	if cfg.Session.SigningKeyGenerated {
		log.Warn().Msg("no session signing key configured - generated one for this process")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}
	sessionMetrics, err := telemetry.NewSessionMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session metrics")
	}

	// Weather provider behind the resilient HTTP client
	clientCfg := resilience.DefaultClientConfig(openweathermap.ProviderName)
	clientCfg.Timeout = cfg.Provider.Timeout
	clientCfg.RequestsPerSecond = cfg.Provider.RequestsPerSecond
	clientCfg.Burst = cfg.Provider.Burst
	breaker := resilience.DefaultCircuitBreakerConfig(openweathermap.ProviderName)
	breaker.OnStateChange = resilience.LogStateChanges(log)
	clientCfg.CircuitBreaker = &breaker
	httpClient := resilience.NewClient(clientCfg)

	registry := resilience.NewRegistry()
	registry.Register(httpClient)

	provider := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     cfg.Provider.APIKey,
		BaseURL:    cfg.Provider.BaseURL,
		HTTPClient: httpClient,
		Registry:   registry,
		Metrics:    providerMetrics,
		Logger:     log,
	})
	log.Info().
		Str("provider", provider.Name()).
		Str("country", cfg.Provider.Country).
		Msg("weather provider initialized")

	// Sessions
	store, err := session.NewStore(session.StoreConfig{
		Session: session.Config{
			Provider:    provider,
			DefaultCity: cfg.Session.DefaultCity,
			Units:       cfg.Session.DefaultUnits,
			Country:     cfg.Provider.Country,
			Logger:      log,
		},
		Logger:  log,
		Metrics: sessionMetrics,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create session store")
	}

	tokens := sessiontoken.NewService(sessiontoken.Config{
		SigningKey: cfg.Session.SigningKey,
		Issuer:     cfg.Session.Issuer,
		Audience:   cfg.Session.Audience,
		TTL:        cfg.Session.IdleTTL,
	})

	sweep := worker.NewSweepJob(worker.SweepJobConfig{
		Config: worker.SweepConfig{
			IdleTTL:  cfg.Session.IdleTTL,
			Interval: cfg.Session.SweepInterval,
		},
		Sweeper: store,
		Logger:  log,
	})
	scheduler, err := worker.NewScheduler(sweep, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create sweep scheduler")
	}
	scheduler.Start()

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:       Version,
		BuildTime:     BuildTime,
		Logger:        log,
		ServiceName:   serviceName,
		Metrics:       httpMetrics,
		Store:         store,
		Tokens:        tokens,
		Registry:      registry,
		RequireTLS:    cfg.App.IsProduction(),
		SearchOnStart: cfg.Session.SearchOnStart,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Error().Err(err).Msg("failed to stop sweep scheduler")
	}

	log.Info().
		Interface("sweep", sweep.MetricsSnapshot()).
		Msg("server stopped")
}
