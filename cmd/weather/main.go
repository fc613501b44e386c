// Package main provides the terminal front-end for weatherdeck.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/weatherdeck/weatherdeck/internal/config"
	"github.com/weatherdeck/weatherdeck/internal/console"
	"github.com/weatherdeck/weatherdeck/internal/provider/resilience"
	"github.com/weatherdeck/weatherdeck/internal/session"
	"github.com/weatherdeck/weatherdeck/internal/weather/openweathermap"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	// Logs go to stderr so they never interleave with rendered weather.
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).
		With().
		Timestamp().
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	// Quiet by default; an explicit LOG_LEVEL overrides.
	if os.Getenv(config.KeyLogLevel) != "" {
		log = log.Level(cfg.App.LogLevel)
	}

	clientCfg := resilience.DefaultClientConfig(openweathermap.ProviderName)
	clientCfg.Timeout = cfg.Provider.Timeout
	clientCfg.RequestsPerSecond = cfg.Provider.RequestsPerSecond
	clientCfg.Burst = cfg.Provider.Burst

	provider := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     cfg.Provider.APIKey,
		BaseURL:    cfg.Provider.BaseURL,
		HTTPClient: resilience.NewClient(clientCfg),
		Logger:     log,
	})

	sess, err := session.New(session.Config{
		Provider:    provider,
		DefaultCity: cfg.Session.DefaultCity,
		Units:       cfg.Session.DefaultUnits,
		Country:     cfg.Provider.Country,
		Logger:      log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create session")
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("weatherdeck %s - type a city, or :help\n", Version)

	c := console.New(console.Config{
		Session: sess,
		Out:     os.Stdout,
		Logger:  log,
	})
	if cfg.Session.SearchOnStart {
		c.Execute(ctx, ":refresh")
	}
	if err := c.Run(ctx, os.Stdin); err != nil {
		log.Error().Err(err).Msg("console stopped")
		os.Exit(1) //nolint:gocritic // session cleanup is best-effort
	}
}
