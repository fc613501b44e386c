package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdeck/weatherdeck/internal/config"
	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// unsetForTest removes key from the environment and restores it when the test ends.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

// noEnvFile points the loader at a file that does not exist.
func noEnvFile(t *testing.T) config.Options {
	return config.Options{EnvFiles: []string{filepath.Join(t.TempDir(), "missing.env")}}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(config.KeyOWMAPIKey, "test-key")
	t.Setenv(config.KeyConfigFile, "")

	cfg, err := config.LoadWithOptions(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.False(t, cfg.App.IsProduction())
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, zerolog.InfoLevel, cfg.App.LogLevel)
	assert.Equal(t, "test-key", cfg.Provider.APIKey)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5", cfg.Provider.BaseURL)
	assert.Empty(t, cfg.Provider.Country)
	assert.Equal(t, 1.0, cfg.Provider.RequestsPerSecond)
	assert.Equal(t, 5, cfg.Provider.Burst)
	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, "New York", cfg.Session.DefaultCity)
	assert.Equal(t, weather.UnitsMetric, cfg.Session.DefaultUnits)
	assert.False(t, cfg.Session.SearchOnStart)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.True(t, cfg.Session.SigningKeyGenerated)
	assert.NotEmpty(t, cfg.Session.SigningKey)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(config.KeyOWMAPIKey, "test-key")
	t.Setenv(config.KeyConfigFile, "")
	t.Setenv(config.KeyOWMCountry, "IN")
	t.Setenv(config.KeyDefaultCity, "Mumbai")
	t.Setenv(config.KeyDefaultUnits, "imperial")
	t.Setenv(config.KeySearchOnStart, "true")
	t.Setenv(config.KeySessionSigningKey, "configured-key")
	t.Setenv(config.KeySessionIdleTTL, "45m")
	t.Setenv(config.KeyProviderRPS, "0.5")
	t.Setenv(config.KeyAppEnv, "production")

	cfg, err := config.LoadWithOptions(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "IN", cfg.Provider.Country)
	assert.Equal(t, "Mumbai", cfg.Session.DefaultCity)
	assert.Equal(t, weather.UnitsImperial, cfg.Session.DefaultUnits)
	assert.True(t, cfg.Session.SearchOnStart)
	assert.Equal(t, "configured-key", cfg.Session.SigningKey)
	assert.False(t, cfg.Session.SigningKeyGenerated)
	assert.Equal(t, 45*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 0.5, cfg.Provider.RequestsPerSecond)
	assert.True(t, cfg.App.IsProduction())
}

func TestLoad_MissingAPIKey(t *testing.T) {
	unsetForTest(t, config.KeyOWMAPIKey)
	t.Setenv(config.KeyConfigFile, "")

	_, err := config.LoadWithOptions(noEnvFile(t))
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
}

func TestLoad_InvalidUnits(t *testing.T) {
	t.Setenv(config.KeyOWMAPIKey, "test-key")
	t.Setenv(config.KeyConfigFile, "")
	t.Setenv(config.KeyDefaultUnits, "kelvin")

	_, err := config.LoadWithOptions(noEnvFile(t))
	assert.ErrorIs(t, err, config.ErrInvalidValue)
	assert.ErrorIs(t, err, weather.ErrInvalidUnits)
}

func TestLoad_InvalidDurations(t *testing.T) {
	t.Setenv(config.KeyOWMAPIKey, "test-key")
	t.Setenv(config.KeyConfigFile, "")
	t.Setenv(config.KeySessionIdleTTL, "0s")

	_, err := config.LoadWithOptions(noEnvFile(t))
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func TestLoad_YAMLFile(t *testing.T) {
	unsetForTest(t, config.KeyOWMAPIKey)
	unsetForTest(t, config.KeyDefaultCity)
	t.Setenv(config.KeyOWMCountry, "GB")

	path := filepath.Join(t.TempDir(), "weatherdeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"owm_api_key: yaml-key\ndefault_city: Leeds\nowm_country: FR\n"), 0o600))

	opts := noEnvFile(t)
	opts.ConfigFile = path
	cfg, err := config.LoadWithOptions(opts)
	require.NoError(t, err)

	assert.Equal(t, "yaml-key", cfg.Provider.APIKey)
	assert.Equal(t, "Leeds", cfg.Session.DefaultCity)
	assert.Equal(t, "GB", cfg.Provider.Country, "environment wins over the file")
}

func TestLoad_YAMLFileMissing(t *testing.T) {
	t.Setenv(config.KeyOWMAPIKey, "test-key")

	opts := noEnvFile(t)
	opts.ConfigFile = filepath.Join(t.TempDir(), "nope.yaml")
	_, err := config.LoadWithOptions(opts)
	assert.Error(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	unsetForTest(t, config.KeyOWMAPIKey)
	unsetForTest(t, config.KeyDefaultCity)
	t.Setenv(config.KeyConfigFile, "")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"OWM_API_KEY=dotenv-key\nDEFAULT_CITY=Pune\n"), 0o600))

	cfg, err := config.LoadWithOptions(config.Options{EnvFiles: []string{path}})
	require.NoError(t, err)

	assert.Equal(t, "dotenv-key", cfg.Provider.APIKey)
	assert.Equal(t, "Pune", cfg.Session.DefaultCity)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv(config.KeyOWMAPIKey, "test-key")
	t.Setenv(config.KeyConfigFile, "")
	t.Setenv(config.KeyLogLevel, "chatty")

	_, err := config.LoadWithOptions(noEnvFile(t))
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}
