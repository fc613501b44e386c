// Package config loads service configuration from the environment, an
// optional .env file and an optional YAML file.
//
// Environment variables win over the YAML file; both win over defaults.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// Configuration keys.
const (
	KeyAppEnv              = "APP_ENV"
	KeyAppPort             = "APP_PORT"
	KeyLogLevel            = "LOG_LEVEL"
	KeyOWMAPIKey           = "OWM_API_KEY"
	KeyOWMBaseURL          = "OWM_BASE_URL"
	KeyOWMCountry          = "OWM_COUNTRY"
	KeyProviderRPS         = "PROVIDER_RPS"
	KeyProviderBurst       = "PROVIDER_BURST"
	KeyProviderTimeout     = "PROVIDER_TIMEOUT"
	KeyDefaultCity         = "DEFAULT_CITY"
	KeyDefaultUnits        = "DEFAULT_UNITS"
	KeySearchOnStart       = "SEARCH_ON_START"
	KeySessionSigningKey   = "SESSION_SIGNING_KEY"
	KeySessionIdleTTL      = "SESSION_IDLE_TTL"
	KeySessionSweep        = "SESSION_SWEEP_INTERVAL"
	KeyOTelEnabled         = "OTEL_ENABLED"
	KeyOTelEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	KeyConfigFile          = "WEATHERDECK_CONFIG"
	defaultSessionIssuer   = "weatherdeck"
	defaultSessionAudience = "weatherdeck-web"
)

// Configuration errors.
var (
	ErrMissingAPIKey = errors.New("OWM_API_KEY is required")
	ErrInvalidValue  = errors.New("invalid configuration value")
)

// Config is the full service configuration.
type Config struct {
	App       AppConfig
	Provider  ProviderConfig
	Session   SessionConfig
	Telemetry TelemetryConfig
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Env      string
	Port     string
	LogLevel zerolog.Level
}

// IsProduction reports whether the service runs in production.
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// ProviderConfig holds weather provider settings.
type ProviderConfig struct {
	// APIKey is the OpenWeatherMap key. Never logged.
	APIKey  string
	BaseURL string

	// Country qualifies every city lookup when set (e.g. "IN").
	Country string

	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// SessionConfig holds weather session settings.
type SessionConfig struct {
	DefaultCity   string
	DefaultUnits  weather.Units
	SearchOnStart bool

	SigningKey string

	// SigningKeyGenerated is true when no key was configured and a random one
	// was generated for this process.
	SigningKeyGenerated bool

	Issuer        string
	Audience      string
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

// Options controls where configuration is read from.
type Options struct {
	// EnvFiles are loaded with godotenv before reading the environment.
	// Missing files are ignored. Defaults to ".env".
	EnvFiles []string

	// ConfigFile is an optional YAML file. Defaults to $WEATHERDECK_CONFIG.
	ConfigFile string
}

// Load reads configuration using default options.
func Load() (*Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions reads configuration from the given sources.
func LoadWithOptions(opts Options) (*Config, error) {
	envFiles := opts.EnvFiles
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", file, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = os.Getenv(KeyConfigFile)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	units, err := weather.ParseUnits(v.GetString(KeyDefaultUnits))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidValue, KeyDefaultUnits, err)
	}

	level, err := zerolog.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidValue, KeyLogLevel, err)
	}

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString(KeyAppEnv),
			Port:     v.GetString(KeyAppPort),
			LogLevel: level,
		},
		Provider: ProviderConfig{
			APIKey:            v.GetString(KeyOWMAPIKey),
			BaseURL:           v.GetString(KeyOWMBaseURL),
			Country:           v.GetString(KeyOWMCountry),
			RequestsPerSecond: v.GetFloat64(KeyProviderRPS),
			Burst:             v.GetInt(KeyProviderBurst),
			Timeout:           v.GetDuration(KeyProviderTimeout),
		},
		Session: SessionConfig{
			DefaultCity:   v.GetString(KeyDefaultCity),
			DefaultUnits:  units,
			SearchOnStart: v.GetBool(KeySearchOnStart),
			SigningKey:    v.GetString(KeySessionSigningKey),
			Issuer:        defaultSessionIssuer,
			Audience:      defaultSessionAudience,
			IdleTTL:       v.GetDuration(KeySessionIdleTTL),
			SweepInterval: v.GetDuration(KeySessionSweep),
		},
		Telemetry: TelemetryConfig{
			Enabled:      v.GetBool(KeyOTelEnabled),
			OTLPEndpoint: v.GetString(KeyOTelEndpoint),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Session.SigningKey == "" {
		key, err := randomKey()
		if err != nil {
			return nil, err
		}
		cfg.Session.SigningKey = key
		cfg.Session.SigningKeyGenerated = true
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAppEnv, "development")
	v.SetDefault(KeyAppPort, "8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyOWMBaseURL, "https://api.openweathermap.org/data/2.5")
	v.SetDefault(KeyProviderRPS, 1.0)
	v.SetDefault(KeyProviderBurst, 5)
	v.SetDefault(KeyProviderTimeout, 10*time.Second)
	v.SetDefault(KeyDefaultCity, "New York")
	v.SetDefault(KeyDefaultUnits, string(weather.UnitsMetric))
	v.SetDefault(KeySearchOnStart, false)
	v.SetDefault(KeySessionIdleTTL, 30*time.Minute)
	v.SetDefault(KeySessionSweep, time.Minute)
	v.SetDefault(KeyOTelEnabled, false)
	v.SetDefault(KeyOTelEndpoint, "localhost:4317")
}

func (c *Config) validate() error {
	var errs []error
	if c.Provider.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.Provider.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, KeyProviderRPS))
	}
	if c.Provider.Burst < 1 {
		errs = append(errs, fmt.Errorf("%w: %s must be at least 1", ErrInvalidValue, KeyProviderBurst))
	}
	if c.Provider.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s must be positive", ErrInvalidValue, KeyProviderTimeout))
	}
	if c.Session.DefaultCity == "" {
		errs = append(errs, fmt.Errorf("%w: %s must not be empty", ErrInvalidValue, KeyDefaultCity))
	}
	if c.Session.IdleTTL <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s must be positive", ErrInvalidValue, KeySessionIdleTTL))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s must be positive", ErrInvalidValue, KeySessionSweep))
	}
	return errors.Join(errs...)
}

func randomKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session signing key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
