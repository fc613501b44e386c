// Package weather holds the domain model shared by weather providers and sessions.
package weather

import (
	"context"
	"errors"
	"time"
)

// Weather errors.
var (
	// ErrNotFound is returned when the provider cannot resolve a location
	// (any non-2xx response on a lookup).
	ErrNotFound = errors.New("location not found")

	// ErrTransport is returned for network failures, timeouts and malformed responses.
	ErrTransport = errors.New("weather provider transport failure")

	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidUnits       = errors.New("invalid unit system")
)

// Units is the unit system requested from the provider.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits parses a unit system name.
func ParseUnits(s string) (Units, error) {
	switch Units(s) {
	case UnitsMetric:
		return UnitsMetric, nil
	case UnitsImperial:
		return UnitsImperial, nil
	default:
		return "", ErrInvalidUnits
	}
}

// Toggle returns the other unit system.
func (u Units) Toggle() Units {
	if u == UnitsImperial {
		return UnitsMetric
	}
	return UnitsImperial
}

// TemperatureSymbol returns the display suffix for temperatures.
func (u Units) TemperatureSymbol() string {
	if u == UnitsImperial {
		return "°F"
	}
	return "°C"
}

// SpeedSymbol returns the display suffix for wind speed.
func (u Units) SpeedSymbol() string {
	if u == UnitsImperial {
		return "mph"
	}
	return "m/s"
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Validate checks that the coordinates are on the globe.
func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// Place is a resolved location name.
type Place struct {
	Name    string
	Country string
	Coordinates
}

// Snapshot is the current conditions for one location at one instant.
// It is never mutated after the provider returns it.
type Snapshot struct {
	Name    string
	Country string

	ObservedAt time.Time

	// Temperatures in the snapshot's Units.
	Temperature float64
	TempMin     float64
	TempMax     float64

	// Humidity percentage (0-100)
	Humidity float64

	// Pressure in hPa
	Pressure float64

	WindSpeed     float64
	WindDirection float64 // degrees

	// Cloud cover percentage (0-100)
	CloudCover float64

	// Visibility in meters
	Visibility float64

	// Precipitation in mm over the last hour, nil when the provider omits it.
	Precipitation *float64

	Sunrise time.Time
	Sunset  time.Time

	// Condition is the provider's primary label, e.g. "Clear" or "Rain".
	Condition   string
	Description string

	Units Units
}

// ForecastPoint is one forecast sample.
type ForecastPoint struct {
	Time          time.Time
	Temperature   float64
	TempMin       float64
	TempMax       float64
	Humidity      float64
	WindSpeed     float64
	WindDirection float64
	Condition     string
	Description   string
	PrecipProb    float64 // Probability of precipitation (0-1)
}

// Forecast is the provider's ordered 3-hour forecast series.
type Forecast struct {
	City    string
	Country string
	Points  []ForecastPoint
	Units   Units
}

// Provider defines the interface for weather data providers.
type Provider interface {
	// CurrentByCity fetches current conditions for a city name. Country may be empty.
	CurrentByCity(ctx context.Context, city, country string, units Units) (*Snapshot, error)

	// CurrentByCoordinates fetches current conditions for a coordinate pair.
	CurrentByCoordinates(ctx context.Context, coords Coordinates, units Units) (*Snapshot, error)

	// ForecastByCity fetches the 5-day/3-hour forecast for a city name.
	ForecastByCity(ctx context.Context, city, country string, units Units) (*Forecast, error)

	// Name returns the provider name for logging.
	Name() string
}
