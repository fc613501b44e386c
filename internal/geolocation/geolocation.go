// Package geolocation models the platform's location capability.
//
// A browser reports its position (or a refusal) to the API, and the terminal
// front-end takes coordinates from the user; both arrive here as a Locator.
package geolocation

import (
	"context"
	"errors"

	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// ErrPermissionDenied is returned when the platform refuses or cannot provide a position.
var ErrPermissionDenied = errors.New("location permission denied")

// Locator resolves the device's current position.
type Locator interface {
	Locate(ctx context.Context) (weather.Coordinates, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context) (weather.Coordinates, error)

// Locate calls f(ctx).
func (f LocatorFunc) Locate(ctx context.Context) (weather.Coordinates, error) {
	return f(ctx)
}

// Fixed returns a Locator that always reports coords.
// Out-of-range coordinates are reported as a platform error.
func Fixed(coords weather.Coordinates) Locator {
	return LocatorFunc(func(context.Context) (weather.Coordinates, error) {
		if err := coords.Validate(); err != nil {
			return weather.Coordinates{}, errors.Join(ErrPermissionDenied, err)
		}
		return coords, nil
	})
}

// Denied returns a Locator that always refuses.
func Denied() Locator {
	return LocatorFunc(func(context.Context) (weather.Coordinates, error) {
		return weather.Coordinates{}, ErrPermissionDenied
	})
}

// Unavailable is the default Locator for sessions created without one.
var Unavailable = Denied()
