package geolocation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdeck/weatherdeck/internal/geolocation"
	"github.com/weatherdeck/weatherdeck/internal/weather"
)

func TestFixed(t *testing.T) {
	want := weather.Coordinates{Lat: 35.6762, Lon: 139.6503}

	got, err := geolocation.Fixed(want).Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFixed_InvalidCoordinates(t *testing.T) {
	_, err := geolocation.Fixed(weather.Coordinates{Lat: 200}).Locate(context.Background())
	assert.ErrorIs(t, err, geolocation.ErrPermissionDenied)
	assert.ErrorIs(t, err, weather.ErrInvalidCoordinates)
}

func TestDenied(t *testing.T) {
	_, err := geolocation.Denied().Locate(context.Background())
	assert.ErrorIs(t, err, geolocation.ErrPermissionDenied)

	_, err = geolocation.Unavailable.Locate(context.Background())
	assert.ErrorIs(t, err, geolocation.ErrPermissionDenied)
}
