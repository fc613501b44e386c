package weather_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdeck/weatherdeck/internal/weather"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in      string
		want    weather.Units
		wantErr bool
	}{
		{"metric", weather.UnitsMetric, false},
		{"imperial", weather.UnitsImperial, false},
		{"kelvin", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := weather.ParseUnits(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, weather.ErrInvalidUnits)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnits_Toggle(t *testing.T) {
	assert.Equal(t, weather.UnitsImperial, weather.UnitsMetric.Toggle())
	assert.Equal(t, weather.UnitsMetric, weather.UnitsImperial.Toggle())
	assert.Equal(t, weather.UnitsMetric, weather.UnitsMetric.Toggle().Toggle())
	assert.Equal(t, "°F", weather.UnitsImperial.TemperatureSymbol())
	assert.Equal(t, "m/s", weather.UnitsMetric.SpeedSymbol())
}

func TestCoordinates_Validate(t *testing.T) {
	assert.NoError(t, weather.Coordinates{Lat: 52.37, Lon: 4.89}.Validate())
	assert.NoError(t, weather.Coordinates{Lat: -90, Lon: 180}.Validate())
	assert.ErrorIs(t, weather.Coordinates{Lat: 91, Lon: 0}.Validate(), weather.ErrInvalidCoordinates)
	assert.ErrorIs(t, weather.Coordinates{Lat: 0, Lon: -181}.Validate(), weather.ErrInvalidCoordinates)
}

func TestSnapshot_TimeOfDayAt(t *testing.T) {
	sunrise := time.Date(2026, 6, 1, 5, 0, 0, 0, time.UTC)
	sunset := time.Date(2026, 6, 1, 21, 0, 0, 0, time.UTC)
	snap := &weather.Snapshot{Sunrise: sunrise, Sunset: sunset}

	tests := []struct {
		name string
		now  time.Time
		want weather.TimeOfDay
	}{
		{"before sunrise", sunrise.Add(-time.Minute), weather.Night},
		{"at sunrise", sunrise, weather.Day},
		{"midday", sunrise.Add(8 * time.Hour), weather.Day},
		{"at sunset", sunset, weather.Night},
		{"after sunset", sunset.Add(time.Hour), weather.Night},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, snap.TimeOfDayAt(tt.now))
		})
	}
}

func TestSnapshot_RoundedTemperature(t *testing.T) {
	assert.Equal(t, 19, (&weather.Snapshot{Temperature: 18.5}).RoundedTemperature())
	assert.Equal(t, 18, (&weather.Snapshot{Temperature: 18.49}).RoundedTemperature())
	assert.Equal(t, -3, (&weather.Snapshot{Temperature: -2.5}).RoundedTemperature())
}
