package console_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdeck/weatherdeck/internal/console"
	"github.com/weatherdeck/weatherdeck/internal/session"
	"github.com/weatherdeck/weatherdeck/internal/weather"
)

var (
	noon    = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sunrise = time.Date(2025, 6, 1, 5, 0, 0, 0, time.UTC)
	sunset  = time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC)
)

type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) CurrentByCity(_ context.Context, city, _ string, units weather.Units) (*weather.Snapshot, error) {
	if city == "Atlantis" {
		return nil, weather.ErrNotFound
	}
	temp := 20.4
	if units == weather.UnitsImperial {
		temp = 68.7
	}
	return &weather.Snapshot{
		Name:        city,
		Country:     "FR",
		Temperature: temp,
		TempMin:     temp - 2,
		TempMax:     temp + 2,
		Humidity:    55,
		Pressure:    1013,
		WindSpeed:   3.2,
		Sunrise:     sunrise,
		Sunset:      sunset,
		Condition:   "Clear",
		Description: "clear sky",
		Units:       units,
	}, nil
}

func (p stubProvider) CurrentByCoordinates(ctx context.Context, _ weather.Coordinates, units weather.Units) (*weather.Snapshot, error) {
	return p.CurrentByCity(ctx, "Lyon", "", units)
}

func (stubProvider) ForecastByCity(_ context.Context, city, _ string, units weather.Units) (*weather.Forecast, error) {
	f := &weather.Forecast{City: city, Units: units}
	for i := 0; i < 40; i++ {
		f.Points = append(f.Points, weather.ForecastPoint{
			Time:        noon.Add(time.Duration(3*i) * time.Hour),
			Temperature: 15,
			Condition:   "Clouds",
		})
	}
	return f, nil
}

func newConsole() (*console.Console, *session.Session, *bytes.Buffer) {
	sess, err := session.New(session.Config{
		Provider:    stubProvider{},
		DefaultCity: "New York",
		Logger:      zerolog.Nop(),
		Clock:       func() time.Time { return noon },
	})
	if err != nil {
		panic(err)
	}
	out := &bytes.Buffer{}
	c := console.New(console.Config{
		Session:  sess,
		Out:      out,
		Logger:   zerolog.Nop(),
		Location: time.UTC,
	})
	return c, sess, out
}

func TestConsole_Search(t *testing.T) {
	c, sess, out := newConsole()

	require.NoError(t, c.Run(context.Background(), strings.NewReader("Paris\n")))

	assert.Equal(t, "Paris", sess.City())
	text := out.String()
	assert.Contains(t, text, "Searching Paris...")
	assert.Contains(t, text, "Paris, FR  20°C  Clear (clear sky)  [day]")
	assert.Contains(t, text, "wind 3.2 m/s")
	assert.Contains(t, text, "next hours: 12:00 15°C Clouds | 15:00 15°C Clouds")
	assert.Contains(t, text, "next days:  Sun 15°C Clouds | Mon 15°C Clouds")
}

func TestConsole_CityNotFound(t *testing.T) {
	c, _, out := newConsole()

	require.NoError(t, c.Run(context.Background(), strings.NewReader("Atlantis\n")))

	assert.Contains(t, out.String(), "! "+session.MessageCityNotFound)
}

func TestConsole_ToggleUnits(t *testing.T) {
	c, sess, out := newConsole()
	ctx := context.Background()

	require.NoError(t, c.Run(ctx, strings.NewReader("Paris\n")))
	out.Reset()
	require.NoError(t, c.Run(ctx, strings.NewReader(":units\n")))

	assert.Equal(t, weather.UnitsImperial, sess.Units())
	assert.Contains(t, out.String(), "Paris, FR  69°F")
	assert.Contains(t, out.String(), "mph")
}

func TestConsole_Locate(t *testing.T) {
	c, sess, out := newConsole()
	ctx := context.Background()

	require.NoError(t, c.Run(ctx, strings.NewReader(":here 45.76 4.84\n")))
	assert.Equal(t, "Lyon", sess.City())

	out.Reset()
	require.NoError(t, c.Run(ctx, strings.NewReader(":here\n")))
	assert.Contains(t, out.String(), "! "+session.MessageLocationDenied)
}

func TestConsole_Recent(t *testing.T) {
	c, _, out := newConsole()
	ctx := context.Background()

	require.NoError(t, c.Run(ctx, strings.NewReader(":recent\n")))
	assert.Contains(t, out.String(), "No recent searches.")

	require.NoError(t, c.Run(ctx, strings.NewReader("Paris\n")))
	require.NoError(t, c.Run(ctx, strings.NewReader("Rome\n")))
	out.Reset()
	require.NoError(t, c.Run(ctx, strings.NewReader(":recent\n")))

	assert.Equal(t, "1. Rome, FR  20°C  Clear\n2. Paris, FR  20°C  Clear\n", out.String())
}

func TestConsole_QuitStopsReading(t *testing.T) {
	c, sess, out := newConsole()

	require.NoError(t, c.Run(context.Background(), strings.NewReader(":quit\nParis\n")))

	assert.Empty(t, sess.City())
	assert.NotContains(t, out.String(), "Paris")
}

func TestConsole_UnknownCommand(t *testing.T) {
	c, _, out := newConsole()

	require.NoError(t, c.Run(context.Background(), strings.NewReader(":launch\n")))

	assert.Contains(t, out.String(), "unknown command: :launch")
}

func TestRender_Idle(t *testing.T) {
	var buf bytes.Buffer
	console.Render(&buf, session.State{Status: session.Status{Phase: session.PhaseIdle}}, time.UTC)
	assert.Equal(t, "No city searched yet.\n", buf.String())
}
