package openweathermap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdeck/weatherdeck/internal/provider/resilience"
	"github.com/weatherdeck/weatherdeck/internal/weather"
	"github.com/weatherdeck/weatherdeck/internal/weather/openweathermap"
)

func testHTTPClient() *resilience.Client {
	cb := resilience.DefaultCircuitBreakerConfig("test")
	cb.ReadyToTrip = func(gobreaker.Counts) bool { return false }
	return resilience.NewClient(resilience.ClientConfig{
		Name:            "test",
		Timeout:         2 * time.Second,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		CircuitBreaker:  &cb,
	})
}

func newClient(serverURL string, registry *resilience.Registry) *openweathermap.Client {
	httpClient := testHTTPClient()
	if registry != nil {
		registry.Register(httpClient)
	}
	return openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    serverURL,
		HTTPClient: httpClient,
		Registry:   registry,
	})
}

func currentPayload(name string, temp float64) map[string]interface{} {
	return map[string]interface{}{
		"coord": map[string]float64{"lat": 51.5085, "lon": -0.1257},
		"weather": []map[string]interface{}{
			{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"},
		},
		"main": map[string]float64{
			"temp":     temp,
			"temp_min": temp - 1.5,
			"temp_max": temp + 2,
			"pressure": 1012,
			"humidity": 81,
		},
		"visibility": 9000,
		"wind":       map[string]float64{"speed": 4.1, "deg": 240},
		"clouds":     map[string]float64{"all": 75},
		"rain":       map[string]float64{"1h": 0.42},
		"dt":         1760000000,
		"sys": map[string]interface{}{
			"country": "GB",
			"sunrise": 1759990000,
			"sunset":  1760030000,
		},
		"name": name,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_CurrentByCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "London,GB", r.URL.Query().Get("q"))
		assert.Equal(t, "****", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		writeJSON(w, currentPayload("London", 12.6))
	}))
	defer server.Close()

	client := newClient(server.URL, nil)

	snap, err := client.CurrentByCity(context.Background(), "London", "GB", weather.UnitsMetric)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "London", snap.Name)
	assert.Equal(t, "GB", snap.Country)
	assert.Equal(t, 12.6, snap.Temperature)
	assert.Equal(t, 11.1, snap.TempMin)
	assert.Equal(t, 14.6, snap.TempMax)
	assert.Equal(t, 81.0, snap.Humidity)
	assert.Equal(t, 1012.0, snap.Pressure)
	assert.Equal(t, 4.1, snap.WindSpeed)
	assert.Equal(t, 240.0, snap.WindDirection)
	assert.Equal(t, 75.0, snap.CloudCover)
	assert.Equal(t, 9000.0, snap.Visibility)
	require.NotNil(t, snap.Precipitation)
	assert.Equal(t, 0.42, *snap.Precipitation)
	assert.Equal(t, time.Unix(1759990000, 0), snap.Sunrise)
	assert.Equal(t, time.Unix(1760030000, 0), snap.Sunset)
	assert.Equal(t, time.Unix(1760000000, 0), snap.ObservedAt)
	assert.Equal(t, "Rain", snap.Condition)
	assert.Equal(t, "light rain", snap.Description)
	assert.Equal(t, weather.UnitsMetric, snap.Units)
}

func TestClient_CurrentByCity_NoCountryNoRain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "imperial", r.URL.Query().Get("units"))
		payload := currentPayload("Paris", 64.2)
		delete(payload, "rain")
		payload["weather"] = []map[string]interface{}{}
		writeJSON(w, payload)
	}))
	defer server.Close()

	client := newClient(server.URL, nil)

	snap, err := client.CurrentByCity(context.Background(), "Paris", "", weather.UnitsImperial)
	require.NoError(t, err)

	assert.Nil(t, snap.Precipitation)
	assert.Empty(t, snap.Condition)
	assert.Equal(t, weather.UnitsImperial, snap.Units)
}

func TestClient_CurrentByCity_NotFound(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	client := newClient(server.URL, registry)

	_, err := client.CurrentByCity(context.Background(), "Xyzzyxville123", "", weather.UnitsMetric)
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrNotFound)
	assert.NotErrorIs(t, err, weather.ErrTransport)
	assert.Equal(t, int32(1), attempts.Load(), "4xx must not be retried")

	health := registry.Health("test")
	require.NotNil(t, health)
	assert.Nil(t, health.LastFailureAt, "unknown cities do not count against provider health")
}

func TestClient_CurrentByCity_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name": "London", "main": `))
	}))
	defer server.Close()

	client := newClient(server.URL, nil)

	_, err := client.CurrentByCity(context.Background(), "London", "", weather.UnitsMetric)
	assert.ErrorIs(t, err, weather.ErrTransport)
}

func TestClient_CurrentByCity_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	registry := resilience.NewRegistry()
	client := newClient(url, registry)

	_, err := client.CurrentByCity(context.Background(), "London", "", weather.UnitsMetric)
	assert.ErrorIs(t, err, weather.ErrTransport)

	health := registry.Health("test")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastFailureAt)
	assert.NotEmpty(t, health.LastError)
}

func TestClient_CurrentByCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("q"))
		assert.Contains(t, r.URL.Query().Get("lat"), "51.508")
		assert.Contains(t, r.URL.Query().Get("lon"), "-0.125")
		writeJSON(w, currentPayload("London", 12.6))
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	client := newClient(server.URL, registry)

	snap, err := client.CurrentByCoordinates(context.Background(),
		weather.Coordinates{Lat: 51.5085, Lon: -0.1257}, weather.UnitsMetric)
	require.NoError(t, err)
	assert.Equal(t, "London", snap.Name)
	assert.NotNil(t, registry.Health("test").LastSuccessAt)
}

func TestClient_CurrentByCoordinates_Invalid(t *testing.T) {
	client := newClient("http://127.0.0.1:1", nil)

	_, err := client.CurrentByCoordinates(context.Background(),
		weather.Coordinates{Lat: 120, Lon: 0}, weather.UnitsMetric)
	assert.ErrorIs(t, err, weather.ErrInvalidCoordinates)
	assert.ErrorIs(t, err, weather.ErrNotFound)
}

func TestClient_ForecastByCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "London", r.URL.Query().Get("q"))
		assert.Equal(t, "imperial", r.URL.Query().Get("units"))

		list := make([]map[string]interface{}, 0, 40)
		for i := 0; i < 40; i++ {
			list = append(list, map[string]interface{}{
				"dt": 1760000000 + i*3*3600,
				"main": map[string]float64{
					"temp": 50 + float64(i), "temp_min": 49, "temp_max": 55, "humidity": 70,
				},
				"weather": []map[string]interface{}{{"main": "Clouds", "description": "broken clouds"}},
				"wind":    map[string]float64{"speed": 9.2, "deg": 180},
				"pop":     0.35,
			})
		}
		writeJSON(w, map[string]interface{}{
			"cod":  "200",
			"list": list,
			"city": map[string]interface{}{"name": "London", "country": "GB"},
		})
	}))
	defer server.Close()

	client := newClient(server.URL, nil)

	forecast, err := client.ForecastByCity(context.Background(), "London", "", weather.UnitsImperial)
	require.NoError(t, err)
	require.Len(t, forecast.Points, 40)

	assert.Equal(t, "London", forecast.City)
	assert.Equal(t, "GB", forecast.Country)
	assert.Equal(t, weather.UnitsImperial, forecast.Units)

	first := forecast.Points[0]
	assert.Equal(t, time.Unix(1760000000, 0), first.Time)
	assert.Equal(t, 50.0, first.Temperature)
	assert.Equal(t, 49.0, first.TempMin)
	assert.Equal(t, 55.0, first.TempMax)
	assert.Equal(t, "Clouds", first.Condition)
	assert.Equal(t, "broken clouds", first.Description)
	assert.Equal(t, 0.35, first.PrecipProb)
	assert.Equal(t, 9.2, first.WindSpeed)

	assert.Len(t, forecast.Hourly(), 4)
	assert.Len(t, forecast.Daily(), 5)
	assert.Equal(t, 58.0, forecast.Daily()[1].Temperature)
}

func TestClient_ForecastByCity_ServerErrorIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newClient(server.URL, nil)

	_, err := client.ForecastByCity(context.Background(), "London", "", weather.UnitsMetric)
	assert.ErrorIs(t, err, weather.ErrNotFound)
}

func TestClient_Name(t *testing.T) {
	client := openweathermap.NewClient(openweathermap.ClientConfig{APIKey: "****"})
	assert.Equal(t, openweathermap.ProviderName, client.Name())
}
