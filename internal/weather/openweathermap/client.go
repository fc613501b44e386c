// Package openweathermap implements weather.Provider against the OpenWeatherMap 2.5 REST API.
package openweathermap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdeck/weatherdeck/internal/provider/resilience"
	"github.com/weatherdeck/weatherdeck/internal/telemetry"
	"github.com/weatherdeck/weatherdeck/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Registry receives call outcomes for the ops status endpoint (optional).
	Registry *resilience.Registry

	// Metrics records call durations (optional).
	Metrics *telemetry.ProviderMetrics

	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	registry   *resilience.Registry
	metrics    *telemetry.ProviderMetrics
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		registry:   cfg.Registry,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// CurrentByCity fetches current conditions for a city, optionally qualified by a country code.
func (c *Client) CurrentByCity(ctx context.Context, city, country string, units weather.Units) (*weather.Snapshot, error) {
	params := url.Values{}
	params.Set("q", cityQuery(city, country))

	var resp currentWeatherResponse
	if err := c.get(ctx, "current_by_city", "/weather", params, units, &resp); err != nil {
		return nil, err
	}
	return toSnapshot(&resp, units), nil
}

// CurrentByCoordinates fetches current conditions for a coordinate pair.
// The snapshot's Name doubles as the reverse lookup of the coordinates.
func (c *Client) CurrentByCoordinates(ctx context.Context, coords weather.Coordinates, units weather.Units) (*weather.Snapshot, error) {
	if err := coords.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", weather.ErrNotFound, err)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(coords.Lon, 'f', 6, 64))

	var resp currentWeatherResponse
	if err := c.get(ctx, "current_by_coordinates", "/weather", params, units, &resp); err != nil {
		return nil, err
	}
	return toSnapshot(&resp, units), nil
}

// ForecastByCity fetches the 5-day/3-hour forecast for a city.
func (c *Client) ForecastByCity(ctx context.Context, city, country string, units weather.Units) (*weather.Forecast, error) {
	params := url.Values{}
	params.Set("q", cityQuery(city, country))

	var resp forecastResponse
	if err := c.get(ctx, "forecast_by_city", "/forecast", params, units, &resp); err != nil {
		return nil, err
	}
	return toForecast(&resp, units), nil
}

// get performs one API call and decodes the JSON body into out.
// Non-2xx statuses map to weather.ErrNotFound; everything else that fails maps
// to weather.ErrTransport.
func (c *Client) get(ctx context.Context, operation, path string, params url.Values, units weather.Units, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordRequest(ctx, ProviderName, operation, time.Since(start), err)
		if c.registry != nil && (err == nil || errors.Is(err, weather.ErrTransport)) {
			// A city that does not resolve says nothing about provider health.
			c.registry.Record(c.httpClient.Name(), err)
		}
	}()

	params.Set("appid", c.apiKey)
	params.Set("units", string(units))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: creating request: %w", weather.ErrTransport, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: executing request: %w", weather.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug().
			Str("operation", operation).
			Int("status", resp.StatusCode).
			Msg("provider returned non-success status")
		return fmt.Errorf("%w: unexpected status code: %d", weather.ErrNotFound, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", weather.ErrTransport, err)
	}

	return nil
}

func cityQuery(city, country string) string {
	if country == "" {
		return city
	}
	return city + "," + country
}

// toSnapshot converts an OpenWeatherMap current weather response to the domain model.
func toSnapshot(resp *currentWeatherResponse, units weather.Units) *weather.Snapshot {
	snap := &weather.Snapshot{
		Name:          resp.Name,
		Country:       resp.Sys.Country,
		ObservedAt:    time.Unix(resp.Dt, 0),
		Temperature:   resp.Main.Temp,
		TempMin:       resp.Main.TempMin,
		TempMax:       resp.Main.TempMax,
		Humidity:      resp.Main.Humidity,
		Pressure:      resp.Main.Pressure,
		WindSpeed:     resp.Wind.Speed,
		WindDirection: resp.Wind.Deg,
		CloudCover:    resp.Clouds.All,
		Visibility:    resp.Visibility,
		Sunrise:       time.Unix(resp.Sys.Sunrise, 0),
		Sunset:        time.Unix(resp.Sys.Sunset, 0),
		Units:         units,
	}

	if resp.Rain != nil && resp.Rain.OneHour != nil {
		mm := *resp.Rain.OneHour
		snap.Precipitation = &mm
	}

	if len(resp.Weather) > 0 {
		snap.Condition = resp.Weather[0].Main
		snap.Description = resp.Weather[0].Description
	}

	return snap
}

// toForecast converts an OpenWeatherMap forecast response to the domain model.
func toForecast(resp *forecastResponse, units weather.Units) *weather.Forecast {
	forecast := &weather.Forecast{
		City:    resp.City.Name,
		Country: resp.City.Country,
		Points:  make([]weather.ForecastPoint, 0, len(resp.List)),
		Units:   units,
	}

	for _, s := range resp.List {
		point := weather.ForecastPoint{
			Time:          time.Unix(s.Dt, 0),
			Temperature:   s.Main.Temp,
			TempMin:       s.Main.TempMin,
			TempMax:       s.Main.TempMax,
			Humidity:      s.Main.Humidity,
			WindSpeed:     s.Wind.Speed,
			WindDirection: s.Wind.Deg,
			PrecipProb:    s.Pop,
		}

		if len(s.Weather) > 0 {
			point.Condition = s.Weather[0].Main
			point.Description = s.Weather[0].Description
		}

		forecast.Points = append(forecast.Points, point)
	}

	return forecast
}

// OpenWeatherMap API response structures.

type conditionJSON struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type mainJSON struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

type windJSON struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
	Gust  float64 `json:"gust"`
}

type currentWeatherResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather    []conditionJSON `json:"weather"`
	Main       mainJSON        `json:"main"`
	Visibility float64         `json:"visibility"`
	Wind       windJSON        `json:"wind"`
	Clouds     struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Rain *struct {
		OneHour *float64 `json:"1h"`
	} `json:"rain"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Name string `json:"name"`
}

type forecastResponse struct {
	List []struct {
		Dt      int64           `json:"dt"`
		Main    mainJSON        `json:"main"`
		Weather []conditionJSON `json:"weather"`
		Wind    windJSON        `json:"wind"`
		Pop     float64         `json:"pop"` // Probability of precipitation
	} `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

var _ weather.Provider = (*Client)(nil)
