package models

// SessionCreated is returned by POST /v1/sessions.
type SessionCreated struct {
	Token     string       `json:"token"`
	ExpiresAt Timestamp    `json:"expiresAt"`
	State     SessionState `json:"state"`
}

// SessionState is the full renderable state of a weather session.
type SessionState struct {
	Status          SessionStatus   `json:"status"`
	Units           string          `json:"units"`
	TemperatureUnit string          `json:"temperatureUnit"`
	SpeedUnit       string          `json:"speedUnit"`
	City            string          `json:"city,omitempty"`
	TimeOfDay       string          `json:"timeOfDay,omitempty"`
	Current         *Conditions     `json:"current"`
	Hourly          []ForecastEntry `json:"hourly"`
	Daily           []ForecastEntry `json:"daily"`
	RecentSearches  []RecentSearch  `json:"recentSearches"`
}

// SessionStatus is the session phase plus the user-facing error message.
type SessionStatus struct {
	Phase   string `json:"phase"`
	Message string `json:"message,omitempty"`
}

// Conditions are the current conditions at the searched city.
type Conditions struct {
	City          string    `json:"city"`
	Country       string    `json:"country,omitempty"`
	ObservedAt    Timestamp `json:"observedAt"`
	Temperature   float64   `json:"temperature"`
	TempMin       float64   `json:"tempMin"`
	TempMax       float64   `json:"tempMax"`
	Humidity      float64   `json:"humidity"`
	Pressure      float64   `json:"pressure"`
	WindSpeed     float64   `json:"windSpeed"`
	WindDirection float64   `json:"windDirection"`
	CloudCover    float64   `json:"cloudCover"`
	Visibility    float64   `json:"visibility"`
	Precipitation *float64  `json:"precipitation,omitempty"`
	Sunrise       Timestamp `json:"sunrise"`
	Sunset        Timestamp `json:"sunset"`
	Condition     string    `json:"condition"`
	Description   string    `json:"description,omitempty"`
}

// ForecastEntry is one 3-hour forecast sample.
type ForecastEntry struct {
	Time        Timestamp `json:"time"`
	Temperature float64   `json:"temperature"`
	TempMin     float64   `json:"tempMin"`
	TempMax     float64   `json:"tempMax"`
	Condition   string    `json:"condition"`
	Description string    `json:"description,omitempty"`
	PrecipProb  float64   `json:"precipProb"`
}

// RecentSearch is one entry of the recent searches list.
type RecentSearch struct {
	City        string    `json:"city"`
	Country     string    `json:"country,omitempty"`
	Temperature int       `json:"temperature"`
	Units       string    `json:"units"`
	Condition   string    `json:"condition"`
	SearchedAt  Timestamp `json:"searchedAt"`
}

// SearchRequest is the body of POST /v1/session/search.
type SearchRequest struct {
	City string `json:"city"`
}

// LocationRequest is the body of POST /v1/session/location.
// The browser sends either a position or denied=true.
type LocationRequest struct {
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
	Denied bool     `json:"denied,omitempty"`
}
