package session

import (
	"errors"
	"strings"
	"time"

	"github.com/weatherdeck/weatherdeck/internal/geolocation"
	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// Session errors.
var (
	// ErrSuperseded is returned by an operation whose result was discarded
	// because a newer operation started before it settled.
	ErrSuperseded = errors.New("operation superseded by a newer one")

	// ErrSessionNotFound is returned by the Store for unknown or evicted IDs.
	ErrSessionNotFound = errors.New("session not found")

	// Configuration errors returned by New and NewStore.
	ErrMissingProvider    = errors.New("session: provider is required")
	ErrMissingDefaultCity = errors.New("session: default city is required")
)

// User-visible status messages.
const (
	MessageCityNotFound    = "City not found. Please try again."
	MessageTransport       = "Unable to reach the weather service. Please try again."
	MessageLocationDenied = "Please enable location services"
	MaxRecentSearches     = 4
)

// Phase is the session's position in its Idle -> Loading -> Ready/Error cycle.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// Status is the session status. Message is set only in PhaseError.
type Status struct {
	Phase   Phase
	Message string
}

// IsError reports whether the status carries an error message.
func (s Status) IsError() bool {
	return s.Phase == PhaseError
}

// messageFor maps an operation error to the message shown to the user.
func messageFor(err error) string {
	switch {
	case errors.Is(err, geolocation.ErrPermissionDenied):
		return MessageLocationDenied
	case errors.Is(err, weather.ErrNotFound):
		return MessageCityNotFound
	default:
		return MessageTransport
	}
}

// Query is one city lookup in one unit system.
type Query struct {
	City  string
	Units weather.Units
}

// NewQuery trims the city name. ok is false when nothing is left.
func NewQuery(raw string, units weather.Units) (q Query, ok bool) {
	city := strings.TrimSpace(raw)
	if city == "" {
		return Query{}, false
	}
	return Query{City: city, Units: units}, true
}

// RecentSearch is one entry of the recent searches list.
type RecentSearch struct {
	City        string
	Country     string
	Temperature int
	Condition   string
	Units       weather.Units
	SearchedAt  time.Time
}

// RecentSearches is ordered most-recent-first and never longer than MaxRecentSearches.
type RecentSearches []RecentSearch

// With returns a new list with entry at the front. An existing entry for the
// same city (case-insensitive) is removed first; the oldest entry falls off
// when the list is full.
func (r RecentSearches) With(entry RecentSearch) RecentSearches {
	out := make(RecentSearches, 0, MaxRecentSearches)
	out = append(out, entry)
	for _, e := range r {
		if len(out) == MaxRecentSearches {
			break
		}
		if strings.EqualFold(e.City, entry.City) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// State is an immutable copy of everything a presentation layer renders.
type State struct {
	Status    Status
	Units     weather.Units
	City      string
	Current   *weather.Snapshot
	Hourly    []weather.ForecastPoint
	Daily     []weather.ForecastPoint
	TimeOfDay weather.TimeOfDay
	Recent    RecentSearches
}
