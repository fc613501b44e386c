// Package session implements the weather search-and-refresh session: the
// state behind one user's view of current conditions, the short forecast and
// the recent searches list.
//
// Every operation takes a ticket when it starts and cancels the previous
// in-flight operation. Only the result of the newest ticket is applied; older
// results are dropped without touching state, so the displayed conditions
// always match the last request the user made.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/weatherdeck/weatherdeck/internal/geolocation"
	"github.com/weatherdeck/weatherdeck/internal/telemetry"
	"github.com/weatherdeck/weatherdeck/internal/weather"
)

const tracerName = "github.com/weatherdeck/weatherdeck/internal/session"

// Operation names used in logs, spans and metrics.
const (
	OpSearch   = "search_city"
	OpLocate   = "use_current_location"
	OpToggle   = "toggle_unit"
	OpRefresh  = "refresh"
	outcomeOK  = "ready"
	outcomeErr = "error"
)

// Config holds the collaborators and defaults of a Session.
type Config struct {
	// Provider fetches weather data (required).
	Provider weather.Provider

	// Locator resolves the device position for UseCurrentLocation.
	// Defaults to geolocation.Unavailable.
	Locator geolocation.Locator

	// DefaultCity is fetched by ToggleUnit and Refresh before any successful
	// search (required).
	DefaultCity string

	// Units is the initial unit system. Defaults to metric.
	Units weather.Units

	// Country optionally qualifies every city lookup (ISO 3166 code).
	Country string

	Logger zerolog.Logger

	// Clock returns the current time for time-of-day derivation. Defaults to time.Now.
	Clock func() time.Time

	Metrics *telemetry.SessionMetrics
}

// Session is one user's weather session. It is safe for concurrent use.
type Session struct {
	provider    weather.Provider
	locator     geolocation.Locator
	defaultCity string
	country     string
	logger      zerolog.Logger
	clock       func() time.Time
	metrics     *telemetry.SessionMetrics
	tracer      trace.Tracer

	mu        sync.RWMutex
	status    Status
	units     weather.Units
	city      string
	qualifier string
	current   *weather.Snapshot
	hourly    []weather.ForecastPoint
	daily     []weather.ForecastPoint
	timeOfDay weather.TimeOfDay
	recent    RecentSearches

	ticket uint64
	cancel context.CancelFunc
}

func (cfg Config) validate() error {
	if cfg.Provider == nil {
		return ErrMissingProvider
	}
	if strings.TrimSpace(cfg.DefaultCity) == "" {
		return ErrMissingDefaultCity
	}
	return nil
}

// New creates an idle session.
func New(cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newSession(cfg), nil
}

func newSession(cfg Config) *Session {
	units := cfg.Units
	if units == "" {
		units = weather.UnitsMetric
	}
	locator := cfg.Locator
	if locator == nil {
		locator = geolocation.Unavailable
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Session{
		provider:    cfg.Provider,
		locator:     locator,
		defaultCity: strings.TrimSpace(cfg.DefaultCity),
		country:     cfg.Country,
		logger:      cfg.Logger,
		clock:       clock,
		metrics:     cfg.Metrics,
		tracer:      otel.Tracer(tracerName),
		status:      Status{Phase: PhaseIdle},
		units:       units,
	}
}

// operation is the bookkeeping of one in-flight session operation. country
// qualifies city on lookups: the configured country for typed names and the
// reverse lookup's own country for located places.
type operation struct {
	name    string
	ticket  uint64
	ctx     context.Context
	cancel  context.CancelFunc
	span    trace.Span
	units   weather.Units
	city    string
	country string
	start   time.Time
}

// begin issues a new ticket, cancels the previous in-flight operation and
// moves the session to Loading. mutate, when non-nil, runs under the same lock
// before the operation captures units and city.
func (s *Session) begin(parent context.Context, name string, mutate func()) *operation {
	ctx, span := s.tracer.Start(parent, "session."+name)
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if mutate != nil {
		mutate()
	}

	s.ticket++
	s.cancel = cancel
	s.status = Status{Phase: PhaseLoading}

	city, country := s.city, s.qualifier
	if city == "" {
		city, country = s.defaultCity, s.country
	}

	span.SetAttributes(
		attribute.Int64("session.ticket", int64(s.ticket)),
		attribute.String("weather.units", string(s.units)),
	)

	return &operation{
		name:    name,
		ticket:  s.ticket,
		ctx:     ctx,
		cancel:  cancel,
		span:    span,
		units:   s.units,
		city:    city,
		country: country,
		start:   time.Now(),
	}
}

// end releases the operation's context and span.
func (op *operation) end() {
	op.cancel()
	op.span.End()
}

// settle applies fn if op still holds the newest ticket. It returns
// ErrSuperseded otherwise.
func (s *Session) settle(op *operation, fn func()) error {
	s.mu.Lock()
	current := op.ticket == s.ticket
	if current {
		fn()
		s.cancel = nil
	}
	s.mu.Unlock()

	if !current {
		op.span.SetAttributes(attribute.Bool("session.superseded", true))
		s.metrics.RecordSuperseded(op.ctx, op.name)
		s.logger.Debug().
			Str("operation", op.name).
			Uint64("ticket", op.ticket).
			Msg("discarding superseded result")
		return ErrSuperseded
	}
	return nil
}

// fail settles op as an error: views are cleared and the status carries the
// message for err.
func (s *Session) fail(op *operation, err error) error {
	message := messageFor(err)
	if serr := s.settle(op, func() {
		s.status = Status{Phase: PhaseError, Message: message}
		s.clearViews()
	}); serr != nil {
		return serr
	}

	op.span.RecordError(err)
	op.span.SetStatus(codes.Error, message)
	s.metrics.RecordOperation(op.ctx, op.name, outcomeErr, time.Since(op.start))
	s.logger.Warn().
		Err(err).
		Str("operation", op.name).
		Str("city", op.city).
		Str("units", string(op.units)).
		Msg("weather session operation failed")
	return err
}

func (s *Session) clearViews() {
	s.current = nil
	s.hourly = nil
	s.daily = nil
	s.timeOfDay = ""
}

// SearchCity fetches current conditions and the forecast for name in the
// active units. A blank name is ignored.
func (s *Session) SearchCity(ctx context.Context, name string) error {
	s.mu.RLock()
	q, ok := NewQuery(name, s.units)
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	op := s.begin(ctx, OpSearch, nil)
	defer op.end()

	op.city = q.City
	op.country = s.country
	return s.fetch(op)
}

// UseCurrentLocation searches the city at the position reported by the
// session's Locator.
func (s *Session) UseCurrentLocation(ctx context.Context) error {
	return s.UseLocation(ctx, s.locator)
}

// UseLocation searches the city at the position reported by locator. A
// refused or failed location request ends in an error status without any
// provider call.
func (s *Session) UseLocation(ctx context.Context, locator geolocation.Locator) error {
	if locator == nil {
		locator = geolocation.Unavailable
	}

	op := s.begin(ctx, OpLocate, nil)
	defer op.end()

	coords, err := locator.Locate(op.ctx)
	if err != nil {
		if !errors.Is(err, geolocation.ErrPermissionDenied) {
			err = errors.Join(geolocation.ErrPermissionDenied, err)
		}
		return s.fail(op, err)
	}
	op.span.SetAttributes(
		attribute.Float64("geo.lat", coords.Lat),
		attribute.Float64("geo.lon", coords.Lon),
	)

	place, err := s.provider.CurrentByCoordinates(op.ctx, coords, op.units)
	if err != nil {
		return s.fail(op, err)
	}
	if place.Name == "" {
		return s.fail(op, fmt.Errorf("%w: no place at %.4f,%.4f", weather.ErrNotFound, coords.Lat, coords.Lon))
	}

	op.city = place.Name
	op.country = place.Country
	return s.fetch(op)
}

// ToggleUnit flips the unit system and re-fetches the last successfully
// searched city, or the default city when there is none.
func (s *Session) ToggleUnit(ctx context.Context) error {
	op := s.begin(ctx, OpToggle, func() {
		s.units = s.units.Toggle()
	})
	defer op.end()

	return s.fetch(op)
}

// Refresh re-fetches the current city in the active units.
func (s *Session) Refresh(ctx context.Context) error {
	op := s.begin(ctx, OpRefresh, nil)
	defer op.end()

	return s.fetch(op)
}

// fetch loads current conditions then the forecast for op.city and settles op.
func (s *Session) fetch(op *operation) error {
	op.span.SetAttributes(attribute.String("weather.city", op.city))

	snap, err := s.provider.CurrentByCity(op.ctx, op.city, op.country, op.units)
	if err != nil {
		return s.fail(op, err)
	}

	forecast, err := s.provider.ForecastByCity(op.ctx, op.city, op.country, op.units)
	if err != nil {
		// Current conditions stay visible; only the forecast views are empty.
		forecast = nil
		if op.ctx.Err() == nil {
			s.logger.Warn().
				Err(err).
				Str("operation", op.name).
				Str("city", op.city).
				Msg("forecast unavailable, showing current conditions only")
		}
	}

	now := s.clock()
	entry := RecentSearch{
		City:        snap.Name,
		Country:     snap.Country,
		Temperature: snap.RoundedTemperature(),
		Condition:   snap.Condition,
		Units:       op.units,
		SearchedAt:  now,
	}
	if entry.City == "" {
		entry.City = op.city
	}

	if err := s.settle(op, func() {
		s.current = snap
		s.hourly = forecast.Hourly()
		s.daily = forecast.Daily()
		s.timeOfDay = snap.TimeOfDayAt(now)
		s.city = op.city
		s.qualifier = op.country
		s.recent = s.recent.With(entry)
		s.status = Status{Phase: PhaseReady}
	}); err != nil {
		return err
	}

	s.metrics.RecordOperation(op.ctx, op.name, outcomeOK, time.Since(op.start))
	s.logger.Info().
		Str("operation", op.name).
		Str("city", snap.Name).
		Str("units", string(op.units)).
		Int("forecast_points", len(forecast.Hourly())).
		Dur("duration", time.Since(op.start)).
		Msg("weather session updated")
	return nil
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Units returns the active unit system.
func (s *Session) Units() weather.Units {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.units
}

// City returns the last successfully searched city, empty before the first success.
func (s *Session) City() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.city
}

// Current returns a copy of the current conditions, or nil when the last
// operation failed or none has completed.
func (s *Session) Current() *weather.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(s.current)
}

// Hourly returns the hourly forecast view.
func (s *Session) Hourly() []weather.ForecastPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPoints(s.hourly)
}

// Daily returns the daily forecast view.
func (s *Session) Daily() []weather.ForecastPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPoints(s.daily)
}

// TimeOfDay returns day or night for the current conditions, empty when there are none.
func (s *Session) TimeOfDay() weather.TimeOfDay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeOfDay
}

// RecentSearches returns the recent searches, most recent first.
func (s *Session) RecentSearches() RecentSearches {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRecent(s.recent)
}

// State returns a consistent copy of the whole session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Status:    s.status,
		Units:     s.units,
		City:      s.city,
		Current:   copySnapshot(s.current),
		Hourly:    copyPoints(s.hourly),
		Daily:     copyPoints(s.daily),
		TimeOfDay: s.timeOfDay,
		Recent:    copyRecent(s.recent),
	}
}

// Close cancels any in-flight operation and discards its result.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticket++
	if s.status.Phase == PhaseLoading {
		s.status = Status{Phase: PhaseIdle}
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func copySnapshot(snap *weather.Snapshot) *weather.Snapshot {
	if snap == nil {
		return nil
	}
	cp := *snap
	if snap.Precipitation != nil {
		mm := *snap.Precipitation
		cp.Precipitation = &mm
	}
	return &cp
}

func copyPoints(points []weather.ForecastPoint) []weather.ForecastPoint {
	if points == nil {
		return nil
	}
	out := make([]weather.ForecastPoint, len(points))
	copy(out, points)
	return out
}

func copyRecent(r RecentSearches) RecentSearches {
	if r == nil {
		return nil
	}
	out := make(RecentSearches, len(r))
	copy(out, r)
	return out
}
