package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdeck/weatherdeck/internal/api/middleware"
	"github.com/weatherdeck/weatherdeck/internal/api/models"
	"github.com/weatherdeck/weatherdeck/internal/api/response"
	"github.com/weatherdeck/weatherdeck/internal/geolocation"
	"github.com/weatherdeck/weatherdeck/internal/session"
	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// Response headers carrying a renewed session token.
const (
	SessionTokenHeader        = "X-Session-Token"
	SessionTokenExpiresHeader = "X-Session-Token-Expires"
)

// TokenIssuer issues bearer tokens bound to a session ID.
type TokenIssuer interface {
	Issue(sessionID string) (string, time.Time, error)
}

// SessionHandlerConfig holds configuration for a SessionHandler.
type SessionHandlerConfig struct {
	Store  *session.Store
	Tokens TokenIssuer
	Logger zerolog.Logger

	// SearchOnStart fetches the default city as soon as a session is created.
	SearchOnStart bool
}

// SessionHandler handles weather session endpoints.
type SessionHandler struct {
	store         *session.Store
	tokens        TokenIssuer
	logger        zerolog.Logger
	searchOnStart bool
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(cfg SessionHandlerConfig) *SessionHandler {
	return &SessionHandler{
		store:         cfg.Store,
		tokens:        cfg.Tokens,
		logger:        cfg.Logger,
		searchOnStart: cfg.SearchOnStart,
	}
}

// Create handles POST /v1/sessions - start a new weather session.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, sess := h.store.Create()

	token, expiresAt, err := h.tokens.Issue(id)
	if err != nil {
		h.store.Delete(id)
		h.logger.Error().Err(err).Msg("failed to issue session token")
		response.InternalError(w, r, "failed to create session")
		return
	}

	if h.searchOnStart {
		h.settle(r.Context(), session.OpRefresh, sess.Refresh(opContext(r)))
	}

	response.Created(w, r, "/v1/session", models.SessionCreated{
		Token:     token,
		ExpiresAt: models.Timestamp(expiresAt),
		State:     toSessionState(sess.State()),
	})
}

// Get handles GET /v1/session - current session state.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, toSessionState(sess.State()))
}

// Search handles POST /v1/session/search - look up a city by name.
func (h *SessionHandler) Search(w http.ResponseWriter, r *http.Request) {
	var input models.SearchRequest
	if err := response.DecodeJSON(w, r, &input, false); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	h.settle(r.Context(), session.OpSearch, sess.SearchCity(opContext(r), input.City))
	response.JSON(w, r, http.StatusOK, toSessionState(sess.State()))
}

// Location handles POST /v1/session/location - look up weather at the
// browser's position, or record that the user denied location access.
func (h *SessionHandler) Location(w http.ResponseWriter, r *http.Request) {
	var input models.LocationRequest
	if err := response.DecodeJSON(w, r, &input, false); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	var locator geolocation.Locator
	if input.Denied {
		locator = geolocation.Denied()
	} else {
		coords, fieldErrors := validateLocation(&input)
		if len(fieldErrors) > 0 {
			response.BadRequest(w, r, "validation failed", fieldErrors)
			return
		}
		locator = geolocation.Fixed(coords)
	}

	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	h.settle(r.Context(), session.OpLocate, sess.UseLocation(opContext(r), locator))
	response.JSON(w, r, http.StatusOK, toSessionState(sess.State()))
}

// ToggleUnits handles POST /v1/session/units:toggle - flip metric/imperial and re-fetch.
func (h *SessionHandler) ToggleUnits(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	h.settle(r.Context(), session.OpToggle, sess.ToggleUnit(opContext(r)))
	response.JSON(w, r, http.StatusOK, toSessionState(sess.State()))
}

// Refresh handles POST /v1/session/refresh - re-fetch the current city.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	h.settle(r.Context(), session.OpRefresh, sess.Refresh(opContext(r)))
	response.JSON(w, r, http.StatusOK, toSessionState(sess.State()))
}

// Delete handles DELETE /v1/session - end the session.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	if !h.store.Delete(sessionID) {
		response.NotFound(w, r, "session")
		return
	}
	response.NoContent(w, r)
}

// lookup resolves the authenticated session, writing the error response when it cannot.
func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessionID := middleware.GetSessionID(r.Context())
	if sessionID == "" {
		response.Unauthorized(w, r, "session not authenticated")
		return nil, false
	}

	sess, err := h.store.Get(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			response.NotFound(w, r, "session")
			return nil, false
		}
		response.InternalError(w, r, "internal server error")
		return nil, false
	}
	h.renewToken(w, sessionID)
	return sess, true
}

// renewToken sets a fresh token on the response. Token expiry slides with
// session activity.
func (h *SessionHandler) renewToken(w http.ResponseWriter, sessionID string) {
	token, expiresAt, err := h.tokens.Issue(sessionID)
	if err != nil {
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to renew session token")
		return
	}
	w.Header().Set(SessionTokenHeader, token)
	w.Header().Set(SessionTokenExpiresHeader, expiresAt.UTC().Format(time.RFC3339))
}

// opContext keeps the request's values but not its cancellation. Only a
// newer operation cancels a session fetch.
func opContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// settle logs the outcome of a session operation. Failures are already part
// of the session state, so they never change the HTTP response.
func (h *SessionHandler) settle(ctx context.Context, op string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, session.ErrSuperseded):
		h.logger.Debug().Str("op", op).Str("session_id", middleware.GetSessionID(ctx)).Msg("operation superseded")
	default:
		h.logger.Debug().Err(err).Str("op", op).Str("session_id", middleware.GetSessionID(ctx)).Msg("operation failed")
	}
}

func validateLocation(input *models.LocationRequest) (weather.Coordinates, []models.FieldError) {
	var fieldErrors []models.FieldError
	if input.Lat == nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "lat", Message: "lat is required", Code: "required"})
	}
	if input.Lon == nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "lon", Message: "lon is required", Code: "required"})
	}
	if len(fieldErrors) > 0 {
		return weather.Coordinates{}, fieldErrors
	}

	coords := weather.Coordinates{Lat: *input.Lat, Lon: *input.Lon}
	if err := coords.Validate(); err != nil {
		if coords.Lat < -90 || coords.Lat > 90 {
			fieldErrors = append(fieldErrors, models.FieldError{Field: "lat", Message: "lat must be between -90 and 90", Code: "out_of_range"})
		}
		if coords.Lon < -180 || coords.Lon > 180 {
			fieldErrors = append(fieldErrors, models.FieldError{Field: "lon", Message: "lon must be between -180 and 180", Code: "out_of_range"})
		}
	}
	return coords, fieldErrors
}
