package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/weatherdeck/weatherdeck/internal/telemetry"
)

// StoreConfig holds configuration for a Store.
type StoreConfig struct {
	// Session is the template every new session is created from.
	Session Config

	Logger  zerolog.Logger
	Metrics *telemetry.SessionMetrics

	// Now returns the current time for idle tracking. Defaults to time.Now.
	Now func() time.Time
}

// Store is an in-memory set of sessions keyed by ID.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	template Config
	logger   zerolog.Logger
	metrics  *telemetry.SessionMetrics
	now      func() time.Time
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// NewStore creates an empty store. The session template is validated once here.
func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	template := cfg.Session
	if template.Metrics == nil {
		template.Metrics = cfg.Metrics
	}
	return &Store{
		sessions: make(map[string]*entry),
		template: template,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      now,
	}, nil
}

// Create creates a new idle session and returns its ID.
func (st *Store) Create() (string, *Session) {
	id := uuid.New().String()

	cfg := st.template
	cfg.Logger = st.template.Logger.With().Str("session_id", id).Logger()
	sess := newSession(cfg)

	st.mu.Lock()
	st.sessions[id] = &entry{session: sess, lastSeen: st.now()}
	st.mu.Unlock()

	st.metrics.AddActiveSessions(1)
	st.logger.Debug().Str("session_id", id).Msg("session created")
	return id, sess
}

// Get returns the session with the given ID and marks it as seen.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = st.now()
	return e.session, nil
}

// Delete closes and removes a session. It reports whether the session existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	e, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return false
	}
	e.session.Close()
	st.metrics.AddActiveSessions(-1)
	st.logger.Debug().Str("session_id", id).Msg("session deleted")
	return true
}

// Sweep removes sessions not seen for longer than idleTTL and returns how many were removed.
func (st *Store) Sweep(idleTTL time.Duration) int {
	cutoff := st.now().Add(-idleTTL)

	st.mu.Lock()
	var evicted []*Session
	for id, e := range st.sessions {
		if e.lastSeen.Before(cutoff) {
			evicted = append(evicted, e.session)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, sess := range evicted {
		sess.Close()
	}
	if n := len(evicted); n > 0 {
		st.metrics.AddActiveSessions(-int64(n))
	}
	return len(evicted)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
