package paginate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/s0up4200/anilumina/metrics"
	"github.com/s0up4200/anilumina/render"
)

// DefaultCapacity bounds how many sessions the registry keeps
const DefaultCapacity = 1000

// Manager owns the registry of live sessions. The registry lock and the
// per-session locks are never held at the same time.
type Manager struct {
	sessions *lru.Cache[string, *Session]
	cfg      Config
	capacity int
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	newID    func() string
}

// ManagerOption configures a session manager
type ManagerOption func(*Manager)

// WithTTL sets the idle timeout of new sessions
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.cfg.TTL = ttl
		}
	}
}

// WithOwnerOnly controls whether only the session owner may navigate
func WithOwnerOnly(ownerOnly bool) ManagerOption {
	return func(m *Manager) {
		m.cfg.OwnerOnly = ownerOnly
	}
}

// WithCapacity sets the maximum number of tracked sessions
func WithCapacity(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// WithClock sets the time source for new sessions
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.cfg.Clock = now
		}
	}
}

// WithMetrics records transitions and the active session count
func WithMetrics(mt *metrics.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithIDGenerator overrides session id generation
func WithIDGenerator(fn func() string) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewManager creates a new session manager
func NewManager(logger zerolog.Logger, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		cfg:      DefaultConfig(),
		capacity: DefaultCapacity,
		logger:   logger.With().Str("component", "paginate").Logger(),
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(m)
	}

	sessions, err := lru.NewWithEvict(m.capacity, func(id string, s *Session) {
		s.evicted.Store(true)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session registry: %w", err)
	}
	m.sessions = sessions

	return m, nil
}

// Config returns the configuration applied to new sessions
func (m *Manager) Config() Config {
	return m.cfg
}

// Create registers a session for pages rendered into target. The first page is
// expected to be on screen already.
func (m *Manager) Create(owner string, pages []render.Page, target RenderTarget) (*Session, error) {
	s, err := NewSession(m.newID(), owner, pages, target, m.cfg)
	if err != nil {
		return nil, err
	}

	m.sessions.Add(s.ID(), s)
	m.metrics.SetSessionsActive(m.sessions.Len())

	m.logger.Debug().
		Str("session", s.ID()).
		Str("owner", owner).
		Int("pages", len(pages)).
		Msg("Created pagination session")

	return s, nil
}

// Get returns a tracked session
func (m *Manager) Get(id string) (*Session, bool) {
	return m.sessions.Peek(id)
}

// Len returns the number of tracked sessions
func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Navigate routes a navigation event to its session. Unknown sessions return
// ErrNotFound, which callers should treat like ErrExpired.
func (m *Manager) Navigate(ctx context.Context, id, user string, dir Direction) (View, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		m.metrics.Transition(dir.String(), "not_found")
		return View{}, ErrNotFound
	}

	view, err := s.Navigate(ctx, user, dir)
	m.metrics.Transition(dir.String(), outcome(err))

	switch {
	case errors.Is(err, ErrExpired):
		m.sessions.Remove(id)
		m.metrics.SetSessionsActive(m.sessions.Len())
		if errors.Is(err, ErrRender) {
			m.logger.Warn().Err(err).Str("session", id).Msg("Failed to disable expired session")
		}
	case errors.Is(err, ErrNotOwner):
		m.logger.Debug().Str("session", id).Str("user", user).Msg("Rejected navigation from non-owner")
	case err != nil:
		m.logger.Error().Err(err).Str("session", id).Int("page", view.Index).Msg("Failed to render page")
	}

	return view, err
}

// Sweep expires idle sessions, disables their output and drops them from the
// registry. It returns the number of sessions removed.
func (m *Manager) Sweep(ctx context.Context) int {
	removed := 0
	for _, id := range m.sessions.Keys() {
		s, ok := m.sessions.Peek(id)
		if !ok {
			continue
		}

		expired, err := s.Expire(ctx)
		if err != nil {
			m.logger.Warn().Err(err).Str("session", id).Msg("Failed to disable expired session")
		}
		if expired {
			m.sessions.Remove(id)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Debug().Int("removed", removed).Msg("Swept idle pagination sessions")
	}
	m.metrics.SetSessionsActive(m.sessions.Len())
	return removed
}

// Run sweeps on every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.cfg.TTL / 2
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	default:
		return "render_error"
	}
}
