package paginate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/s0up4200/anilumina/render"
)

// Direction is a navigation event
type Direction int

const (
	// Next advances one page
	Next Direction = iota
	// Prev goes back one page
	Prev
)

// String returns the direction name used in button ids and metrics
func (d Direction) String() string {
	if d == Prev {
		return "prev"
	}
	return "next"
}

// ParseDirection parses "next" or "prev"
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "next":
		return Next, nil
	case "prev":
		return Prev, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// State is the lifecycle state of a session
type State int

const (
	StateActive State = iota
	StateExpired
)

// View is what a render target draws for the current page
type View struct {
	SessionID string
	Page      render.Page
	Index     int
	Total     int
	HasPrev   bool
	HasNext   bool
	Expired   bool
}

// Footer returns "Page X/N" for the view
func (v View) Footer() string {
	return render.Footer(v.Index, v.Total)
}

// RenderTarget is the durable handle to a session's rendered output,
// for example a sent chat message that later transitions edit in place.
type RenderTarget interface {
	// Render replaces the output with view
	Render(ctx context.Context, view View) error
	// Disable marks the output inert once the session expires
	Disable(ctx context.Context, view View) error
}

// Config controls session behavior
type Config struct {
	// TTL is the idle time after which a session expires
	TTL time.Duration
	// OwnerOnly restricts navigation to the user who created the session
	OwnerOnly bool
	// Clock returns the current time
	Clock func() time.Time
}

// DefaultConfig returns owner-restricted sessions with a 3 minute idle timeout
func DefaultConfig() Config {
	return Config{
		TTL:       3 * time.Minute,
		OwnerOnly: true,
		Clock:     time.Now,
	}
}

// Session is the navigation state of one paginated result
type Session struct {
	id        string
	owner     string
	pages     []render.Page
	target    RenderTarget
	ttl       time.Duration
	ownerOnly bool
	now       func() time.Time
	createdAt time.Time

	// evicted is set when the registry drops the session without holding its lock
	evicted atomic.Bool

	mu         sync.Mutex
	index      int
	state      State
	lastActive time.Time
}

// NewSession creates a session positioned on the first page
func NewSession(id, owner string, pages []render.Page, target RenderTarget, cfg Config) (*Session, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	if target == nil {
		return nil, fmt.Errorf("render target is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}

	now := cfg.Clock()
	return &Session{
		id:         id,
		owner:      owner,
		pages:      pages,
		target:     target,
		ttl:        cfg.TTL,
		ownerOnly:  cfg.OwnerOnly,
		now:        cfg.Clock,
		createdAt:  now,
		state:      StateActive,
		lastActive: now,
	}, nil
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// Owner returns the user who created the session
func (s *Session) Owner() string { return s.owner }

// CreatedAt returns when the session was created
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Len returns the number of pages
func (s *Session) Len() int { return len(s.pages) }

// Index returns the current page index
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// State returns the session state without evaluating the idle timeout
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted.Load() {
		return StateExpired
	}
	return s.state
}

// View returns the current view
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Navigate applies one navigation event from user. Accepted events move the
// index (clamped to the page range), re-arm the idle timer and re-render the
// page under the session lock. Expired sessions and foreign users are rejected
// without any state change.
func (s *Session) Navigate(ctx context.Context, user string, dir Direction) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkExpiryLocked(ctx); err != nil {
		return s.viewLocked(), err
	}

	if s.ownerOnly && user != s.owner {
		return s.viewLocked(), ErrNotOwner
	}

	prevIndex, prevActive := s.index, s.lastActive

	switch dir {
	case Next:
		s.index = min(s.index+1, len(s.pages)-1)
	case Prev:
		s.index = max(s.index-1, 0)
	}
	s.lastActive = s.now()

	view := s.viewLocked()
	if err := s.target.Render(ctx, view); err != nil {
		// the page was never shown, so the transition does not count
		s.index, s.lastActive = prevIndex, prevActive
		return s.viewLocked(), fmt.Errorf("%w: %w", ErrRender, err)
	}
	return view, nil
}

// Expire moves an idle session to Expired and disables its output. It reports
// whether the session is expired after the call.
func (s *Session) Expire(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.checkExpiryLocked(ctx)
	switch {
	case err == nil:
		return false, nil
	case err == ErrExpired:
		return true, nil
	default:
		return true, err
	}
}

// Close expires the session immediately regardless of activity
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateExpired {
		return nil
	}
	return s.expireLocked(ctx)
}

// checkExpiryLocked returns ErrExpired when the session is or just became
// expired, or a wrapped disable error from the transition.
func (s *Session) checkExpiryLocked(ctx context.Context) error {
	if s.state == StateExpired {
		return ErrExpired
	}
	if s.evicted.Load() || s.now().Sub(s.lastActive) > s.ttl {
		if err := s.expireLocked(ctx); err != nil {
			return errors.Join(ErrExpired, err)
		}
		return ErrExpired
	}
	return nil
}

func (s *Session) expireLocked(ctx context.Context) error {
	s.state = StateExpired
	if err := s.target.Disable(ctx, s.viewLocked()); err != nil {
		return fmt.Errorf("%w: disable: %w", ErrRender, err)
	}
	return nil
}

func (s *Session) viewLocked() View {
	return View{
		SessionID: s.id,
		Page:      s.pages[s.index],
		Index:     s.index,
		Total:     len(s.pages),
		HasPrev:   s.index > 0,
		HasNext:   s.index < len(s.pages)-1,
		Expired:   s.state == StateExpired,
	}
}
