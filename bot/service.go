package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/anilumina/filter"
	"github.com/s0up4200/anilumina/mal"
	"github.com/s0up4200/anilumina/paginate"
	"github.com/s0up4200/anilumina/render"
)

// Result is a rendered answer to one command
type Result struct {
	Title   string
	Pages   []render.Page
	Records []mal.Record
}

// Paginated reports whether the result needs navigation controls
func (r *Result) Paginated() bool {
	return len(r.Pages) > 1
}

// SearchRequest holds the parameters of a search command
type SearchRequest struct {
	Kind   mal.Kind
	Query  string
	Limit  int
	Offset int
	// Filter is an expression or preset name applied to the results
	Filter string
}

// Service implements every command intent over the catalog client
type Service struct {
	api      mal.API
	sessions *paginate.Manager
	filters  *filter.Manager
	pageSize int
	limit    int
	now      func() time.Time
	logger   zerolog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithPageSize sets the number of cards per page
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithDefaultLimit sets the result count used when a command omits it
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithClock sets the time source used for the current season and weekday
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new command service. filters may be nil.
func NewService(api mal.API, sessions *paginate.Manager, filters *filter.Manager, logger zerolog.Logger, opts ...Option) *Service {
	if filters == nil {
		filters = filter.NewManager()
	}

	s := &Service{
		api:      api,
		sessions: sessions,
		filters:  filters,
		pageSize: render.DefaultPageSize,
		limit:    mal.DefaultMaxLimit,
		now:      time.Now,
		logger:   logger.With().Str("component", "bot").Logger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Search runs a free-text search
func (s *Service) Search(ctx context.Context, req SearchRequest) (*Result, error) {
	kind := req.Kind
	if kind == "" {
		kind = mal.KindAnime
	}

	records, err := s.api.Search(ctx, kind, req.Query, s.limitOr(req.Limit), req.Offset)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Search results for %q (%s)", strings.TrimSpace(req.Query), kind)
	return s.list(ctx, title, records, req.Filter)
}

// Info looks up a single record by id or name
func (s *Service) Info(ctx context.Context, kind mal.Kind, identifier string) (*Result, error) {
	if kind == "" {
		kind = mal.KindAnime
	}

	rec, err := s.api.Resolve(ctx, kind, identifier)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:   rec.Title,
		Pages:   []render.Page{render.Detail(*rec)},
		Records: []mal.Record{*rec},
	}, nil
}

// Top returns a ranking list
func (s *Service) Top(ctx context.Context, kind mal.Kind, rankingType mal.RankingType, limit int, filterSpec string) (*Result, error) {
	if kind == "" {
		kind = mal.KindAnime
	}
	if rankingType == "" {
		rankingType = "all"
	}

	records, err := s.api.Ranking(ctx, kind, rankingType, s.limitOr(limit))
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Top %s (%s)", kind, rankingType)
	return s.list(ctx, title, records, filterSpec)
}

// Season returns a seasonal listing. A zero year or empty season means the current one.
func (s *Service) Season(ctx context.Context, year int, season mal.Season, limit int, filterSpec string) (*Result, error) {
	curYear, curSeason := mal.SeasonOf(s.now())
	if year == 0 {
		year = curYear
	}
	if season == "" {
		season = curSeason
	}

	records, err := s.api.Seasonal(ctx, year, season, s.limitOr(limit))
	if err != nil {
		return nil, err
	}

	parsed, _ := mal.ParseSeason(string(season))
	title := fmt.Sprintf("%s %d anime", titleCase(string(parsed)), year)
	return s.list(ctx, title, records, filterSpec)
}

// Schedule returns anime airing on day. An empty day means today.
func (s *Service) Schedule(ctx context.Context, day string, limit int) (*Result, error) {
	if strings.TrimSpace(day) == "" {
		day = strings.ToLower(s.now().Weekday().String())
	}

	records, err := s.api.Schedule(ctx, day, s.limitOr(limit))
	if err != nil {
		return nil, err
	}

	normalized, _ := mal.ParseDay(day)
	title := fmt.Sprintf("Airing on %s", titleCase(normalized))
	return s.list(ctx, title, records, "")
}

// Start registers a pagination session for a result already shown through target.
// Single-page results need no session and return nil.
func (s *Service) Start(ctx context.Context, owner string, result *Result, target paginate.RenderTarget) (*paginate.Session, error) {
	if result == nil || !result.Paginated() {
		return nil, nil
	}
	if s.sessions == nil {
		return nil, fmt.Errorf("pagination is not configured")
	}
	return s.sessions.Create(owner, result.Pages, target)
}

// Navigate moves an existing session one page in dir
func (s *Service) Navigate(ctx context.Context, sessionID, user string, dir paginate.Direction) (paginate.View, error) {
	if s.sessions == nil {
		return paginate.View{}, paginate.ErrNotFound
	}
	return s.sessions.Navigate(ctx, sessionID, user, dir)
}

// TestConnection checks the catalog credential
func (s *Service) TestConnection(ctx context.Context) error {
	return s.api.TestConnection(ctx)
}

func (s *Service) list(ctx context.Context, title string, records []mal.Record, filterSpec string) (*Result, error) {
	if strings.TrimSpace(filterSpec) != "" {
		filtered, err := s.filters.Apply(ctx, filterSpec, records)
		if err != nil {
			return nil, err
		}
		s.logger.Debug().
			Str("filter", filterSpec).
			Int("before", len(records)).
			Int("after", len(filtered)).
			Msg("Applied result filter")
		records = filtered
	}

	return &Result{
		Title:   title,
		Pages:   render.BuildPages(title, records, s.pageSize),
		Records: records,
	}, nil
}

func (s *Service) limitOr(limit int) int {
	if limit <= 0 {
		return s.limit
	}
	return limit
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
