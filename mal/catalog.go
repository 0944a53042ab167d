package mal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/s0up4200/anilumina/cache"
)

// scheduleScanLimit is how many seasonal entries are scanned when building a day schedule
const scheduleScanLimit = 100

var (
	animeListFields   = []string{"id", "title", "main_picture", "mean", "rank", "status", "num_episodes", "start_date", "media_type", "broadcast"}
	animeDetailFields = []string{"id", "title", "main_picture", "alternative_titles", "start_date", "end_date", "num_episodes", "mean", "rank", "popularity", "status", "media_type", "genres", "studios", "synopsis", "broadcast"}
	mangaListFields   = []string{"id", "title", "main_picture", "mean", "rank", "status", "num_chapters", "num_volumes", "start_date", "media_type"}
	mangaDetailFields = []string{"id", "title", "main_picture", "alternative_titles", "start_date", "end_date", "num_chapters", "num_volumes", "mean", "rank", "popularity", "status", "media_type", "genres", "synopsis"}
	entityFields      = []string{"id", "name", "first_name", "last_name", "main_picture"}
)

func listFields(kind Kind) string {
	switch kind {
	case KindAnime:
		return strings.Join(animeListFields, ",")
	case KindManga:
		return strings.Join(mangaListFields, ",")
	default:
		return strings.Join(entityFields, ",")
	}
}

func detailFields(kind Kind) string {
	switch kind {
	case KindAnime:
		return strings.Join(animeDetailFields, ",")
	case KindManga:
		return strings.Join(mangaDetailFields, ",")
	default:
		return strings.Join(entityFields, ",")
	}
}

func validKind(kind Kind) error {
	for _, k := range Kinds {
		if k == kind {
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported kind %q", ErrInvalidArgument, kind)
}

// Search returns up to limit records of kind matching query. A 404 or an empty
// data array yields an empty slice and no error.
func (c *Client) Search(ctx context.Context, kind Kind, query string, limit, offset int) ([]Record, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", ErrInvalidArgument)
	}

	limit = c.clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("fields", listFields(kind))

	endpoint := kind.path()
	body, err := c.get(ctx, "search", endpoint, params, cache.Key("search", kind, query, limit, offset))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Record{}, nil
		}
		return nil, err
	}

	return decodeList(kind, endpoint, body)
}

// FetchByID returns a single record. ErrNotFound is returned when the entity does not exist.
func (c *Client) FetchByID(ctx context.Context, kind Kind, id int) (*Record, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive, got %d", ErrInvalidArgument, id)
	}

	params := url.Values{}
	params.Set("fields", detailFields(kind))

	endpoint := fmt.Sprintf("%s/%d", kind.path(), id)
	body, err := c.get(ctx, "fetch", endpoint, params, cache.Key("fetch", kind, id))
	if err != nil {
		return nil, err
	}

	return decodeRecord(kind, endpoint, body)
}

// Resolve looks up a record by numeric id or by name. A name is resolved through
// a one-result search followed by a fetch of the first hit, and both steps are cached.
func (c *Client) Resolve(ctx context.Context, kind Kind, identifier string) (*Record, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: identifier is empty", ErrInvalidArgument)
	}

	if isDigits(identifier) {
		id, err := strconv.Atoi(identifier)
		if err != nil {
			return nil, fmt.Errorf("%w: id %q out of range", ErrInvalidArgument, identifier)
		}
		return c.FetchByID(ctx, kind, id)
	}

	results, err := c.Search(ctx, kind, identifier, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, &APIError{Kind: KindNotFound, Endpoint: kind.path(), Detail: fmt.Sprintf("no %s matches %q", kind, identifier)}
	}

	first := results[0]
	if first.ID == 0 {
		return &first, nil
	}
	return c.FetchByID(ctx, kind, first.ID)
}

// Ranking returns the top records of an upstream ranking list
func (c *Client) Ranking(ctx context.Context, kind Kind, rankingType RankingType, limit int) ([]Record, error) {
	if !kind.HasRanking() {
		return nil, fmt.Errorf("%w: %s has no ranking", ErrInvalidArgument, kind)
	}
	rt, err := ParseRankingType(kind, string(rankingType))
	if err != nil {
		return nil, err
	}
	limit = c.clampLimit(limit)

	params := url.Values{}
	params.Set("ranking_type", string(rt))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", listFields(kind))

	endpoint := kind.path() + "/ranking"
	body, err := c.get(ctx, "ranking", endpoint, params, cache.Key("ranking", kind, string(rt), limit))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Record{}, nil
		}
		return nil, err
	}

	return decodeList(kind, endpoint, body)
}

// Seasonal returns anime broadcast in the given season, highest score first
func (c *Client) Seasonal(ctx context.Context, year int, season Season, limit int) ([]Record, error) {
	return c.seasonal(ctx, year, season, c.clampLimit(limit))
}

func (c *Client) seasonal(ctx context.Context, year int, season Season, limit int) ([]Record, error) {
	s, err := ParseSeason(string(season))
	if err != nil {
		return nil, err
	}
	if year < 1917 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", ErrInvalidArgument, year)
	}

	params := url.Values{}
	params.Set("sort", "anime_score")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", listFields(KindAnime))

	endpoint := fmt.Sprintf("anime/season/%d/%s", year, s)
	body, err := c.get(ctx, "season", endpoint, params, cache.Key("season", year, string(s), limit))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Record{}, nil
		}
		return nil, err
	}

	return decodeList(KindAnime, endpoint, body)
}

// Schedule returns anime of the current season that broadcast on day
func (c *Client) Schedule(ctx context.Context, day string, limit int) ([]Record, error) {
	day, err := ParseDay(day)
	if err != nil {
		return nil, err
	}
	limit = c.clampLimit(limit)

	year, season := SeasonOf(c.now())
	all, err := c.seasonal(ctx, year, season, scheduleScanLimit)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, limit)
	for _, r := range all {
		if r.BroadcastDay != day {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// TestConnection verifies the client id against a minimal uncached request
func (c *Client) TestConnection(ctx context.Context) error {
	clientID, err := c.credential()
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Set("q", "one piece")
	params.Set("limit", "1")

	_, err = c.fetch(ctx, "test", clientID, KindAnime.path(), params)
	return err
}

// ClearCache drops every cached upstream response
func (c *Client) ClearCache(ctx context.Context) error {
	return c.store.Clear(ctx)
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// ParseDay normalizes a weekday name; three letter abbreviations are accepted
func ParseDay(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range weekdays {
		if s == d || (len(s) == 3 && strings.HasPrefix(d, s)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: invalid day %q", ErrInvalidArgument, s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
