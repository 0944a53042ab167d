package mal

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the closed set of catalog entities the client can query
type Kind string

const (
	// KindAnime is an anime series or film
	KindAnime Kind = "anime"
	// KindManga is a manga, novel or similar print work
	KindManga Kind = "manga"
	// KindCharacter is a fictional character
	KindCharacter Kind = "character"
	// KindPerson is staff or a voice actor
	KindPerson Kind = "person"
	// KindStudio is an animation studio or producer
	KindStudio Kind = "studio"
)

// Kinds lists every supported kind in display order
var Kinds = []Kind{KindAnime, KindManga, KindCharacter, KindPerson, KindStudio}

// String returns the kind name
func (k Kind) String() string {
	return string(k)
}

// path returns the upstream collection path for the kind
func (k Kind) path() string {
	switch k {
	case KindCharacter:
		return "characters"
	case KindPerson:
		return "people"
	case KindStudio:
		return "producers"
	default:
		return string(k)
	}
}

// HasRanking reports whether the upstream exposes a ranking for the kind
func (k Kind) HasRanking() bool {
	return k == KindAnime || k == KindManga
}

// ParseKind parses a user-supplied kind, accepting a few common aliases
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "anime":
		return KindAnime, nil
	case "manga":
		return KindManga, nil
	case "character", "characters":
		return KindCharacter, nil
	case "person", "people", "staff":
		return KindPerson, nil
	case "studio", "studios", "producer", "producers":
		return KindStudio, nil
	default:
		return "", fmt.Errorf("%w: unsupported kind %q", ErrInvalidArgument, s)
	}
}

// Season is a broadcast season of the year
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
)

// ParseSeason parses a season name; "autumn" is accepted for fall
func ParseSeason(s string) (Season, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "winter":
		return SeasonWinter, nil
	case "spring":
		return SeasonSpring, nil
	case "summer":
		return SeasonSummer, nil
	case "fall", "autumn":
		return SeasonFall, nil
	default:
		return "", fmt.Errorf("%w: invalid season %q, use winter/spring/summer/fall", ErrInvalidArgument, s)
	}
}

// SeasonOf returns the broadcast year and season containing t
func SeasonOf(t time.Time) (int, Season) {
	switch t.Month() {
	case time.January, time.February, time.March:
		return t.Year(), SeasonWinter
	case time.April, time.May, time.June:
		return t.Year(), SeasonSpring
	case time.July, time.August, time.September:
		return t.Year(), SeasonSummer
	default:
		return t.Year(), SeasonFall
	}
}

// RankingType selects an upstream ranking list
type RankingType string

var (
	animeRankings = []RankingType{"all", "airing", "upcoming", "tv", "ova", "movie", "special", "bypopularity", "favorite"}
	mangaRankings = []RankingType{"all", "manga", "novels", "oneshots", "doujin", "manhwa", "manhua", "bypopularity", "favorite"}
)

// RankingTypes returns the ranking types valid for kind
func RankingTypes(kind Kind) []RankingType {
	switch kind {
	case KindAnime:
		return animeRankings
	case KindManga:
		return mangaRankings
	default:
		return nil
	}
}

// ParseRankingType validates a ranking type for kind; empty means "all"
func ParseRankingType(kind Kind, s string) (RankingType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		s = "all"
	}
	for _, rt := range RankingTypes(kind) {
		if string(rt) == s {
			return rt, nil
		}
	}
	return "", fmt.Errorf("%w: invalid ranking type %q for %s", ErrInvalidArgument, s, kind)
}

// Status is the publication or airing state of a record
type Status string

const (
	StatusFinishedAiring      Status = "finished_airing"
	StatusCurrentlyAiring     Status = "currently_airing"
	StatusNotYetAired         Status = "not_yet_aired"
	StatusFinished            Status = "finished"
	StatusCurrentlyPublishing Status = "currently_publishing"
	StatusNotYetPublished     Status = "not_yet_published"
	StatusOnHiatus            Status = "on_hiatus"
	StatusDiscontinued        Status = "discontinued"
)

// Label returns a human readable status, e.g. "Finished Airing"
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Record is a catalog entity decoded from an upstream response.
// Optional fields are pointers or empty strings when the upstream omits them.
type Record struct {
	Kind         Kind
	ID           int
	Title        string
	URL          string
	ThumbnailURL string
	Score        *float64
	Rank         *int
	Status       Status
	// Count is episodes for anime and chapters for manga.
	Count *int
	// Volumes is only set for manga.
	Volumes      *int
	StartDate    string
	Synopsis     string
	MediaType    string
	Genres       []string
	Studios      []string
	BroadcastDay string
}

// Year returns the start year parsed from StartDate, or 0
func (r Record) Year() int {
	if len(r.StartDate) < 4 {
		return 0
	}
	var y int
	if _, err := fmt.Sscanf(r.StartDate[:4], "%d", &y); err != nil {
		return 0
	}
	return y
}

// CountLabel names the Count field for the record kind
func (r Record) CountLabel() string {
	if r.Kind == KindManga {
		return "Chapters"
	}
	return "Episodes"
}

// siteURL returns the public page of an entity
func siteURL(kind Kind, id int) string {
	return fmt.Sprintf("%s/%s/%d", siteBaseURL, kind.sitePath(), id)
}

func (k Kind) sitePath() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindPerson:
		return "people"
	case KindStudio:
		return "anime/producer"
	default:
		return string(k)
	}
}
