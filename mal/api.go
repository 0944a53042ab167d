package mal

import (
	"context"
)

// API defines the catalog operations the bot depends on
type API interface {
	// Search returns records of kind matching a free-text query
	Search(ctx context.Context, kind Kind, query string, limit, offset int) ([]Record, error)

	// FetchByID returns one record or ErrNotFound
	FetchByID(ctx context.Context, kind Kind, id int) (*Record, error)

	// Resolve accepts a numeric id or a name
	Resolve(ctx context.Context, kind Kind, identifier string) (*Record, error)

	// Ranking returns an upstream top list for anime or manga
	Ranking(ctx context.Context, kind Kind, rankingType RankingType, limit int) ([]Record, error)

	// Seasonal returns anime broadcast in a season
	Seasonal(ctx context.Context, year int, season Season, limit int) ([]Record, error)

	// Schedule returns current-season anime airing on a weekday
	Schedule(ctx context.Context, day string, limit int) ([]Record, error)

	// TestConnection verifies the credential against the upstream
	TestConnection(ctx context.Context) error
}
