package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/s0up4200/anilumina/bot"
	"github.com/s0up4200/anilumina/mal"
	"github.com/s0up4200/anilumina/paginate"
)

// Command names
const (
	cmdPing     = "ping"
	cmdSearch   = "search"
	cmdInfo     = "info"
	cmdTop      = "top"
	cmdSeason   = "season"
	cmdSchedule = "schedule"
)

func kindChoices(kinds ...mal.Kind) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(kinds))
	for i, k := range kinds {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: string(k), Value: string(k)}
	}
	return choices
}

func stringChoices(values ...string) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(values))
	for i, v := range values {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v}
	}
	return choices
}

func limitOption(maxLimit int) *discordgo.ApplicationCommandOption {
	minLimit := 1.0
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "limit",
		Description: fmt.Sprintf("Number of results (1-%d)", maxLimit),
		MinValue:    &minLimit,
		MaxValue:    float64(maxLimit),
	}
}

func filterOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "filter",
		Description: "Filter expression or preset name, e.g. Score >= 8",
	}
}

// Commands returns the slash command definitions registered with Discord
func Commands(maxLimit int) []*discordgo.ApplicationCommand {
	if maxLimit <= 0 {
		maxLimit = mal.DefaultMaxLimit
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        cmdPing,
			Description: "Check bot responsiveness",
		},
		{
			Name:        cmdSearch,
			Description: "Search MyAnimeList",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Title or keyword",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "kind",
					Description: "What to search for (default anime)",
					Choices:     kindChoices(mal.Kinds...),
				},
				limitOption(maxLimit),
				filterOption(),
			},
		},
		{
			Name:        cmdInfo,
			Description: "Show details for one title",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "MyAnimeList id or title",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "kind",
					Description: "anime or manga (default anime)",
					Choices:     kindChoices(mal.KindAnime, mal.KindManga),
				},
			},
		},
		{
			Name:        cmdTop,
			Description: "Show a MyAnimeList ranking",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "kind",
					Description: "anime or manga (default anime)",
					Choices:     kindChoices(mal.KindAnime, mal.KindManga),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "type",
					Description: "Ranking type, e.g. airing, movie, bypopularity",
				},
				limitOption(maxLimit),
				filterOption(),
			},
		},
		{
			Name:        cmdSeason,
			Description: "Show a seasonal anime chart",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "year",
					Description: "Year (default current)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "season",
					Description: "Season (default current)",
					Choices:     stringChoices("winter", "spring", "summer", "fall"),
				},
				limitOption(maxLimit),
				filterOption(),
			},
		},
		{
			Name:        cmdSchedule,
			Description: "Show anime airing on a weekday",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "day",
					Description: "Weekday (default today)",
					Choices:     stringChoices("monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"),
				},
				limitOption(maxLimit),
			},
		},
	}
}

// options is a name-indexed view of command options
type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func newOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func (o options) str(name string) string {
	if opt, ok := o[name]; ok && opt.Type == discordgo.ApplicationCommandOptionString {
		return strings.TrimSpace(opt.StringValue())
	}
	return ""
}

func (o options) integer(name string) int {
	if opt, ok := o[name]; ok && opt.Type == discordgo.ApplicationCommandOptionInteger {
		return int(opt.IntValue())
	}
	return 0
}

func (o options) kind() (mal.Kind, error) {
	s := o.str("kind")
	if s == "" {
		return mal.KindAnime, nil
	}
	return mal.ParseKind(s)
}

// commandService is the bot surface the adapter drives
type commandService interface {
	Search(ctx context.Context, req bot.SearchRequest) (*bot.Result, error)
	Info(ctx context.Context, kind mal.Kind, identifier string) (*bot.Result, error)
	Top(ctx context.Context, kind mal.Kind, rankingType mal.RankingType, limit int, filter string) (*bot.Result, error)
	Season(ctx context.Context, year int, season mal.Season, limit int, filter string) (*bot.Result, error)
	Schedule(ctx context.Context, day string, limit int) (*bot.Result, error)
	Start(ctx context.Context, owner string, result *bot.Result, target paginate.RenderTarget) (*paginate.Session, error)
	Navigate(ctx context.Context, sessionID, user string, dir paginate.Direction) (paginate.View, error)
}

var _ commandService = (*bot.Service)(nil)

// execute maps a slash command to its service call
func execute(ctx context.Context, svc commandService, name string, opts options) (*bot.Result, error) {
	switch name {
	case cmdSearch:
		kind, err := opts.kind()
		if err != nil {
			return nil, err
		}
		return svc.Search(ctx, bot.SearchRequest{
			Kind:   kind,
			Query:  opts.str("query"),
			Limit:  opts.integer("limit"),
			Filter: opts.str("filter"),
		})
	case cmdInfo:
		kind, err := opts.kind()
		if err != nil {
			return nil, err
		}
		return svc.Info(ctx, kind, opts.str("query"))
	case cmdTop:
		kind, err := opts.kind()
		if err != nil {
			return nil, err
		}
		rankingType, err := mal.ParseRankingType(kind, opts.str("type"))
		if err != nil {
			return nil, err
		}
		return svc.Top(ctx, kind, rankingType, opts.integer("limit"), opts.str("filter"))
	case cmdSeason:
		var season mal.Season
		if s := opts.str("season"); s != "" {
			parsed, err := mal.ParseSeason(s)
			if err != nil {
				return nil, err
			}
			season = parsed
		}
		return svc.Season(ctx, opts.integer("year"), season, opts.integer("limit"), opts.str("filter"))
	case cmdSchedule:
		return svc.Schedule(ctx, opts.str("day"), opts.integer("limit"))
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}
