package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/anilumina/bot"
	"github.com/s0up4200/anilumina/mal"
	"github.com/s0up4200/anilumina/render"
)

const queryTimeout = 30 * time.Second

var (
	offsetFlag  int
	rankingFlag string
	seasonFlag  string
	yearFlag    int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search MyAnimeList",
	Long: `Search anime, manga, characters, people or studios by title or keyword.

Examples:
  anilumina search naruto
  anilumina search berserk --kind manga --limit 5
  anilumina search "one piece" --filter 'Score >= 8'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <id|title>",
	Short: "Show details for one title",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInfo,
}

// topCmd represents the top command
var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show a MyAnimeList ranking",
	RunE:  runTop,
}

// seasonCmd represents the season command
var seasonCmd = &cobra.Command{
	Use:   "season",
	Short: "Show a seasonal anime chart (default current season)",
	RunE:  runSeason,
}

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule [day]",
	Short: "Show anime airing on a weekday (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSchedule,
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&limitFlag, "limit", "l", 0, "number of results (default max_limit)")
	cmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
}

func init() {
	searchCmd.Flags().StringVarP(&kindFlag, "kind", "k", "anime", "anime, manga, character, person or studio")
	searchCmd.Flags().IntVar(&offsetFlag, "offset", 0, "skip this many results")
	addListFlags(searchCmd)

	infoCmd.Flags().StringVarP(&kindFlag, "kind", "k", "anime", "anime or manga")

	topCmd.Flags().StringVarP(&kindFlag, "kind", "k", "anime", "anime or manga")
	topCmd.Flags().StringVarP(&rankingFlag, "type", "t", "all", "ranking type, e.g. airing, movie, bypopularity")
	addListFlags(topCmd)

	seasonCmd.Flags().IntVarP(&yearFlag, "year", "y", 0, "year (default current)")
	seasonCmd.Flags().StringVarP(&seasonFlag, "season", "s", "", "winter, spring, summer or fall (default current)")
	addListFlags(seasonCmd)

	scheduleCmd.Flags().IntVarP(&limitFlag, "limit", "l", 0, "number of results (default max_limit)")

	rootCmd.AddCommand(searchCmd, infoCmd, topCmd, seasonCmd, scheduleCmd)
}

// withService runs fn against a freshly wired service and prints its result
func withService(cmd *cobra.Command, detail bool, fn func(ctx context.Context, svc *bot.Service) (*bot.Result, error)) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	result, err := fn(ctx, a.service)
	if err != nil {
		logger.WithLevel(bot.LogLevel(err)).Err(err).Str("command", cmd.Name()).Msg("Query failed")
		return fmt.Errorf("%s", bot.UserMessage(err))
	}

	formatter := render.NewConsoleFormatter(cfg.Display.ShowLinks)
	if detail {
		fmt.Print(formatter.FormatDetail(result.Pages[0]))
		return nil
	}
	fmt.Print(formatter.FormatPages(result.Pages))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	kind, err := mal.ParseKind(kindFlag)
	if err != nil {
		return err
	}
	spec, err := getFilterExpression()
	if err != nil {
		return err
	}

	return withService(cmd, false, func(ctx context.Context, svc *bot.Service) (*bot.Result, error) {
		return svc.Search(ctx, bot.SearchRequest{
			Kind:   kind,
			Query:  strings.Join(args, " "),
			Limit:  limitFlag,
			Offset: offsetFlag,
			Filter: spec,
		})
	})
}

func runInfo(cmd *cobra.Command, args []string) error {
	kind, err := mal.ParseKind(kindFlag)
	if err != nil {
		return err
	}

	return withService(cmd, true, func(ctx context.Context, svc *bot.Service) (*bot.Result, error) {
		return svc.Info(ctx, kind, strings.Join(args, " "))
	})
}

func runTop(cmd *cobra.Command, args []string) error {
	kind, err := mal.ParseKind(kindFlag)
	if err != nil {
		return err
	}
	rankingType, err := mal.ParseRankingType(kind, rankingFlag)
	if err != nil {
		return err
	}
	spec, err := getFilterExpression()
	if err != nil {
		return err
	}

	return withService(cmd, false, func(ctx context.Context, svc *bot.Service) (*bot.Result, error) {
		return svc.Top(ctx, kind, rankingType, limitFlag, spec)
	})
}

func runSeason(cmd *cobra.Command, args []string) error {
	var season mal.Season
	if seasonFlag != "" {
		parsed, err := mal.ParseSeason(seasonFlag)
		if err != nil {
			return err
		}
		season = parsed
	}
	spec, err := getFilterExpression()
	if err != nil {
		return err
	}

	return withService(cmd, false, func(ctx context.Context, svc *bot.Service) (*bot.Result, error) {
		return svc.Season(ctx, yearFlag, season, limitFlag, spec)
	})
}

func runSchedule(cmd *cobra.Command, args []string) error {
	day := ""
	if len(args) > 0 {
		day = args[0]
	}

	return withService(cmd, false, func(ctx context.Context, svc *bot.Service) (*bot.Result, error) {
		return svc.Schedule(ctx, day, limitFlag)
	})
}
