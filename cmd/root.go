package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/anilumina/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger

	// Command flags
	filterExpr string
	preset     string
	kindFlag   string
	limitFlag  int
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "anilumina",
	Short: "A Discord bot for browsing MyAnimeList",
	Long: `anilumina is a Discord bot that answers anime and manga lookups from
MyAnimeList with paginated embeds. The same queries are available from the
command line for testing your configuration.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(testCmd)
}

// initializeApp loads the configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	if cfg.MAL.ClientID == "" {
		logger.Warn().Msg("MAL_CLIENT_ID is not set, MyAnimeList commands are disabled")
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format, colors only on a terminal
	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !tty,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to MyAnimeList",
	Long:  `Check that the configured MyAnimeList client id is accepted and show the effective settings.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Testing connection to MyAnimeList at %s...\n", cfg.MAL.BaseURL)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if err := a.service.TestConnection(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Println("✓ Connection successful!")

	fmt.Printf("\nSettings:\n")
	fmt.Printf("- Cache backend: %s (ttl %s)\n", cacheBackend(cfg.Cache.Backend), cfg.MAL.CacheTTL)
	fmt.Printf("- Max results: %d\n", cfg.MAL.MaxLimit)
	fmt.Printf("- Page size: %d\n", cfg.Display.PageSize)
	fmt.Printf("- Session timeout: %s (owner only: %s)\n", cfg.Session.TTL, boolToStatus(cfg.Session.OwnerOnly))
	fmt.Printf("- Discord token: %s\n", boolToStatus(cfg.Discord.Token != ""))

	if presets := a.filters.ListFilters(); len(presets) > 0 {
		fmt.Printf("\nFilter presets:\n")
		for _, name := range presets {
			fmt.Printf("  • %s: %s\n", name, cfg.Filter.Presets[name])
		}
	}

	return nil
}

func boolToStatus(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}

func cacheBackend(backend string) string {
	if backend == "" {
		return "memory"
	}
	return backend
}

// getFilterExpression determines the filter expression to use
func getFilterExpression() (string, error) {
	// Priority: command line filter > preset
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if _, ok := cfg.Filter.Presets[strings.ToLower(preset)]; ok {
			return "@" + preset, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return "", nil
}
