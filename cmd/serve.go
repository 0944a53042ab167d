package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/anilumina/discord"
	"github.com/s0up4200/anilumina/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Discord bot",
	Long: `Connect to Discord and answer slash commands until interrupted.

A health endpoint is served on PORT (/, /health) together with Prometheus
metrics on /metrics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := discord.New(cfg.Discord.Token, a.service, logger,
		discord.WithGuild(cfg.Discord.DevGuildID),
		discord.WithMaxLimit(cfg.MAL.MaxLimit),
	)
	if err != nil {
		return fmt.Errorf("failed to create discord bot: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("version", version).
		Str("addr", cfg.Addr()).
		Bool("mal_configured", a.client.Configured()).
		Msg("Starting anilumina")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.New(cfg.Addr(), a.registry, logger).Run(ctx)
	})

	g.Go(func() error {
		return b.Run(ctx)
	})

	g.Go(func() error {
		a.sessions.Run(ctx, cfg.Session.SweepInterval)
		return nil
	})

	if a.memory != nil {
		g.Go(func() error {
			a.memory.RunSweeper(ctx, cfg.Cache.SweepInterval)
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}
