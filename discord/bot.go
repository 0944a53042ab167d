package discord

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/s0up4200/anilumina/bot"
	"github.com/s0up4200/anilumina/paginate"
)

const defaultCommandTimeout = 15 * time.Second

// interactionSession is the slice of the discordgo session the handlers use
type interactionSession interface {
	messageEditor
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot connects the command service to the Discord gateway
type Bot struct {
	session  *discordgo.Session
	svc      commandService
	guildID  string
	maxLimit int
	timeout  time.Duration
	logger   zerolog.Logger
}

// Option configures a Bot
type Option func(*Bot)

// WithGuild registers commands to a single guild instead of globally
func WithGuild(guildID string) Option {
	return func(b *Bot) {
		b.guildID = guildID
	}
}

// WithMaxLimit sets the upper bound advertised on limit options
func WithMaxLimit(n int) Option {
	return func(b *Bot) {
		b.maxLimit = n
	}
}

// WithCommandTimeout bounds how long one interaction may take
func WithCommandTimeout(d time.Duration) Option {
	return func(b *Bot) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// New creates a bot for token. The gateway is not opened until Run.
func New(token string, svc *bot.Service, logger zerolog.Logger, opts ...Option) (*Bot, error) {
	if token == "" {
		return nil, errors.New("discord token is required")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session: session,
		svc:     svc,
		timeout: defaultCommandTimeout,
		logger:  logger.With().Str("component", "discord").Logger(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// Run opens the gateway and serves interactions until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}

	<-ctx.Done()

	b.logger.Info().Msg("Closing Discord gateway")
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("Connected to Discord")

	registered, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.guildID, Commands(b.maxLimit))
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to register slash commands")
		return
	}

	scope := "global"
	if b.guildID != "" {
		scope = "guild " + b.guildID
	}
	b.logger.Info().Int("commands", len(registered)).Str("scope", scope).Msg("Registered slash commands")
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	b.handleInteraction(ctx, s, i.Interaction)
}

// handleInteraction routes one interaction. Panics are recovered so the gateway keeps running.
func (b *Bot) handleInteraction(ctx context.Context, s interactionSession, i *discordgo.Interaction) {
	tracked := &ackTracker{interactionSession: s}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("event", "internal_render_failure").
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic in interaction handler")
			b.apologize(ctx, tracked, i)
		}
	}()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(ctx, tracked, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(ctx, tracked, i)
	}
}

// ackTracker records whether the interaction has been acknowledged
type ackTracker struct {
	interactionSession
	acked bool
}

func (t *ackTracker) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	err := t.interactionSession.InteractionRespond(interaction, resp, options...)
	if err == nil {
		t.acked = true
	}
	return err
}

// apologize tells the user a handler failed. An acknowledged interaction can
// only be answered through its response or a followup.
func (b *Bot) apologize(ctx context.Context, s *ackTracker, i *discordgo.Interaction) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Msg("Failed to send failure notice")
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	defer cancel()

	content := bot.MsgGeneric
	var err error
	switch {
	case !s.acked:
		err = s.interactionSession.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
		}, discordgo.WithContext(ctx))
	case i.Type == discordgo.InteractionMessageComponent:
		_, err = s.FollowupMessageCreate(i, false, &discordgo.WebhookParams{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		}, discordgo.WithContext(ctx))
	default:
		_, err = s.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(ctx))
	}
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to send failure notice")
	}
}

func (b *Bot) handleCommand(ctx context.Context, s interactionSession, i *discordgo.Interaction) {
	data := i.ApplicationCommandData()
	user := userID(i)

	if data.Name == cmdPing {
		b.respond(s, i, "Pong!", false)
		return
	}

	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	if err != nil {
		b.logger.Error().Err(err).Str("command", data.Name).Msg("Failed to acknowledge command")
		return
	}

	result, err := execute(ctx, b.svc, data.Name, newOptions(data.Options))
	if err != nil {
		b.logFailure(err, data.Name, user)
		content := bot.UserMessage(err)
		if _, editErr := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(ctx)); editErr != nil {
			b.logger.Error().Err(editErr).Str("command", data.Name).Msg("Failed to send error reply")
		}
		return
	}

	first := result.Pages[0]
	footer := ""
	if result.Paginated() {
		footer = first.Footer()
	}
	embeds := []*discordgo.MessageEmbed{PageEmbed(first, footer)}

	msg, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{Embeds: &embeds}, discordgo.WithContext(ctx))
	if err != nil {
		b.logger.Error().Err(err).Str("command", data.Name).Msg("Failed to send result")
		return
	}

	b.logger.Debug().
		Str("command", data.Name).
		Str("user", user).
		Int("records", len(result.Records)).
		Int("pages", len(result.Pages)).
		Msg("Command handled")

	if !result.Paginated() {
		return
	}

	target := newMessageTarget(s, msg.ChannelID, msg.ID)
	session, err := b.svc.Start(ctx, user, result, target)
	if err != nil {
		b.logger.Error().Err(err).Str("command", data.Name).Msg("Failed to start pagination session")
		return
	}

	// Second edit attaches the buttons, which need the session id
	if err := target.Render(ctx, session.View()); err != nil {
		b.logger.Error().Err(err).Str("session", session.ID()).Msg("Failed to attach pagination buttons")
	}
}

func (b *Bot) handleComponent(ctx context.Context, s interactionSession, i *discordgo.Interaction) {
	data := i.MessageComponentData()
	user := userID(i)

	sessionID, dir, err := ParseCustomID(data.CustomID)
	if err != nil {
		b.logger.Debug().Err(err).Msg("Ignoring unknown component")
		return
	}

	err = s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx))
	if err != nil {
		b.logger.Error().Err(err).Str("session", sessionID).Msg("Failed to acknowledge button")
		return
	}

	if _, err := b.svc.Navigate(ctx, sessionID, user, dir); err != nil {
		b.logFailure(err, "navigate:"+dir.String(), user)

		// The registry no longer knows this session, so nothing else will disable its buttons
		if errors.Is(err, paginate.ErrNotFound) && i.Message != nil {
			b.clearComponents(ctx, s, i.Message)
		}

		content := bot.UserMessage(err)
		params := &discordgo.WebhookParams{Content: content}
		if bot.Ephemeral(err) {
			params.Flags = discordgo.MessageFlagsEphemeral
		}
		if _, err := s.FollowupMessageCreate(i, false, params, discordgo.WithContext(ctx)); err != nil {
			b.logger.Error().Err(err).Str("session", sessionID).Msg("Failed to send navigation notice")
		}
	}
}

func (b *Bot) clearComponents(ctx context.Context, s messageEditor, msg *discordgo.Message) {
	components := []discordgo.MessageComponent{}
	_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         msg.ID,
		Channel:    msg.ChannelID,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		b.logger.Warn().Err(err).Str("message", msg.ID).Msg("Failed to remove stale buttons")
	}
}

func (b *Bot) respond(s interactionSession, i *discordgo.Interaction, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to respond to interaction")
	}
}

func (b *Bot) logFailure(err error, command, user string) {
	b.logger.WithLevel(bot.LogLevel(err)).
		Err(err).
		Str("command", command).
		Str("user", user).
		Msg("Command failed")
}

func userID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
