package bot

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/s0up4200/anilumina/filter"
	"github.com/s0up4200/anilumina/mal"
	"github.com/s0up4200/anilumina/paginate"
)

// User-facing messages
const (
	MsgNotConfigured = "This command is unavailable: the anime database is not configured."
	MsgMisconfigured = "The service is misconfigured. Please let the bot owner know."
	MsgRateLimited   = "MyAnimeList is busy right now. Please try again shortly."
	MsgNoResults     = "No results found."
	MsgUnavailable   = "MyAnimeList could not be reached. Please try again in a moment."
	MsgExpired       = "This result has expired. Run the command again to keep browsing."
	MsgNotOwner      = "Only the person who ran this command can change pages."
	MsgGeneric       = "Sorry, something went wrong while handling that command."
)

// UserMessage returns the text shown to the user for err
func UserMessage(err error) string {
	var compErr *filter.CompilationError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, mal.ErrMissingClientID):
		return MsgNotConfigured
	case errors.Is(err, mal.ErrUnauthorized):
		return MsgMisconfigured
	case errors.Is(err, mal.ErrRateLimited):
		return MsgRateLimited
	case errors.Is(err, mal.ErrNotFound):
		return MsgNoResults
	case errors.Is(err, mal.ErrInvalidArgument):
		return "Invalid input: " + err.Error()
	case errors.Is(err, mal.ErrBadRequest):
		var apiErr *mal.APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			return "MyAnimeList rejected the request: " + apiErr.Detail
		}
		return "MyAnimeList rejected the request."
	case errors.Is(err, mal.ErrTransient):
		return MsgUnavailable
	case errors.Is(err, paginate.ErrExpired), errors.Is(err, paginate.ErrNotFound):
		return MsgExpired
	case errors.Is(err, paginate.ErrNotOwner):
		return MsgNotOwner
	case errors.As(err, &compErr):
		return "Invalid filter: " + compErr.Expression
	case errors.Is(err, filter.ErrUnknownPreset):
		return "Invalid filter: " + err.Error()
	default:
		return MsgGeneric
	}
}

// LogLevel returns the level err should be logged at
func LogLevel(err error) zerolog.Level {
	var compErr *filter.CompilationError

	switch {
	case err == nil:
		return zerolog.DebugLevel
	case errors.Is(err, mal.ErrUnauthorized):
		return zerolog.ErrorLevel
	case errors.Is(err, mal.ErrRateLimited), errors.Is(err, mal.ErrTransient):
		return zerolog.WarnLevel
	case errors.Is(err, mal.ErrMissingClientID):
		return zerolog.InfoLevel
	case errors.Is(err, mal.ErrNotFound),
		errors.Is(err, mal.ErrInvalidArgument),
		errors.Is(err, mal.ErrBadRequest),
		errors.Is(err, paginate.ErrExpired),
		errors.Is(err, paginate.ErrNotFound),
		errors.Is(err, paginate.ErrNotOwner),
		errors.Is(err, filter.ErrUnknownPreset),
		errors.As(err, &compErr):
		return zerolog.DebugLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Ephemeral reports whether the message for err should only be shown to the acting user
func Ephemeral(err error) bool {
	return errors.Is(err, paginate.ErrExpired) ||
		errors.Is(err, paginate.ErrNotFound) ||
		errors.Is(err, paginate.ErrNotOwner)
}
