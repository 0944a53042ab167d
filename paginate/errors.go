package paginate

import "errors"

// Common errors
var (
	// ErrExpired indicates the session timed out; the event must be acknowledged without re-rendering
	ErrExpired = errors.New("pagination session expired")
	// ErrNotOwner indicates a user other than the session owner tried to navigate
	ErrNotOwner = errors.New("only the user who ran the command can change pages")
	// ErrNotFound indicates the session id is unknown, usually because it was swept or evicted
	ErrNotFound = errors.New("pagination session not found")
	// ErrNoPages indicates a session was requested for an empty result
	ErrNoPages = errors.New("no pages to paginate")
	// ErrRender indicates the render target failed to update the output
	ErrRender = errors.New("failed to render page")
)
