package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/s0up4200/anilumina/paginate"
)

const customIDPrefix = "page"

// ErrInvalidCustomID is returned for component ids this bot did not create
var ErrInvalidCustomID = errors.New("invalid pagination custom id")

// FormatCustomID builds the button id "page:<session>:<next|prev>"
func FormatCustomID(sessionID string, dir paginate.Direction) string {
	return fmt.Sprintf("%s:%s:%s", customIDPrefix, sessionID, dir)
}

// ParseCustomID splits a pagination button id into its session and direction
func ParseCustomID(id string) (string, paginate.Direction, error) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 || parts[0] != customIDPrefix || parts[1] == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidCustomID, id)
	}

	dir, err := paginate.ParseDirection(parts[2])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidCustomID, err)
	}

	return parts[1], dir, nil
}
