// Package render turns catalog records into display cards and fixed-size pages.
//
// Everything here is a pure function of its input: rendering the same records
// twice produces identical pages, which is what lets pagination sessions
// re-render a page on every navigation event.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/s0up4200/anilumina/mal"
)

const (
	// DefaultPageSize is the number of cards per page
	DefaultPageSize = 5
	// Color is the accent color used for embeds
	Color = 0x1F8B4C

	maxHeaderRunes   = 120
	maxTitleRunes    = 80
	maxSynopsisRunes = 400
	emptyMeta        = "—"
	metaSeparator    = " • "
)

// Card is one rendered record
type Card struct {
	Position    int
	Title       string
	URL         string
	Thumbnail   string
	Description string
	Meta        string
	Started     string
}

// Heading returns the numbered card title, e.g. "3. Naruto"
func (c Card) Heading() string {
	if c.Position <= 0 {
		return c.Title
	}
	return fmt.Sprintf("%d. %s", c.Position, c.Title)
}

// Body returns the card text shown under the heading
func (c Card) Body() string {
	var lines []string
	if c.URL != "" {
		lines = append(lines, fmt.Sprintf("[Open on MAL](%s)", c.URL))
	}
	if c.Meta != "" {
		lines = append(lines, c.Meta)
	}
	if c.Started != "" {
		lines = append(lines, "Started: "+c.Started)
	}
	if len(lines) == 0 {
		return "\u200b"
	}
	return strings.Join(lines, "\n")
}

// NewCard renders rec at the given 1-based position
func NewCard(position int, rec mal.Record) Card {
	return Card{
		Position:    position,
		Title:       Truncate(rec.Title, maxTitleRunes),
		URL:         rec.URL,
		Thumbnail:   rec.ThumbnailURL,
		Description: Truncate(rec.Synopsis, maxSynopsisRunes),
		Meta:        Meta(rec),
		Started:     rec.StartDate,
	}
}

// Meta returns the one-line summary of score, rank, count and status,
// e.g. "⭐ 8.5 • #12 • EP: 24 • Finished Airing"
func Meta(rec mal.Record) string {
	var parts []string
	if rec.Score != nil {
		parts = append(parts, "⭐ "+FormatScore(*rec.Score))
	}
	if rec.Rank != nil && *rec.Rank > 0 {
		parts = append(parts, "#"+strconv.Itoa(*rec.Rank))
	}
	if rec.Count != nil && *rec.Count > 0 {
		label := "EP"
		if rec.Kind == mal.KindManga {
			label = "CH"
		}
		parts = append(parts, fmt.Sprintf("%s: %d", label, *rec.Count))
	}
	if rec.Status != "" {
		parts = append(parts, rec.Status.Label())
	}
	if len(parts) == 0 {
		return emptyMeta
	}
	return strings.Join(parts, metaSeparator)
}

// FormatScore prints a score with the shortest exact representation
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// Truncate shortens s to at most n runes, ending with an ellipsis when cut
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:n-1]), isSpace) + "…"
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
