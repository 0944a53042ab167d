package render

import (
	"fmt"
	"strings"

	"github.com/s0up4200/anilumina/mal"
)

// Page is one screen of a result set. Pages are values and never mutated after BuildPages.
type Page struct {
	Title       string
	URL         string
	Description string
	Thumbnail   string
	Cards       []Card
	// Fields holds labelled values for detail pages.
	Fields []Field
	Index  int
	Total  int
}

// Field is a labelled value on a detail page
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Footer returns the page indicator, e.g. "Page 2/3"
func (p Page) Footer() string {
	return Footer(p.Index, p.Total)
}

// Footer formats a zero-based index as "Page X/N"
func Footer(index, total int) string {
	if total < 1 {
		total = 1
	}
	return fmt.Sprintf("Page %d/%d", index+1, total)
}

// Chunk splits records into consecutive groups of at most size
func Chunk(records []mal.Record, size int) [][]mal.Record {
	if size <= 0 {
		size = DefaultPageSize
	}
	chunks := make([][]mal.Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

// BuildPages renders records into pages of at most size cards. An empty result
// produces a single page carrying the empty-state description.
func BuildPages(title string, records []mal.Record, size int) []Page {
	header := Truncate(title, maxHeaderRunes)

	if len(records) == 0 {
		return []Page{{
			Title:       header,
			Description: "No results found.",
			Total:       1,
		}}
	}

	chunks := Chunk(records, size)
	description := fmt.Sprintf("Top %d results from MyAnimeList", len(records))
	pages := make([]Page, len(chunks))
	position := 1

	for i, chunk := range chunks {
		cards := make([]Card, len(chunk))
		for j, rec := range chunk {
			cards[j] = NewCard(position, rec)
			position++
		}

		pages[i] = Page{
			Title:       header,
			Description: description,
			Thumbnail:   cards[0].Thumbnail,
			Cards:       cards,
			Index:       i,
			Total:       len(chunks),
		}
	}

	return pages
}

// Detail renders a single record as a page of labelled fields
func Detail(rec mal.Record) Page {
	var lines []string
	if rec.Score != nil {
		lines = append(lines, "**Score:** "+FormatScore(*rec.Score))
	}
	if rec.Rank != nil && *rec.Rank > 0 {
		lines = append(lines, fmt.Sprintf("**Rank:** #%d", *rec.Rank))
	}
	if rec.Count != nil && *rec.Count > 0 {
		lines = append(lines, fmt.Sprintf("**%s:** %d", rec.CountLabel(), *rec.Count))
	}
	if rec.Volumes != nil && *rec.Volumes > 0 {
		lines = append(lines, fmt.Sprintf("**Volumes:** %d", *rec.Volumes))
	}
	if rec.Status != "" {
		lines = append(lines, "**Status:** "+rec.Status.Label())
	}
	if rec.StartDate != "" {
		lines = append(lines, "**Started:** "+rec.StartDate)
	}

	page := Page{
		Title:       Truncate(rec.Title, maxHeaderRunes),
		URL:         rec.URL,
		Description: strings.Join(lines, "\n"),
		Thumbnail:   rec.ThumbnailURL,
		Total:       1,
	}

	if rec.MediaType != "" {
		page.Fields = append(page.Fields, Field{Name: "Type", Value: strings.ToUpper(rec.MediaType), Inline: true})
	}
	if len(rec.Genres) > 0 {
		page.Fields = append(page.Fields, Field{Name: "Genres", Value: strings.Join(rec.Genres, ", "), Inline: true})
	}
	if len(rec.Studios) > 0 {
		page.Fields = append(page.Fields, Field{Name: "Studios", Value: strings.Join(rec.Studios, ", "), Inline: true})
	}
	if rec.Synopsis != "" {
		page.Fields = append(page.Fields, Field{Name: "Synopsis", Value: Truncate(rec.Synopsis, maxSynopsisRunes)})
	}

	return page
}
