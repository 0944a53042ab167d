package render

import (
	"fmt"
	"strings"
)

// ConsoleFormatter renders pages as tree-style text for the CLI
type ConsoleFormatter struct {
	// ShowLinks prints the MyAnimeList URL under each entry
	ShowLinks bool
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(showLinks bool) *ConsoleFormatter {
	return &ConsoleFormatter{ShowLinks: showLinks}
}

// FormatPage formats one page of cards
func (f *ConsoleFormatter) FormatPage(page Page) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\n%s\n", page.Title)
	if page.Description != "" {
		fmt.Fprintf(&sb, "%s\n", page.Description)
	}
	sb.WriteString("\n")

	for i, card := range page.Cards {
		isLast := i == len(page.Cards)-1
		f.formatCard(&sb, card, isLast)

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	if len(page.Cards) > 0 {
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "%s\n", page.Footer())
	return sb.String()
}

// FormatPages formats every page in order
func (f *ConsoleFormatter) FormatPages(pages []Page) string {
	var sb strings.Builder
	for _, page := range pages {
		sb.WriteString(f.FormatPage(page))
	}
	return sb.String()
}

// FormatDetail formats a detail page
func (f *ConsoleFormatter) FormatDetail(page Page) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\n%s\n", page.Title)
	if f.ShowLinks && page.URL != "" {
		fmt.Fprintf(&sb, "%s\n", page.URL)
	}
	sb.WriteString("\n")

	for _, line := range strings.Split(page.Description, "\n") {
		if line == "" {
			continue
		}
		fmt.Fprintf(&sb, "%s\n", strings.ReplaceAll(line, "**", ""))
	}

	for i, field := range page.Fields {
		isLast := i == len(page.Fields)-1
		prefix := "├"
		indent := "│   "
		if isLast {
			prefix = "╰"
			indent = "    "
		}

		if i == 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s── %s\n", prefix, field.Name)
		for _, line := range strings.Split(field.Value, "\n") {
			fmt.Fprintf(&sb, "%s%s\n", indent, line)
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// formatCard formats a single card entry
func (f *ConsoleFormatter) formatCard(sb *strings.Builder, card Card, isLast bool) {
	prefix := "├"
	if isLast {
		prefix = "╰"
	}

	fmt.Fprintf(sb, "%s── %s\n", prefix, card.Heading())

	indent := "│   "
	if isLast {
		indent = "    "
	}

	if card.Meta != "" {
		fmt.Fprintf(sb, "%s%s\n", indent, card.Meta)
	}
	if card.Started != "" {
		fmt.Fprintf(sb, "%sStarted: %s\n", indent, card.Started)
	}
	if f.ShowLinks && card.URL != "" {
		fmt.Fprintf(sb, "%s%s\n", indent, card.URL)
	}
}
