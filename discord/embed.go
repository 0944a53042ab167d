package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/s0up4200/anilumina/paginate"
	"github.com/s0up4200/anilumina/render"
)

const (
	labelPrev = "◀ Prev"
	labelNext = "Next ▶"
)

// PageEmbed renders one page as an embed with one field per card
func PageEmbed(page render.Page, footer string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       page.Title,
		URL:         page.URL,
		Description: page.Description,
		Color:       render.Color,
	}

	if page.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: page.Thumbnail}
	}

	for _, card := range page.Cards {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  card.Heading(),
			Value: card.Body(),
		})
	}
	for _, f := range page.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}

	if footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	}

	return embed
}

// ViewEmbed renders the current page of a session view
func ViewEmbed(v paginate.View) *discordgo.MessageEmbed {
	footer := v.Footer()
	if v.Expired {
		footer += " • expired"
	}
	return PageEmbed(v.Page, footer)
}

// NavComponents returns the Prev/Next button row for a view. Buttons at the
// ends of the result, and all buttons of an expired view, are disabled.
func NavComponents(v paginate.View) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    labelPrev,
					Style:    discordgo.SecondaryButton,
					CustomID: FormatCustomID(v.SessionID, paginate.Prev),
					Disabled: v.Expired || !v.HasPrev,
				},
				discordgo.Button{
					Label:    labelNext,
					Style:    discordgo.SecondaryButton,
					CustomID: FormatCustomID(v.SessionID, paginate.Next),
					Disabled: v.Expired || !v.HasNext,
				},
			},
		},
	}
}
