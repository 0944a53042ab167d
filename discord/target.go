package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/s0up4200/anilumina/paginate"
)

// messageEditor is the slice of the discordgo session a message target needs
type messageEditor interface {
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// messageTarget renders a pagination session into a sent message
type messageTarget struct {
	editor    messageEditor
	channelID string
	messageID string
}

var _ paginate.RenderTarget = (*messageTarget)(nil)

func newMessageTarget(editor messageEditor, channelID, messageID string) *messageTarget {
	return &messageTarget{
		editor:    editor,
		channelID: channelID,
		messageID: messageID,
	}
}

// Render replaces the message embed and buttons with the view
func (t *messageTarget) Render(ctx context.Context, v paginate.View) error {
	return t.edit(ctx, v)
}

// Disable re-renders the view with every button disabled
func (t *messageTarget) Disable(ctx context.Context, v paginate.View) error {
	v.Expired = true
	return t.edit(ctx, v)
}

func (t *messageTarget) edit(ctx context.Context, v paginate.View) error {
	embeds := []*discordgo.MessageEmbed{ViewEmbed(v)}
	components := NavComponents(v)

	_, err := t.editor.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         t.messageID,
		Channel:    t.channelID,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to edit message %s: %w", t.messageID, err)
	}
	return nil
}
