package paginator

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

// ChannelDestination sends paginated messages to a Discord channel.
type ChannelDestination struct {
	Session   *discordgo.Session
	ChannelID string
}

// Send posts c as a new message in the channel.
func (d ChannelDestination) Send(ctx context.Context, c Content) (Message, error) {
	data := &discordgo.MessageSend{
		Content:    c.Text,
		Components: c.Components,
	}
	if c.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{c.Embed}
	}

	m, err := d.Session.ChannelMessageSendComplex(d.ChannelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &discordMessage{session: d.Session, channelID: m.ChannelID, id: m.ID}, nil
}

// InteractionDestination sends paginated messages as a followup to an
// interaction that has already been acknowledged (for example deferred).
type InteractionDestination struct {
	Session     *discordgo.Session
	Interaction *discordgo.Interaction
	Ephemeral   bool
}

// Send posts c as a followup of the interaction.
func (d InteractionDestination) Send(ctx context.Context, c Content) (Message, error) {
	params := &discordgo.WebhookParams{
		Content:    c.Text,
		Components: c.Components,
	}
	if c.Embed != nil {
		params.Embeds = []*discordgo.MessageEmbed{c.Embed}
	}
	if d.Ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}

	m, err := d.Session.FollowupMessageCreate(d.Interaction, true, params, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if d.Ephemeral {
		// ephemeral followups can only be edited through the interaction webhook
		return &followupMessage{session: d.Session, interaction: d.Interaction, id: m.ID}, nil
	}
	return &discordMessage{session: d.Session, channelID: m.ChannelID, id: m.ID}, nil
}

type discordMessage struct {
	session   *discordgo.Session
	channelID string
	id        string
}

func (m *discordMessage) Edit(ctx context.Context, c Content) error {
	edit := discordgo.NewMessageEdit(m.channelID, m.id).SetContent(c.Text)
	if c.Embed != nil {
		edit.SetEmbed(c.Embed)
	}
	components := c.Components
	edit.Components = &components

	_, err := m.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return translateEditError(err)
}

type followupMessage struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
	id          string
}

func (m *followupMessage) Edit(ctx context.Context, c Content) error {
	components := c.Components
	params := &discordgo.WebhookEdit{
		Content:    &c.Text,
		Components: &components,
	}
	if c.Embed != nil {
		params.Embeds = &[]*discordgo.MessageEmbed{c.Embed}
	}

	_, err := m.session.FollowupMessageEdit(m.interaction, m.id, params, discordgo.WithContext(ctx))
	return translateEditError(err)
}

// translateEditError maps Discord's "Unknown Message" to ErrMessageGone and
// leaves every other error untouched.
func translateEditError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
			return errors.Join(ErrMessageGone, err)
		}
	}
	return err
}
