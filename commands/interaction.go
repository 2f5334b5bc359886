package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"PortalUtils/bot"
	"PortalUtils/paginator"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/language"
)

// Interaction wraps an application command interaction and remembers whether
// it has been acknowledged, so Send can pick between responding and following up.
type Interaction struct {
	*discordgo.InteractionCreate
	Bot     *bot.Bot
	Session *discordgo.Session
	Command *SlashCommand

	responded bool
	ephemeral bool
}

// Responded reports whether the interaction has been acknowledged.
func (it *Interaction) Responded() bool { return it.responded }

// User is the invoking user, in guilds and DMs alike.
func (it *Interaction) User() *discordgo.User {
	if it.Member != nil && it.Member.User != nil {
		return it.Member.User
	}
	return it.InteractionCreate.User
}

// Defer acknowledges the interaction with a "thinking" state. The first
// followup inherits the ephemeral flag chosen here.
func (it *Interaction) Defer(ephemeral bool) error {
	if it.responded {
		return nil
	}
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := it.Session.InteractionRespond(it.Interaction, resp); err != nil {
		return err
	}
	it.responded, it.ephemeral = true, ephemeral
	return nil
}

// Send responds with content, or follows up once the interaction is acknowledged.
func (it *Interaction) Send(content string, ephemeral bool) error {
	return it.send(content, nil, ephemeral)
}

// SendEmbed is Send with an embed.
func (it *Interaction) SendEmbed(e *discordgo.MessageEmbed, ephemeral bool) error {
	return it.send("", e, ephemeral)
}

func (it *Interaction) send(content string, e *discordgo.MessageEmbed, ephemeral bool) error {
	var embeds []*discordgo.MessageEmbed
	if e != nil {
		embeds = []*discordgo.MessageEmbed{e}
	}
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	if !it.responded {
		err := it.Session.InteractionRespond(it.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: content, Embeds: embeds, Flags: flags},
		})
		if err != nil {
			return err
		}
		it.responded, it.ephemeral = true, ephemeral
		return nil
	}

	_, err := it.Session.FollowupMessageCreate(it.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Embeds:  embeds,
		Flags:   flags,
	})
	return err
}

// SendPaginator defers the interaction if needed and sends p as a followup.
func (it *Interaction) SendPaginator(ctx context.Context, p *paginator.Paginator, ephemeral bool) (paginator.Message, error) {
	if err := it.Defer(ephemeral); err != nil {
		return nil, err
	}
	return it.Bot.Pages.Send(ctx, p, paginator.InteractionDestination{
		Session:     it.Session,
		Interaction: it.Interaction,
		Ephemeral:   ephemeral || it.ephemeral,
	})
}

// Locale parses the user's client locale, falling back to the guild locale.
func (it *Interaction) Locale() language.Tag {
	for _, l := range []string{string(it.Interaction.Locale), it.GuildLocaleString()} {
		if l == "" {
			continue
		}
		if tag, err := language.Parse(l); err == nil {
			return tag
		}
	}
	return language.Und
}

// GuildLocaleString is the guild locale, empty outside guilds.
func (it *Interaction) GuildLocaleString() string {
	if it.GuildLocale == nil {
		return ""
	}
	return string(*it.GuildLocale)
}

// Options flattens the command options, including subcommand options.
func (it *Interaction) Options() map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	var walk func(opts []*discordgo.ApplicationCommandInteractionDataOption)
	walk = func(opts []*discordgo.ApplicationCommandInteractionDataOption) {
		for _, o := range opts {
			switch o.Type {
			case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
				walk(o.Options)
			default:
				out[o.Name] = o
			}
		}
	}
	walk(it.ApplicationCommandData().Options)
	return out
}

// QualifiedName is the command name followed by any subcommand group and
// subcommand names.
func QualifiedName(data discordgo.ApplicationCommandInteractionData) string {
	parts := []string{data.Name}
	opts := data.Options
	for len(opts) == 1 && (opts[0].Type == discordgo.ApplicationCommandOptionSubCommand ||
		opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		parts = append(parts, opts[0].Name)
		opts = opts[0].Options
	}
	return strings.Join(parts, " ")
}

// FormatNamespace renders option values as "name=value" pairs sorted by name.
func FormatNamespace(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) string {
	names := make([]string, 0, len(opts))
	for name := range opts {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, fmt.Sprintf("%s=%v", name, opts[name].Value))
	}
	return "Namespace(" + strings.Join(pairs, ", ") + ")"
}
