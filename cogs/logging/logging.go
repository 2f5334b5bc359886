package logging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"PortalUtils/bot"
	"PortalUtils/commands"

	"github.com/bwmarrin/discordgo"
)

// Cog posts guild join/leave and command usage embeds to the configured log
// channels. A listener whose channel is unset is never registered, and one
// whose channel turns out to be unreachable switches itself off.
type Cog struct {
	commands.Base

	guildsMu sync.Mutex
	guilds   map[string]bool

	guildLogsOff   atomic.Bool
	commandLogsOff atomic.Bool
}

// New creates the logging cog.
func New() *Cog {
	return &Cog{guilds: make(map[string]bool)}
}

func (c *Cog) Name() string { return "Logging" }

func (c *Cog) Load(reg *commands.Registry) error {
	c.Bot = reg.Bot

	if enabled(c.Bot.Config.GuildLogs) {
		c.Bot.Client.AddHandler(c.onReady)
		c.Bot.Client.AddHandler(c.onGuildCreate)
		c.Bot.Client.AddHandler(c.onGuildDelete)
	}
	if enabled(c.Bot.Config.CommandLogs) {
		reg.Router.OnCommand(c.commandLogs)
	}

	return reg.AddCommand(&commands.Command{
		Name:        "schema",
		Description: "Shows the database schema",
		Params:      []string{"tables"},
		Hidden:      true,
		Checks:      []commands.Check{commands.OwnerOnly},
		Handler:     c.schema,
	})
}

func enabled(channelID string) bool {
	return channelID != "" && channelID != "0"
}

func (c *Cog) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	c.guildsMu.Lock()
	defer c.guildsMu.Unlock()
	for _, g := range r.Guilds {
		c.guilds[g.ID] = true
	}
}

// markJoined records guildID and reports whether it is new to this session.
func (c *Cog) markJoined(guildID string) bool {
	c.guildsMu.Lock()
	defer c.guildsMu.Unlock()
	if c.guilds[guildID] {
		return false
	}
	c.guilds[guildID] = true
	return true
}

func (c *Cog) markLeft(guildID string) {
	c.guildsMu.Lock()
	defer c.guildsMu.Unlock()
	delete(c.guilds, guildID)
}

func (c *Cog) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if !c.markJoined(g.ID) {
		return
	}
	c.guildLogs(s, g.Guild, true)
}

func (c *Cog) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		return // outage, not a removal
	}
	c.markLeft(g.ID)
	guild := g.Guild
	if g.BeforeDelete != nil {
		guild = g.BeforeDelete
	}
	c.guildLogs(s, guild, false)
}

func (c *Cog) guildLogs(s *discordgo.Session, g *discordgo.Guild, joined bool) {
	if c.guildLogsOff.Load() {
		return
	}

	owner := c.owner(s, g)
	membersIntent := s.Identify.Intents&discordgo.IntentsGuildMembers != 0
	embed := GuildEmbed(g, owner, joined, membersIntent, len(s.State.Guilds))

	if _, err := s.ChannelMessageSendEmbed(c.Bot.Config.GuildLogs, embed); err != nil {
		c.sendFailed(err, &c.guildLogsOff, "guild")
	}
}

func (c *Cog) owner(s *discordgo.Session, g *discordgo.Guild) *discordgo.User {
	if g.OwnerID == "" {
		return nil
	}
	if m, err := s.State.Member(g.ID, g.OwnerID); err == nil && m.User != nil {
		return m.User
	}
	u, err := s.User(g.OwnerID)
	if err != nil {
		c.Bot.Log.Debug().Err(err).Str("guild_id", g.ID).Msg("Error fetching guild owner")
		return &discordgo.User{ID: g.OwnerID}
	}
	return u
}

func (c *Cog) commandLogs(ctx *commands.Context) {
	if c.commandLogsOff.Load() || ctx.Command.Hidden {
		return
	}

	entry := CommandLog{
		User:      ctx.Author(),
		GuildID:   ctx.Message.GuildID,
		ChannelID: ctx.Message.ChannelID,
		MessageID: ctx.Message.ID,
		JumpURL:   ctx.JumpURL(),
		Command:   strings.TrimSpace(ctx.InvokedCommand() + " " + strings.Join(ctx.NamedArgs(), " ")),
	}
	if ctx.Message.GuildID != "" {
		if g, err := ctx.Session.State.Guild(ctx.Message.GuildID); err == nil {
			entry.GuildName = g.Name
		}
		if ch, err := ctx.Session.State.Channel(ctx.Message.ChannelID); err == nil {
			entry.ChannelName = ch.Name
		}
	}

	if _, err := ctx.Session.ChannelMessageSendEmbed(c.Bot.Config.CommandLogs, entry.Embed()); err != nil {
		c.sendFailed(err, &c.commandLogsOff, "command")
	}
}

// sendFailed logs err and switches the listener off when the channel is gone
// or inaccessible.
func (c *Cog) sendFailed(err error, off *atomic.Bool, kind string) {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeMissingAccess:
			off.Store(true)
			c.Bot.Log.Warn().Err(err).Str("kind", kind).Msg("Log channel unavailable, disabling logs")
			return
		}
	}
	c.Bot.Log.Error().Err(err).Str("kind", kind).Msg("Error sending log embed")
}

func (c *Cog) schema(ctx *commands.Context) error {
	out, err := c.Bot.DBSchema(context.Background(), ctx.Args...)
	if errors.Is(err, bot.ErrNoDatabase) {
		_, err = ctx.Send("Bot has no active DB connection")
		return err
	}
	if err != nil {
		return err
	}
	_, err = ctx.Send(out)
	return err
}

// GuildEmbed describes a guild the bot joined or left.
func GuildEmbed(g *discordgo.Guild, owner *discordgo.User, joined, membersIntent bool, totalGuilds int) *discordgo.MessageEmbed {
	title, color := "Left Server", bot.ColorRed
	if joined {
		title, color = "Joined Server", bot.ColorGreen
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Guild Name: `%s`\nGuild ID: `%s`\n", g.Name, g.ID)
	if owner != nil {
		fmt.Fprintf(&b, "Owner: `%s` (`%s`)\n", owner.String(), owner.ID)
	} else {
		fmt.Fprintf(&b, "Owner: `unknown` (`%s`)\n", g.OwnerID)
	}
	if membersIntent {
		humans, bots := 0, 0
		for _, m := range g.Members {
			if m.User != nil && m.User.Bot {
				bots++
			} else {
				humans++
			}
		}
		fmt.Fprintf(&b, "Humans: `%d`\nBots: `%d`\n", humans, bots)
	}
	fmt.Fprintf(&b, "Total Guilds: `%d`", totalGuilds)

	return &discordgo.MessageEmbed{Title: title, Color: color, Description: b.String()}
}

// CommandLog is one prefix command invocation as shown in the command logs.
type CommandLog struct {
	User        *discordgo.User
	GuildName   string
	GuildID     string
	ChannelName string
	ChannelID   string
	MessageID   string
	JumpURL     string
	Command     string
}

// Embed renders the entry for the command log channel.
func (l CommandLog) Embed() *discordgo.MessageEmbed {
	var b strings.Builder
	if l.User != nil {
		fmt.Fprintf(&b, "User: `%s` (`%s`)\n", l.User.String(), l.User.ID)
	}
	if l.GuildID != "" {
		fmt.Fprintf(&b, "Guild: `%s` (`%s`)\n", l.GuildName, l.GuildID)
		fmt.Fprintf(&b, "Channel: `%s` (`%s`)\n", l.ChannelName, l.ChannelID)
	} else {
		b.WriteString("Guild: `None`\n")
		fmt.Fprintf(&b, "Channel: `DM or Slash-Only Context` (`%s`)\n", l.ChannelID)
	}
	fmt.Fprintf(&b, "Message: [`%s`](%s)\n", l.MessageID, l.JumpURL)
	fmt.Fprintf(&b, "Command: `%s`", l.Command)

	return &discordgo.MessageEmbed{
		Title:       "Command Ran",
		Description: b.String(),
		Color:       bot.ColorDarkGreen,
	}
}
