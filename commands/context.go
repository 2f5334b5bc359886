package commands

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"PortalUtils/bot"
	"PortalUtils/paginator"

	"github.com/bwmarrin/discordgo"
)

// Context is one prefix command invocation.
type Context struct {
	Bot         *bot.Bot
	Session     *discordgo.Session
	Message     *discordgo.Message
	Command     *Command
	Prefix      string
	InvokedWith string
	Args        []string
}

// Author is the user who sent the command message.
func (c *Context) Author() *discordgo.User { return c.Message.Author }

// Send replies with content in the invoking channel.
func (c *Context) Send(content string) (*discordgo.Message, error) {
	return c.Session.ChannelMessageSend(c.Message.ChannelID, content)
}

// SendEmbed replies with e in the invoking channel.
func (c *Context) SendEmbed(e *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return c.Session.ChannelMessageSendEmbed(c.Message.ChannelID, e)
}

// SendPaginator sends p to the invoking channel and tracks it for navigation.
func (c *Context) SendPaginator(p *paginator.Paginator) (paginator.Message, error) {
	return c.Bot.Pages.Send(context.Background(), p, paginator.ChannelDestination{
		Session:   c.Session,
		ChannelID: c.Message.ChannelID,
	})
}

// JumpURL links to the invoking message.
func (c *Context) JumpURL() string {
	return JumpURL(c.Message.GuildID, c.Message.ChannelID, c.Message.ID)
}

// InvokedCommand is the prefix plus the name the user typed.
func (c *Context) InvokedCommand() string {
	return c.Prefix + c.InvokedWith
}

// NamedArgs pairs Params with Args as "param:value". Arguments beyond the
// declared params are joined onto the last pair, or returned bare when the
// command declares none.
func (c *Context) NamedArgs() []string {
	params := c.Command.Params
	var out []string
	for i, arg := range c.Args {
		switch {
		case i < len(params):
			out = append(out, params[i]+":"+arg)
		case len(params) == 0:
			out = append(out, arg)
		default:
			out[len(out)-1] += " " + arg
		}
	}
	return out
}

// JumpURL links to a message. DMs use "@me" as the guild.
func JumpURL(guildID, channelID, messageID string) string {
	if guildID == "" {
		guildID = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// PanicError is a recovered handler panic with the goroutine stack.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func recoverPanic(err *error) {
	if v := recover(); v != nil {
		*err = &PanicError{Value: v, Stack: debug.Stack()}
	}
}

// truncate cuts s to at most n runes, marking the cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n-1]), "\n") + "…"
}
