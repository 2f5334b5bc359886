package logging

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"PortalUtils/bot"
	"PortalUtils/commands"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildEmbed(t *testing.T) {
	g := &discordgo.Guild{
		ID:      "42",
		Name:    "Portal",
		OwnerID: "7",
		Members: []*discordgo.Member{
			{User: &discordgo.User{ID: "1"}},
			{User: &discordgo.User{ID: "2"}},
			{User: &discordgo.User{ID: "3", Bot: true}},
		},
	}
	owner := &discordgo.User{ID: "7", Username: "clari", Discriminator: "0"}

	joined := GuildEmbed(g, owner, true, true, 10)
	assert.Equal(t, "Joined Server", joined.Title)
	assert.Equal(t, bot.ColorGreen, joined.Color)
	assert.Equal(t, "Guild Name: `Portal`\nGuild ID: `42`\nOwner: `"+owner.String()+"` (`7`)\nHumans: `2`\nBots: `1`\nTotal Guilds: `10`", joined.Description)

	left := GuildEmbed(g, nil, false, false, 9)
	assert.Equal(t, "Left Server", left.Title)
	assert.Equal(t, bot.ColorRed, left.Color)
	assert.NotContains(t, left.Description, "Humans")
	assert.Contains(t, left.Description, "Owner: `unknown` (`7`)")
}

func TestCommandLogEmbed(t *testing.T) {
	user := &discordgo.User{ID: "5", Username: "zander", Discriminator: "0"}
	entry := CommandLog{
		User:        user,
		GuildName:   "Portal",
		GuildID:     "42",
		ChannelName: "general",
		ChannelID:   "99",
		MessageID:   "1000",
		JumpURL:     commands.JumpURL("42", "99", "1000"),
		Command:     ".ban user:@x reason:spam",
	}
	e := entry.Embed()
	assert.Equal(t, "Command Ran", e.Title)
	assert.Equal(t, bot.ColorDarkGreen, e.Color)
	assert.Contains(t, e.Description, "Guild: `Portal` (`42`)")
	assert.Contains(t, e.Description, "Channel: `general` (`99`)")
	assert.Contains(t, e.Description, "Message: [`1000`](https://discord.com/channels/42/99/1000)")
	assert.True(t, strings.HasSuffix(e.Description, "Command: `.ban user:@x reason:spam`"))

	entry.GuildID = ""
	e = entry.Embed()
	assert.Contains(t, e.Description, "Channel: `DM or Slash-Only Context` (`99`)")
}

func TestGuildTracking(t *testing.T) {
	c := New()
	c.onReady(nil, &discordgo.Ready{Guilds: []*discordgo.Guild{{ID: "1"}, {ID: "2"}}})

	assert.False(t, c.markJoined("1"), "guilds from Ready are not joins")
	assert.True(t, c.markJoined("3"))
	assert.False(t, c.markJoined("3"))

	c.markLeft("3")
	assert.True(t, c.markJoined("3"))
}

func TestLoad_DisabledChannels(t *testing.T) {
	b := &bot.Bot{Config: bot.Config{Prefix: ".", GuildLogs: "0"}, Log: zerolog.Nop()}
	reg := commands.NewRegistry(b)
	require.NoError(t, reg.Load(New()))

	cmd, ok := reg.Router.Lookup("schema")
	require.True(t, ok)
	assert.True(t, cmd.Hidden)
	assert.Equal(t, "logging", cmd.Module)
}

func TestLoad_RegistersListeners(t *testing.T) {
	session, err := discordgo.New("Bot test")
	require.NoError(t, err)
	b := &bot.Bot{
		Client: session,
		Config: bot.Config{Prefix: ".", GuildLogs: "100", CommandLogs: "200", OwnerIDs: []string{"1"}},
		Log:    zerolog.Nop(),
	}
	reg := commands.NewRegistry(b)
	c := New()
	require.NoError(t, reg.Load(c))

	// the command log hook runs on every invocation, but skips hidden commands
	cmd, ok := reg.Router.Lookup("schema")
	require.True(t, ok)
	invoked := &commands.Context{
		Bot:     b,
		Message: &discordgo.Message{Author: &discordgo.User{ID: "1"}},
		Command: &commands.Command{Name: "schema", Hidden: true, Handler: func(*commands.Context) error { return nil }},
	}
	require.NoError(t, reg.Router.Invoke(invoked))
	assert.True(t, cmd.Hidden)
	assert.False(t, c.commandLogsOff.Load())
}

func restError(status, code int) *discordgo.RESTError {
	e := &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
	if code != 0 {
		e.Message = &discordgo.APIErrorMessage{Code: code}
	}
	return e
}

func TestSendFailed(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantOff bool
	}{
		{"unknown channel", restError(http.StatusNotFound, discordgo.ErrCodeUnknownChannel), true},
		{"missing access", restError(http.StatusForbidden, discordgo.ErrCodeMissingAccess), true},
		{"server error", restError(http.StatusInternalServerError, 0), false},
		{"unknown message", restError(http.StatusNotFound, discordgo.ErrCodeUnknownMessage), false},
		{"network", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.Bot = &bot.Bot{Log: zerolog.Nop()}

			c.sendFailed(tt.err, &c.commandLogsOff, "command")
			assert.Equal(t, tt.wantOff, c.commandLogsOff.Load())
			assert.False(t, c.guildLogsOff.Load(), "only the failing listener is switched off")
		})
	}
}

func TestListenersOffAreNoOps(t *testing.T) {
	c := New()
	c.Bot = &bot.Bot{Config: bot.Config{GuildLogs: "100", CommandLogs: "200"}, Log: zerolog.Nop()}
	c.commandLogsOff.Store(true)
	c.guildLogsOff.Store(true)

	// a nil session would panic if either listener tried to send
	ctx := &commands.Context{
		Bot:     c.Bot,
		Message: &discordgo.Message{ID: "1", ChannelID: "2", GuildID: "3", Author: &discordgo.User{ID: "4"}},
		Command: &commands.Command{Name: "help"},
	}
	assert.NotPanics(t, func() { c.commandLogs(ctx) })
	assert.NotPanics(t, func() { c.guildLogs(nil, &discordgo.Guild{ID: "3"}, true) })
}
