package help

import (
	"testing"

	"PortalUtils/bot"
	"PortalUtils/commands"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCommands() []*commands.Command {
	return []*commands.Command{
		{Name: "ping", Category: "General", Description: "Pong"},
		{Name: "about", Category: "General"},
		{Name: "ban", Category: "Moderation", Aliases: []string{"b"}, Params: []string{"user", "reason"}},
		{Name: "eval"},
	}
}

func TestMinimalHelp(t *testing.T) {
	got := MinimalHelp(".", sampleCommands())
	want := "Use `.help [command]` for more info on a command.\n" +
		"\n__**General**__\n`about` `ping`" +
		"\n__**Moderation**__\n`ban`" +
		"\n__**No Category**__\n`eval`"
	assert.Equal(t, want, got)
}

func TestListLines(t *testing.T) {
	lines := ListLines("!", sampleCommands()[:2])
	assert.Equal(t, []string{"`!ping` - Pong", "`!about` - No description available"}, lines)
}

func TestCommandEmbed(t *testing.T) {
	e := CommandEmbed(".", sampleCommands()[2])
	assert.Equal(t, ".ban <user> <reason>", e.Title)
	assert.Equal(t, "No description available", e.Description)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, "b", e.Fields[0].Value)
	assert.Equal(t, "Moderation", e.Fields[1].Value)
}

func TestLoad(t *testing.T) {
	b := &bot.Bot{Config: bot.Config{Prefix: "."}, Log: zerolog.Nop()}
	reg := commands.NewRegistry(b)
	require.NoError(t, reg.Load(New()))

	_, ok := reg.Router.Lookup("h")
	assert.True(t, ok)
	_, ok = reg.Router.Lookup("cl")
	assert.True(t, ok)
	slash, ok := reg.Tree.Get("commands")
	require.True(t, ok)
	assert.Equal(t, "help", slash.Module)
}
