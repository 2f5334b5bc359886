package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// GroupCog is a Cog whose slash commands are registered as subcommands of one
// parent application command.
type GroupCog interface {
	Cog
	// Group describes the parent command. An empty name falls back to the
	// lowercased cog name, an empty description to the cog name.
	Group() *discordgo.ApplicationCommand
}

// slashGroup collects the slash commands of a loading GroupCog.
type slashGroup struct {
	parent *discordgo.ApplicationCommand
	subs   map[string]*SlashCommand
}

func newSlashGroup(cog GroupCog) *slashGroup {
	parent := &discordgo.ApplicationCommand{}
	if g := cog.Group(); g != nil {
		*parent = *g
	}
	if parent.Name == "" {
		parent.Name = strings.ToLower(cog.Name())
	}
	if parent.Description == "" {
		parent.Description = cog.Name()
	}
	parent.Options = nil
	return &slashGroup{parent: parent, subs: make(map[string]*SlashCommand)}
}

func (g *slashGroup) add(cmd *SlashCommand) error {
	if cmd.Command == nil || cmd.Command.Name == "" || cmd.Handler == nil {
		return fmt.Errorf("slash command needs a definition and a handler")
	}
	if cmd.Command.Type != 0 && cmd.Command.Type != discordgo.ChatApplicationCommand {
		return fmt.Errorf("%s: only chat input commands can join group /%s", cmd.Command.Name, g.parent.Name)
	}
	if _, exists := g.subs[cmd.Command.Name]; exists {
		return fmt.Errorf("slash command %q already registered in /%s", cmd.Command.Name, g.parent.Name)
	}

	g.subs[cmd.Command.Name] = cmd
	g.parent.Options = append(g.parent.Options, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        cmd.Command.Name,
		Description: cmd.Command.Description,
		Options:     cmd.Command.Options,
	})
	return nil
}

// command is the parent slash command, dispatching to the subcommands.
func (g *slashGroup) command(module string) *SlashCommand {
	return &SlashCommand{Command: g.parent, Handler: g.dispatch, Module: module}
}

func (g *slashGroup) dispatch(it *Interaction) error {
	data := it.ApplicationCommandData()
	var sub *SlashCommand
	for _, opt := range data.Options {
		if opt.Type == discordgo.ApplicationCommandOptionSubCommand {
			sub = g.subs[opt.Name]
			break
		}
	}
	if sub == nil {
		return &UsageError{Msg: "unknown subcommand of /" + g.parent.Name}
	}

	it.Command = sub
	if shouldDefer(sub, data) {
		if err := it.Defer(true); err != nil {
			return fmt.Errorf("deferring: %w", err)
		}
	}
	return sub.Handler(it)
}
