package help

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"PortalUtils/commands"
	"PortalUtils/paginator"

	"github.com/bwmarrin/discordgo"
)

const noCategory = "No Category"

// Cog provides a minimal help command sent as a single themed embed, and a
// paginated command list.
type Cog struct {
	commands.Base
	router *commands.Router
}

// New creates the help cog.
func New() *Cog { return &Cog{} }

func (c *Cog) Name() string { return "Help" }

func (c *Cog) Load(reg *commands.Registry) error {
	c.Bot = reg.Bot
	c.router = reg.Router

	if err := reg.AddCommand(&commands.Command{
		Name:        "help",
		Aliases:     []string{"h"},
		Category:    "General",
		Description: "Shows the commands, or help for one command",
		Params:      []string{"command"},
		Handler:     c.help,
	}); err != nil {
		return err
	}
	if err := reg.AddCommand(&commands.Command{
		Name:        "commandlist",
		Aliases:     []string{"cl"},
		Category:    "General",
		Description: "Lists every command with its description",
		Handler:     c.commandList,
	}); err != nil {
		return err
	}
	return reg.AddSlashCommand(&commands.SlashCommand{
		Command: &discordgo.ApplicationCommand{
			Name:        "commands",
			Description: "Lists every command with its description",
		},
		Handler: c.slashCommandList,
	})
}

func (c *Cog) visible() []*commands.Command {
	var out []*commands.Command
	for _, cmd := range c.router.Commands() {
		if !cmd.Hidden {
			out = append(out, cmd)
		}
	}
	return out
}

func (c *Cog) help(ctx *commands.Context) error {
	if len(ctx.Args) > 0 {
		cmd, ok := c.router.Lookup(ctx.Args[0])
		if !ok || cmd.Hidden {
			_, err := ctx.Send(fmt.Sprintf("No command called `%s` found.", ctx.Args[0]))
			return err
		}
		_, err := ctx.SendEmbed(c.Bot.Embed(CommandEmbed(ctx.Prefix, cmd)))
		return err
	}

	desc := MinimalHelp(ctx.Prefix, c.visible())
	if len([]rune(desc)) <= paginator.DefaultEmbedMaxLen {
		_, err := ctx.SendEmbed(c.Bot.Embed(&discordgo.MessageEmbed{Description: desc}))
		return err
	}

	p := c.Bot.NewEmbedPaginator()
	for _, line := range strings.Split(desc, "\n") {
		if err := p.AddLine(line); err != nil {
			return err
		}
	}
	_, err := ctx.SendPaginator(p)
	return err
}

func (c *Cog) listPaginator(prefix string) (*paginator.Paginator, error) {
	p := c.Bot.NewEmbedPaginator(paginator.WithMaxLen(1024), paginator.WithGoTo())
	for _, line := range ListLines(prefix, c.visible()) {
		if err := p.AddLine(line); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (c *Cog) commandList(ctx *commands.Context) error {
	p, err := c.listPaginator(ctx.Prefix)
	if err != nil {
		return err
	}
	_, err = ctx.SendPaginator(p)
	return err
}

func (c *Cog) slashCommandList(it *commands.Interaction) error {
	p, err := c.listPaginator(c.Bot.Config.Prefix)
	if err != nil {
		return err
	}
	_, err = it.SendPaginator(context.Background(), p, true)
	return err
}

// MinimalHelp renders command names grouped by category.
func MinimalHelp(prefix string, cmds []*commands.Command) string {
	byCategory := make(map[string][]string)
	for _, cmd := range cmds {
		category := cmd.Category
		if category == "" {
			category = noCategory
		}
		byCategory[category] = append(byCategory[category], "`"+cmd.Name+"`")
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		// uncategorized commands go last
		if (categories[i] == noCategory) != (categories[j] == noCategory) {
			return categories[j] == noCategory
		}
		return categories[i] < categories[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Use `%shelp [command]` for more info on a command.\n", prefix)
	for _, category := range categories {
		names := byCategory[category]
		sort.Strings(names)
		fmt.Fprintf(&b, "\n__**%s**__\n%s", category, strings.Join(names, " "))
	}
	return b.String()
}

// ListLines is one line per command for the command list.
func ListLines(prefix string, cmds []*commands.Command) []string {
	lines := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		desc := cmd.Description
		if desc == "" {
			desc = "No description available"
		}
		lines = append(lines, fmt.Sprintf("`%s%s` - %s", prefix, cmd.Name, desc))
	}
	return lines
}

// CommandEmbed describes one command.
func CommandEmbed(prefix string, cmd *commands.Command) *discordgo.MessageEmbed {
	desc := cmd.Description
	if desc == "" {
		desc = "No description available"
	}
	embed := &discordgo.MessageEmbed{
		Title:       cmd.Usage(prefix),
		Description: desc,
	}
	if len(cmd.Aliases) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Aliases",
			Value: strings.Join(cmd.Aliases, ", "),
		})
	}
	if cmd.Category != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Category",
			Value: cmd.Category,
		})
	}
	return embed
}
