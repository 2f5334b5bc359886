package commands

import (
	"errors"
	"fmt"
	"strings"

	"PortalUtils/bot"
)

// ErrNoTranslator is returned by Base.T when the bot has no translator.
var ErrNoTranslator = errors.New("bot has no translator; set LOCALES_DIR or assign Bot.Translator")

// Cog is a bundle of commands and listeners loaded into a Registry.
type Cog interface {
	Name() string
	Load(reg *Registry) error
}

// Registry holds the bot's prefix router, slash tree and loaded cogs.
type Registry struct {
	Bot    *bot.Bot
	Router *Router
	Tree   *Tree

	cogs []Cog
	// module is the cog currently loading, stamped onto its commands.
	module string
	// group collects slash commands while a GroupCog loads.
	group *slashGroup
}

// NewRegistry creates a registry with an empty router and tree.
func NewRegistry(b *bot.Bot) *Registry {
	return &Registry{Bot: b, Router: NewRouter(b), Tree: NewTree(b)}
}

// Load loads cogs in order. Cog names must be unique.
func (r *Registry) Load(cogs ...Cog) error {
	for _, cog := range cogs {
		if _, loaded := r.Cog(cog.Name()); loaded {
			return fmt.Errorf("cog %q already loaded", cog.Name())
		}
		r.module = strings.ToLower(cog.Name())
		if gc, ok := cog.(GroupCog); ok {
			r.group = newSlashGroup(gc)
		}
		err := cog.Load(r)
		if group := r.group; err == nil && group != nil && len(group.subs) > 0 {
			err = r.Tree.Add(group.command(r.module))
		}
		r.module, r.group = "", nil
		if err != nil {
			return fmt.Errorf("loading cog %s: %w", cog.Name(), err)
		}
		r.cogs = append(r.cogs, cog)
		r.Bot.Log.Debug().Str("cog", cog.Name()).Msg("Cog loaded")
	}
	return nil
}

// Cog finds a loaded cog by name, case-insensitively.
func (r *Registry) Cog(name string) (Cog, bool) {
	for _, c := range r.cogs {
		if strings.EqualFold(c.Name(), name) {
			return c, true
		}
	}
	return nil, false
}

// Cogs returns the loaded cogs in load order.
func (r *Registry) Cogs() []Cog {
	return append([]Cog(nil), r.cogs...)
}

// AddCommand registers a prefix command for the loading cog.
func (r *Registry) AddCommand(cmd *Command) error {
	if cmd.Module == "" {
		cmd.Module = r.module
	}
	return r.Router.Register(cmd)
}

// AddSlashCommand registers an application command for the loading cog. A
// GroupCog's commands become subcommands of its group.
func (r *Registry) AddSlashCommand(cmd *SlashCommand) error {
	if cmd.Module == "" {
		cmd.Module = r.module
	}
	if r.group != nil {
		return r.group.add(cmd)
	}
	return r.Tree.Add(cmd)
}

// Attach registers the router and tree handlers on the bot session.
func (r *Registry) Attach() {
	r.Bot.Client.AddHandler(r.Router.HandleMessage)
	r.Bot.Client.AddHandler(r.Tree.HandleInteraction)
}

// Base gives cogs access to the bot and translation helpers.
type Base struct {
	Bot *bot.Bot
}

// T translates key for the interaction's locale. The full key is
// "<module>.<command name split on _>.<key>", with the command's I18nKey
// standing in for its name when set.
func (c Base) T(key string, it *Interaction, args map[string]any) (string, error) {
	if c.Bot.Translator == nil {
		return "", ErrNoTranslator
	}
	return c.Bot.Translator.T(TranslationKey(it.Command, key), it.Locale(), args), nil
}

// TranslationKey builds the full translation key of key for cmd.
func TranslationKey(cmd *SlashCommand, key string) string {
	name := cmd.Command.Name
	if cmd.I18nKey != "" {
		name = cmd.I18nKey
	}
	parts := []string{}
	if cmd.Module != "" {
		parts = append(parts, cmd.Module)
	}
	parts = append(parts, strings.Split(name, "_")...)
	return strings.Join(append(parts, key), ".")
}
