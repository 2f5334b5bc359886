package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"PortalUtils/bot"
	"PortalUtils/utils"

	"github.com/bwmarrin/discordgo"
)

// Errors reported by Router.Invoke.
var (
	ErrCheckFailure = errors.New("check failed")
	ErrRateLimited  = errors.New("rate limited")
)

// CommandFunc handles one prefix command invocation.
type CommandFunc func(ctx *Context) error

// Check gates a command; a non-nil error stops the invocation.
type Check func(ctx *Context) error

// Command is a prefix command.
type Command struct {
	Name        string
	Aliases     []string
	Category    string
	Description string
	// Params names the positional arguments, used for usage lines and
	// command logs.
	Params  []string
	Hidden  bool
	Checks  []Check
	Handler CommandFunc
	Module  string
}

// Usage renders "<prefix><name> <param> ...".
func (c *Command) Usage(prefix string) string {
	usage := prefix + c.Name
	for _, p := range c.Params {
		usage += " <" + p + ">"
	}
	return usage
}

// Router dispatches prefixed messages to registered commands.
type Router struct {
	bot      *bot.Bot
	commands map[string]*Command
	aliases  map[string]string
	limiter  *utils.RateLimiter

	hooksMu sync.RWMutex
	hooks   []func(*Context)
}

// NewRouter creates a router allowing each user 15 uses of a command per minute.
func NewRouter(b *bot.Bot) *Router {
	return &Router{
		bot:      b,
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
		limiter:  utils.NewRateLimiter(15, time.Minute),
	}
}

// Register adds cmd. Names and aliases are case-insensitive and must be unique.
func (r *Router) Register(cmd *Command) error {
	if cmd.Name == "" || cmd.Handler == nil {
		return fmt.Errorf("command needs a name and a handler")
	}
	name := strings.ToLower(cmd.Name)
	if _, taken := r.resolve(name); taken {
		return fmt.Errorf("command %q already registered", name)
	}
	for _, alias := range cmd.Aliases {
		if _, taken := r.resolve(strings.ToLower(alias)); taken {
			return fmt.Errorf("alias %q of %q already registered", alias, name)
		}
	}

	r.commands[name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[strings.ToLower(alias)] = name
	}
	return nil
}

func (r *Router) resolve(name string) (*Command, bool) {
	if actual, isAlias := r.aliases[name]; isAlias {
		name = actual
	}
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Lookup finds a command by name or alias.
func (r *Router) Lookup(name string) (*Command, bool) {
	return r.resolve(strings.ToLower(name))
}

// Commands returns registered commands sorted by name.
func (r *Router) Commands() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// OnCommand registers a hook run just before every command invocation.
func (r *Router) OnCommand(hook func(*Context)) {
	r.hooksMu.Lock()
	defer r.hooksMu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// PruneLimits drops expired rate limit windows every interval until ctx is
// done.
func (r *Router) PruneLimits(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.limiter.Prune()
		}
	}
}

// Parse splits a message into the invoked name and its arguments.
func Parse(prefix, content string) (invoked string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// HandleMessage is the discordgo MessageCreate handler.
func (r *Router) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	invoked, args, ok := Parse(r.bot.Config.Prefix, m.Content)
	if !ok {
		return
	}
	cmd, exists := r.Lookup(invoked)
	if !exists {
		return
	}

	ctx := &Context{
		Bot:         r.bot,
		Session:     s,
		Message:     m.Message,
		Command:     cmd,
		Prefix:      r.bot.Config.Prefix,
		InvokedWith: invoked,
		Args:        args,
	}

	err := r.Invoke(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRateLimited):
		wait := r.limiter.RetryAfter(m.Author.ID, cmd.Name)
		ctx.Send(fmt.Sprintf("You're doing that too often. Try again in %d seconds.", int(wait.Seconds())+1))
	case errors.Is(err, ErrCheckFailure):
		ctx.Send("You can't use this command.")
	default:
		r.bot.Log.Error().Err(err).
			Str("command", cmd.Name).
			Str("user_id", m.Author.ID).
			Str("guild_id", m.GuildID).
			Msg("Error running command")
		ctx.SendEmbed(r.bot.ErrorEmbed(&discordgo.MessageEmbed{
			Title:       "An error occurred.",
			Description: err.Error(),
		}))
	}
}

// Invoke runs checks, rate limiting, the OnCommand hooks and the handler.
func (r *Router) Invoke(ctx *Context) (err error) {
	cmd := ctx.Command
	for _, check := range cmd.Checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	if !r.limiter.Allow(ctx.Message.Author.ID, cmd.Name) {
		return ErrRateLimited
	}

	r.hooksMu.RLock()
	hooks := slices.Clone(r.hooks)
	r.hooksMu.RUnlock()
	for _, hook := range hooks {
		hook(ctx)
	}

	defer recoverPanic(&err)
	return cmd.Handler(ctx)
}

// OwnerOnly allows the configured bot owners only.
func OwnerOnly(ctx *Context) error {
	if slices.Contains(ctx.Bot.Config.OwnerIDs, ctx.Message.Author.ID) {
		return nil
	}
	return fmt.Errorf("%w: %s is not an owner", ErrCheckFailure, ctx.Message.Author.ID)
}
