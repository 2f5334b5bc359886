package commands

import (
	"errors"
	"fmt"
	"sort"

	"PortalUtils/bot"

	"github.com/bwmarrin/discordgo"
)

// maxMessageLen is Discord's message content limit.
const maxMessageLen = 2000

// SlashHandler handles one application command interaction.
type SlashHandler func(it *Interaction) error

// SlashCommand is an application command and how to run it.
type SlashCommand struct {
	Command *discordgo.ApplicationCommand
	Handler SlashHandler
	// Defer acknowledges chat input invocations ephemerally before Handler
	// runs, for handlers that may take longer than the response window.
	Defer bool
	// I18nKey replaces the command name when building translation keys.
	I18nKey string
	// Module is the translation namespace, the loading cog's name by default.
	Module string
}

// UsageError reports bad user input. Its message is shown without a trace.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// Tree dispatches application commands and reports their failures.
type Tree struct {
	bot      *bot.Bot
	commands map[string]*SlashCommand
}

// NewTree creates an empty slash command tree.
func NewTree(b *bot.Bot) *Tree {
	return &Tree{bot: b, commands: make(map[string]*SlashCommand)}
}

// Add registers cmd. Names must be unique.
func (t *Tree) Add(cmd *SlashCommand) error {
	if cmd.Command == nil || cmd.Command.Name == "" || cmd.Handler == nil {
		return fmt.Errorf("slash command needs a definition and a handler")
	}
	if _, exists := t.commands[cmd.Command.Name]; exists {
		return fmt.Errorf("slash command %q already registered", cmd.Command.Name)
	}
	t.commands[cmd.Command.Name] = cmd
	return nil
}

// Get finds a slash command by name.
func (t *Tree) Get(name string) (*SlashCommand, bool) {
	cmd, ok := t.commands[name]
	return cmd, ok
}

// Definitions returns the registered application commands sorted by name.
func (t *Tree) Definitions() []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, 0, len(t.commands))
	for _, cmd := range t.commands {
		defs = append(defs, cmd.Command)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// shouldDefer reports whether an interaction must be deferred before its
// handler runs. Only chat input commands are deferred.
func shouldDefer(cmd *SlashCommand, data discordgo.ApplicationCommandInteractionData) bool {
	if !cmd.Defer {
		return false
	}
	return data.CommandType == 0 || data.CommandType == discordgo.ChatApplicationCommand
}

// HandleInteraction is the discordgo InteractionCreate handler.
func (t *Tree) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	cmd, ok := t.commands[data.Name]
	if !ok {
		return
	}

	it := &Interaction{InteractionCreate: i, Bot: t.bot, Session: s, Command: cmd}
	if err := t.invoke(it, data); err != nil {
		t.onError(it, err)
	}
}

func (t *Tree) invoke(it *Interaction, data discordgo.ApplicationCommandInteractionData) (err error) {
	if shouldDefer(it.Command, data) {
		if err := it.Defer(true); err != nil {
			return fmt.Errorf("deferring: %w", err)
		}
	}
	defer recoverPanic(&err)
	return it.Command.Handler(it)
}

func (t *Tree) onError(it *Interaction, err error) {
	if sendErr := it.Send("An error occurred.", false); sendErr != nil {
		t.bot.Log.Warn().Err(sendErr).Msg("Error notifying user of command failure")
	}
	if sendErr := it.Send(truncate(err.Error(), maxMessageLen), true); sendErr != nil {
		t.bot.Log.Warn().Err(sendErr).Msg("Error sending command failure to user")
	}

	trace := FormatError(err)
	data := it.ApplicationCommandData()
	t.bot.Log.Error().Err(err).
		Str("command", QualifiedName(data)).
		Str("guild_id", it.GuildID).
		Msg(trace)

	if t.bot.Config.ErrorLogs == "" || t.bot.Config.ErrorLogs == "0" {
		return
	}
	report := ErrorReport(it.User(), QualifiedName(data), it.ChannelID, it.GuildID, FormatNamespace(it.Options()), trace)
	if _, err := it.Session.ChannelMessageSend(t.bot.Config.ErrorLogs, report); err != nil {
		t.bot.Log.Error().Err(err).Str("channel_id", t.bot.Config.ErrorLogs).Msg("Error posting to error log channel")
	}
}

// FormatError renders err for logs. Check failures and usage errors are
// summarized on one line; panics include their stack.
func FormatError(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		return fmt.Sprintf("%s\n\n%s", pe.Error(), pe.Stack)
	}
	if errors.Is(err, ErrCheckFailure) {
		return "CheckFailure: " + err.Error()
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		return "UsageError: " + ue.Msg
	}

	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}
	return fmt.Sprintf("%T: %v", root, err)
}

// ErrorReport is the message posted to the error log channel.
func ErrorReport(user *discordgo.User, command, channelID, guildID, namespace, trace string) string {
	name := "unknown user"
	if user != nil {
		name = user.String()
	}
	head := fmt.Sprintf("%s ran %s in <#%s> (`%s`)\n%s", name, command, channelID, guildID, namespace)
	const fence = "```go\n"
	room := maxMessageLen - len([]rune(head)) - len(fence) - len("\n```")
	if room < 1 {
		room = 1
	}
	return head + fence + truncate(trace, room) + "```"
}

// Sync registers the tree's commands with Discord for guildID (global when
// empty), editing changed commands and deleting ones no longer in the tree.
func (t *Tree) Sync(s *discordgo.Session, guildID string) error {
	appID := s.State.User.ID
	existingCommands, err := s.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("fetching existing commands: %w", err)
	}

	existingMap := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existingCommands {
		existingMap[cmd.Name] = cmd
	}

	var errs []error
	for _, desired := range t.Definitions() {
		if existing, exists := existingMap[desired.Name]; exists {
			if commandNeedsUpdate(existing, desired) {
				t.bot.Log.Info().Str("command", desired.Name).Msg("Updating slash command")
				if _, err := s.ApplicationCommandEdit(appID, guildID, existing.ID, desired); err != nil {
					errs = append(errs, fmt.Errorf("updating %s: %w", desired.Name, err))
				}
			}
			delete(existingMap, desired.Name)
			continue
		}

		t.bot.Log.Info().Str("command", desired.Name).Msg("Creating slash command")
		if _, err := s.ApplicationCommandCreate(appID, guildID, desired); err != nil {
			errs = append(errs, fmt.Errorf("creating %s: %w", desired.Name, err))
		}
	}

	for _, cmd := range existingMap {
		t.bot.Log.Info().Str("command", cmd.Name).Msg("Deleting unused slash command")
		if err := s.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			errs = append(errs, fmt.Errorf("deleting %s: %w", cmd.Name, err))
		}
	}
	return errors.Join(errs...)
}

// commandNeedsUpdate checks if an existing command needs to be updated
func commandNeedsUpdate(existing, desired *discordgo.ApplicationCommand) bool {
	if existing.Name != desired.Name || existing.Description != desired.Description {
		return true
	}
	return optionsDiffer(existing.Options, desired.Options)
}

func optionsDiffer(existing, desired []*discordgo.ApplicationCommandOption) bool {
	if len(existing) != len(desired) {
		return true
	}
	for i, option := range existing {
		want := desired[i]
		if option.Name != want.Name ||
			option.Description != want.Description ||
			option.Type != want.Type ||
			option.Required != want.Required ||
			len(option.Choices) != len(want.Choices) {
			return true
		}
		if optionsDiffer(option.Options, want.Options) {
			return true
		}
	}
	return false
}
