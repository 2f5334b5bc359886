package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [guild]",
	Short: "Sync slash commands and exit",
	Long:  `Create, update and delete application commands so Discord matches the loaded cogs. Syncs globally unless a guild ID is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSyncCommands,
}

func runSyncCommands(cmd *cobra.Command, args []string) error {
	reg, err := setup()
	if err != nil {
		return err
	}
	if reg.Bot.Config.Token == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}

	guildID := ""
	if len(args) == 1 {
		guildID = args[0]
	}

	if err := reg.Bot.Client.Open(); err != nil {
		return err
	}
	defer reg.Bot.Client.Close()

	if err := reg.Tree.Sync(reg.Bot.Client, guildID); err != nil {
		return err
	}
	reg.Bot.Log.Info().Str("guild_id", guildID).Msg("Slash commands synced")
	return nil
}
