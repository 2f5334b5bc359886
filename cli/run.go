package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot",
	Long:  `Connect to the database and the Discord gateway and serve commands until interrupted.`,
	RunE:  runBot,
}

var (
	runSync  bool
	runGuild string
)

func init() {
	runCmd.Flags().BoolVar(&runSync, "sync", false, "Sync slash commands after connecting")
	runCmd.Flags().StringVarP(&runGuild, "guild", "g", "", "Guild to sync slash commands to (default: global)")
}

func runBot(cmd *cobra.Command, args []string) error {
	reg, err := setup()
	if err != nil {
		return err
	}
	if reg.Bot.Config.Token == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}

	reg.Attach()
	if err := reg.Bot.Open(); err != nil {
		return err
	}
	defer reg.Bot.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reg.Router.PruneLimits(ctx, 10*time.Minute)

	if runSync {
		if err := reg.Tree.Sync(reg.Bot.Client, runGuild); err != nil {
			reg.Bot.Log.Error().Err(err).Msg("Error syncing slash commands")
		}
	}

	reg.Bot.Log.Info().Int("cogs", len(reg.Cogs())).Msg("Bot is running. Press Ctrl+C to exit.")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	reg.Bot.Log.Info().Msg("Shutting down")
	return nil
}
