package main

import (
	"fmt"
	"os"

	"PortalUtils/bot"
	"PortalUtils/cogs/help"
	"PortalUtils/cogs/logging"
	"PortalUtils/commands"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portalbot",
	Short: "Run and manage a Portal bot",
	Long: `Runs a Discord bot with the Portal help and logging cogs loaded,
syncs its slash commands, and inspects its database.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(listCmd)
}

// setup loads the config and builds a bot with every cog loaded.
func setup() (*commands.Registry, error) {
	cfg, err := bot.LoadConfig()
	if err != nil {
		return nil, err
	}
	b, err := bot.NewBot(cfg, bot.NewLogger(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	reg := commands.NewRegistry(b)
	if err := reg.Load(help.New(), logging.New()); err != nil {
		return nil, err
	}
	return reg, nil
}
