package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [tables...]",
	Short: "Print the database schema",
	Long:  `Print the CREATE statements for the bot database, optionally limited to some tables.`,
	RunE:  runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	reg, err := setup()
	if err != nil {
		return err
	}
	if err := reg.Bot.OpenDatabase(); err != nil {
		return err
	}
	if reg.Bot.Db != nil {
		defer reg.Bot.Db.Close()
	}

	out, err := reg.Bot.DBSchema(cmd.Context(), args...)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
