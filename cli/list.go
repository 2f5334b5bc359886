package main

import (
	"fmt"
	"sort"
	"strings"

	"PortalUtils/commands"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded cogs and commands",
	Long:  `Display every cog the bot loads and the prefix and slash commands each one registers.`,
	RunE:  runList,
}

var (
	listCogs   bool
	listHidden bool
	filterCog  string
)

func init() {
	listCmd.Flags().BoolVarP(&listCogs, "cogs", "m", false, "List only cogs")
	listCmd.Flags().BoolVar(&listHidden, "hidden", false, "Include hidden commands")
	listCmd.Flags().StringVarP(&filterCog, "filter", "f", "", "Filter by cog name")
}

type cogEntry struct {
	prefix []*commands.Command
	slash  []string
}

func runList(cmd *cobra.Command, args []string) error {
	reg, err := setup()
	if err != nil {
		return err
	}

	entries := make(map[string]*cogEntry)
	for _, cog := range reg.Cogs() {
		entries[strings.ToLower(cog.Name())] = &cogEntry{}
	}
	for _, c := range reg.Router.Commands() {
		if c.Hidden && !listHidden {
			continue
		}
		if e, ok := entries[c.Module]; ok {
			e.prefix = append(e.prefix, c)
		}
	}
	for _, def := range reg.Tree.Definitions() {
		sc, _ := reg.Tree.Get(def.Name)
		if e, ok := entries[sc.Module]; ok {
			e.slash = append(e.slash, def.Name)
		}
	}

	if filterCog != "" {
		name := strings.ToLower(filterCog)
		e, ok := entries[name]
		if !ok {
			return fmt.Errorf("cog %q not found", filterCog)
		}
		entries = map[string]*cogEntry{name: e}
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	out := cmd.OutOrStdout()
	prefix := reg.Bot.Config.Prefix
	for _, name := range names {
		e := entries[name]
		if listCogs {
			fmt.Fprintf(out, "%-12s %d commands, %d slash commands\n", name, len(e.prefix), len(e.slash))
			continue
		}

		fmt.Fprintf(out, "%s\n", name)
		for _, c := range e.prefix {
			line := "  " + c.Usage(prefix)
			if len(c.Aliases) > 0 {
				line += " (" + strings.Join(c.Aliases, ", ") + ")"
			}
			if c.Description != "" {
				line += " - " + c.Description
			}
			fmt.Fprintln(out, line)
		}
		sort.Strings(e.slash)
		for _, s := range e.slash {
			fmt.Fprintf(out, "  /%s\n", s)
		}
		fmt.Fprintln(out)
	}
	return nil
}
