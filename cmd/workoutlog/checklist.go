package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Show the pre-workout checklist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			out := cmd.OutOrStdout()
			items := a.repo.Checklist()
			if len(items) == 0 {
				fmt.Fprintln(out, "The checklist is empty.")
				return nil
			}
			for i, item := range items {
				fmt.Fprintf(out, "  %2d. %s\n", i+1, item)
			}
			return nil
		})
	},
}

var checklistAddCmd = &cobra.Command{
	Use:   "add <item>",
	Short: "Add an item to the checklist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item := strings.Join(args, " ")
		return withApp(cmd, func(a *app) error {
			return a.repo.AddChecklistItem(item)
		})
	},
}

var checklistRemoveCmd = &cobra.Command{
	Use:     "remove <item>",
	Aliases: []string{"rm"},
	Short:   "Remove an item from the checklist",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item := strings.Join(args, " ")
		return withApp(cmd, func(a *app) error {
			a.repo.RemoveChecklistItem(item)
			return nil
		})
	},
}

func init() {
	checklistCmd.AddCommand(checklistAddCmd, checklistRemoveCmd)
	rootCmd.AddCommand(checklistCmd)
}
