package main

import (
	"fmt"

	"github.com/claude/workoutlog/internal/models"
	"github.com/spf13/cobra"
)

var (
	historyType  string
	historyLimit int
	historyFull  bool
)

// historyCmd lists completed workouts, newest first.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed workouts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var typ models.WorkoutType
		if historyType != "" {
			t, err := models.ParseWorkoutType(historyType)
			if err != nil {
				return err
			}
			typ = t
		}
		return withApp(cmd, func(a *app) error {
			out := cmd.OutOrStdout()
			workouts := models.Completed(a.repo.History())
			if typ != "" {
				workouts = models.PreviousOfType(workouts, typ)
			}
			if len(workouts) == 0 {
				fmt.Fprintln(out, "No workouts yet.")
				return nil
			}
			printHeader(out, "HISTORY")
			for i, w := range workouts {
				if historyLimit > 0 && i == historyLimit {
					break
				}
				fmt.Fprintln(out, workoutLine(w))
				if historyFull {
					printExercises(out, w.Exercises)
				}
			}
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <workout-id>",
	Short: "Delete a workout from the history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			if err := a.repo.DeleteWorkout(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted workout %s.\n", args[0])
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyType, "type", "t", "", "only workouts of this type")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of workouts (0 for all)")
	historyCmd.Flags().BoolVarP(&historyFull, "details", "v", false, "show the exercises of each workout")
	rootCmd.AddCommand(historyCmd, deleteCmd)
}
