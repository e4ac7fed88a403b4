package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/claude/workoutlog/internal/models"
	"github.com/spf13/cobra"
)

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show the workout reminder, streak and the last workout of each type",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			active, hasActive := a.repo.Active()
			printHome(cmd.OutOrStdout(), a.repo.History(), active, hasActive, time.Now())
			return nil
		})
	},
}

func printHome(out io.Writer, history []models.Workout, active models.Workout, hasActive bool, now time.Time) {
	printHeader(out, "WORKOUT LOG")

	rem := models.ReminderFor(history, now)
	if rem.Show {
		c := doneColor
		switch rem.Level {
		case models.ReminderWarning, models.ReminderUrgent:
			c = errColor
		case models.ReminderGentle:
			c = labelColor
		}
		c.Fprintf(out, "  %s\n", rem.Message)
		fmt.Fprintf(out, "  %s\n\n", rem.SubMessage)
	}

	if hasActive && !active.Completed {
		labelColor.Fprintf(out, "  %s workout in progress since %s (%d/%d done)\n\n",
			active.Type, active.StartTime.Local().Format(time.Kitchen), active.CompletedCount(), len(active.Exercises))
	}

	printMetric(out, "Streak", fmt.Sprintf("%d days", models.Streak(history, now)))
	if days, ok := models.DaysSinceLast(history, now); ok {
		printMetric(out, "Days since last workout", days)
	}
	fmt.Fprintln(out)
	for _, t := range models.AllWorkoutTypes {
		w, ok := models.LastOfType(history, t)
		if !ok {
			todoColor.Fprintf(out, "  %-13s never\n", t)
			continue
		}
		fmt.Fprintf(out, "  %-13s %s\n", t, w.Date.Local().Format("Mon 2006-01-02"))
	}
}

var statsRange string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show training statistics for a range of days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := models.ParseRange(statsRange)
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) error {
			printStats(cmd.OutOrStdout(), models.Summarize(a.repo.History(), r, time.Now()))
			return nil
		})
	},
}

func printStats(out io.Writer, st models.Stats) {
	title := "STATS · ALL TIME"
	if st.Range != models.RangeAll {
		title = "STATS · LAST " + string(st.Range) + " DAYS"
	}
	printHeader(out, title)
	printMetric(out, "Workouts", st.Workouts)
	printMetric(out, "Total volume", fmt.Sprintf("%.1f kg", st.TotalVolume))
	printMetric(out, "Average duration", fmt.Sprintf("%d min", st.AvgDurationMin))
	printMetric(out, "Streak", fmt.Sprintf("%d days", st.Streak))
	fmt.Fprintln(out)
	for _, t := range models.AllWorkoutTypes {
		fmt.Fprintf(out, "  %-13s %d\n", t, st.ByType[t])
	}
}

var calendarCmd = &cobra.Command{
	Use:   "calendar [month] [year]",
	Short: "Show a month of training days",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		month, year := now.Month(), now.Year()
		if len(args) >= 1 {
			m, err := strconv.Atoi(args[0])
			if err != nil || m < 1 || m > 12 {
				return fmt.Errorf("invalid month: %s", args[0])
			}
			month = time.Month(m)
		}
		if len(args) == 2 {
			y, err := strconv.Atoi(args[1])
			if err != nil || y < 1 {
				return fmt.Errorf("invalid year: %s", args[1])
			}
			year = y
		}
		return withApp(cmd, func(a *app) error {
			printCalendar(cmd.OutOrStdout(), models.Calendar(a.repo.History(), year, month, time.Local), year, month)
			return nil
		})
	},
}

// printCalendar draws a Monday-first month grid; training days are highlighted.
func printCalendar(out io.Writer, days []models.CalendarDay, year int, month time.Month) {
	printHeader(out, fmt.Sprintf("%s %d", month, year))
	fmt.Fprintln(out, "  Mo Tu We Th Fr Sa Su")

	offset := (int(time.Date(year, month, 1, 0, 0, 0, 0, time.Local).Weekday()) + 6) % 7
	fmt.Fprint(out, "  "+strings.Repeat("   ", offset))
	for i, d := range days {
		cell := fmt.Sprintf("%2d", d.Day)
		if len(d.Workouts) > 0 {
			cell = doneColor.Sprint(cell)
		}
		fmt.Fprint(out, cell+" ")
		if (offset+i+1)%7 == 0 {
			fmt.Fprint(out, "\n  ")
		}
	}
	fmt.Fprintln(out)

	for _, d := range days {
		for _, w := range d.Workouts {
			fmt.Fprintf(out, "  %2d  %s\n", d.Day, w.Type)
		}
	}
}

func init() {
	statsCmd.Flags().StringVarP(&statsRange, "range", "r", string(models.RangeMonth), "days to cover: 7, 30, 90, 365 or all")
	rootCmd.AddCommand(homeCmd, statsCmd, calendarCmd)
}
