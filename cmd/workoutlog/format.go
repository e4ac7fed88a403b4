package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/claude/workoutlog/internal/models"
	"github.com/fatih/color"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.FgYellow, color.Bold)
	doneColor   = color.New(color.FgGreen)
	todoColor   = color.New(color.FgHiBlack)
	errColor    = color.New(color.FgRed)
)

func printHeader(w io.Writer, title string) {
	width := 40
	border := strings.Repeat("═", width)
	headerColor.Fprintln(w, "╔"+border+"╗")
	headerColor.Fprintln(w, "║"+centerText(title, width)+"║")
	headerColor.Fprintln(w, "╚"+border+"╝")
}

func centerText(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	padding := (width - n) / 2
	return strings.Repeat(" ", padding) + s + strings.Repeat(" ", width-n-padding)
}

func printMetric(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %s: %v\n", labelColor.Sprint(label), value)
}

// describeExercise renders the targets and recorded progress of ex on one line.
func describeExercise(ex models.Exercise) string {
	switch e := ex.(type) {
	case *models.Equipment:
		s := fmt.Sprintf("%s: %gkg × %d reps × %d sets (%d/%d done)",
			e.Name, e.Weight, e.TargetReps, e.TargetSets, e.CompletedSets, e.TargetSets)
		if e.ActualWeight != nil && *e.ActualWeight != e.Weight {
			s += fmt.Sprintf(", lifted %gkg", *e.ActualWeight)
		}
		if len(e.ActualReps) > 0 {
			s += fmt.Sprintf(", reps %v", e.ActualReps)
		}
		return s
	case *models.Cardio:
		var goals []string
		if e.TargetDistance != nil {
			goals = append(goals, fmt.Sprintf("%gkm", *e.TargetDistance))
		}
		if e.TargetDuration != nil {
			goals = append(goals, fmt.Sprintf("%gmin", *e.TargetDuration))
		}
		s := e.Name + ": " + strings.Join(goals, " / ")
		if e.ActualDistance != nil {
			s += fmt.Sprintf(", covered %gkm", *e.ActualDistance)
		}
		if e.ActualDuration != nil {
			s += fmt.Sprintf(", %gmin", *e.ActualDuration)
		}
		return s
	case *models.Swim:
		return distanceLine(e.Name, e.TargetDistance, e.ActualDistance, "m")
	case *models.Run:
		return distanceLine(e.Name, e.TargetDistance, e.ActualDistance, "km")
	default:
		return ex.ExerciseName()
	}
}

func distanceLine(name string, target float64, actual *float64, unit string) string {
	s := fmt.Sprintf("%s: %g%s", name, target, unit)
	if actual != nil {
		s += fmt.Sprintf(", covered %g%s", *actual, unit)
	}
	return s
}

// printExercises lists exercises numbered from 1 with a completion mark.
func printExercises(w io.Writer, exercises models.Exercises) {
	if len(exercises) == 0 {
		todoColor.Fprintln(w, "  (no exercises)")
		return
	}
	for i, ex := range exercises {
		if ex.IsCompleted() {
			doneColor.Fprintf(w, "  %2d. [x] %s\n", i+1, describeExercise(ex))
		} else {
			fmt.Fprintf(w, "  %2d. [ ] %s\n", i+1, describeExercise(ex))
		}
	}
}

// workoutLine is the one-line history entry of w.
func workoutLine(w models.Workout) string {
	return fmt.Sprintf("%s  %-13s %6s  %d/%d exercises  %s",
		w.Date.Local().Format("Mon 2006-01-02"), w.Type,
		models.FormatDuration(w.StartTime, w.EndTime),
		w.CompletedCount(), len(w.Exercises), w.ID)
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
