package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Plan and track a workout interactively (resumes an unfinished one)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			m := session.New(a.repo, session.Options{Log: a.log})
			return newREPL(m, a.repo.Checklist, cmd.InOrStdin(), cmd.OutOrStdout(), time.Now).run()
		})
	},
}

var discardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Discard the workout in progress without saving it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			w, ok := a.repo.Active()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No workout in progress.")
				return nil
			}
			a.repo.ClearActive()
			fmt.Fprintf(cmd.OutOrStdout(), "Discarded %s workout started %s.\n", w.Type, w.StartTime.Local().Format(time.Kitchen))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd, discardCmd)
}

var errQuit = errors.New("quit")

// repl drives a session.Machine from line-based commands.
type repl struct {
	m         *session.Machine
	checklist func() []string
	in        *bufio.Scanner
	out       io.Writer
	now       func() time.Time
}

func newREPL(m *session.Machine, checklist func() []string, in io.Reader, out io.Writer, now func() time.Time) *repl {
	return &repl{m: m, checklist: checklist, in: bufio.NewScanner(in), out: out, now: now}
}

func (r *repl) run() error {
	r.show()
	for {
		fmt.Fprintf(r.out, "%s> ", r.m.Phase())
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		err := r.exec(line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			errColor.Fprintln(r.out, "  "+err.Error())
			continue
		}
		r.show()
	}
}

// exec runs one command line against the machine.
func (r *repl) exec(line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help", "?":
		r.help()
		return nil
	case "cancel":
		r.m.Cancel()
		return nil
	}

	switch r.m.Phase() {
	case session.PhaseTypeSelection:
		switch cmd {
		case "new", "past":
			t, err := models.ParseWorkoutType(rest)
			if err != nil {
				return err
			}
			if err := r.m.Begin(cmd == "past"); err != nil {
				return err
			}
			return r.m.SelectType(t)
		}

	case session.PhaseDateSelection:
		if cmd == "date" {
			var d time.Time
			if rest != "" {
				var err error
				d, err = time.ParseInLocation(time.DateOnly, rest, time.Local)
				if err != nil {
					return fmt.Errorf("date must be YYYY-MM-DD")
				}
			}
			return r.m.ConfirmDate(d)
		}

	case session.PhaseChecklist:
		if cmd == "ok" || cmd == "continue" {
			return r.m.ContinueChecklist()
		}

	case session.PhasePastWorkoutSelection:
		switch cmd {
		case "skip":
			return r.m.Skip()
		case "pick":
			n, err := position(args, 0, len(r.m.Candidates()))
			if err != nil {
				return err
			}
			return r.m.PickPrevious(r.m.Candidates()[n].ID)
		}

	case session.PhasePlanning:
		switch cmd {
		case "add":
			return r.add(args)
		case "edit":
			return r.edit(args)
		case "rm":
			return r.remove(args)
		case "dist":
			d, err := number(args, 0)
			if err != nil {
				return err
			}
			return r.m.SetTargetDistance(d)
		case "duration":
			n, err := number(args, 0)
			if err != nil {
				return err
			}
			return r.m.SetDuration(int(n))
		case "start":
			return r.m.Start()
		}

	case session.PhaseActive:
		switch cmd {
		case "add":
			return r.add(args)
		case "edit":
			return r.edit(args)
		case "rm":
			return r.remove(args)
		case "done":
			id, err := r.exerciseID(args)
			if err != nil {
				return err
			}
			return r.m.ToggleComplete(id)
		case "set":
			return r.logSet(args)
		case "dist":
			id, err := r.exerciseID(args)
			if err != nil {
				return err
			}
			d, err := number(args, 1)
			if err != nil {
				return err
			}
			return r.m.RecordDistance(id, d)
		case "time":
			id, err := r.exerciseID(args)
			if err != nil {
				return err
			}
			d, err := number(args, 1)
			if err != nil {
				return err
			}
			return r.m.RecordDuration(id, d)
		case "finish":
			if len(args) > 0 && args[0] == "early" {
				return r.m.FinishEarly()
			}
			return r.m.Finish()
		}

	case session.PhaseSummary:
		if cmd == "close" || cmd == "ok" {
			return r.m.Close()
		}
	}
	return fmt.Errorf("unknown command %q in %s (type help)", cmd, r.m.Phase())
}

// add parses "add eq <kg> <reps> <sets> <name>" or "add cardio <km|-> <min|-> <name>".
func (r *repl) add(args []string) error {
	ex, err := parseExercise(args)
	if err != nil {
		return err
	}
	_, err = r.m.AddExercise(ex)
	return err
}

// edit parses "edit <n> <kg> <reps> <sets>" for equipment and
// "edit <n> <km|-> <min|->" for cardio.
func (r *repl) edit(args []string) error {
	id, err := r.exerciseID(args)
	if err != nil {
		return err
	}
	w, _ := r.m.Workout()
	cur, _ := w.Exercise(id)
	switch e := cur.(type) {
	case *models.Equipment:
		next, err := parseExercise(append([]string{"eq"}, append(args[1:], e.Name)...))
		if err != nil {
			return err
		}
		next.(*models.Equipment).ID = id
		return r.m.UpdateExercise(next)
	case *models.Cardio:
		next, err := parseExercise(append([]string{"cardio"}, append(args[1:], e.Name)...))
		if err != nil {
			return err
		}
		next.(*models.Cardio).ID = id
		return r.m.UpdateExercise(next)
	default:
		return fmt.Errorf("use dist to change the target of a %s", cur.Kind())
	}
}

func (r *repl) remove(args []string) error {
	id, err := r.exerciseID(args)
	if err != nil {
		return err
	}
	return r.m.RemoveExercise(id)
}

// logSet parses "set <n> <reps> [kg]".
func (r *repl) logSet(args []string) error {
	id, err := r.exerciseID(args)
	if err != nil {
		return err
	}
	reps, err := number(args, 1)
	if err != nil {
		return err
	}
	var weight *float64
	if len(args) > 2 {
		kg, err := number(args, 2)
		if err != nil {
			return err
		}
		weight = &kg
	}
	return r.m.LogSet(id, int(reps), weight)
}

func (r *repl) exerciseID(args []string) (string, error) {
	w, ok := r.m.Workout()
	if !ok {
		return "", session.ErrExerciseNotFound
	}
	n, err := position(args, 0, len(w.Exercises))
	if err != nil {
		return "", err
	}
	return w.Exercises[n].ExerciseID(), nil
}

func parseExercise(args []string) (models.Exercise, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("usage: add eq <kg> <reps> <sets> <name> | add cardio <km|-> <min|-> <name>")
	}
	switch args[0] {
	case "eq", "equipment":
		if len(args) < 5 {
			return nil, &models.ValidationError{Msg: "Please fill in all fields"}
		}
		kg, err := number(args, 1)
		if err != nil {
			return nil, err
		}
		reps, err := number(args, 2)
		if err != nil {
			return nil, err
		}
		sets, err := number(args, 3)
		if err != nil {
			return nil, err
		}
		return &models.Equipment{
			Name:       strings.Join(args[4:], " "),
			Weight:     kg,
			TargetReps: int(reps),
			TargetSets: int(sets),
		}, nil
	case "cardio":
		if len(args) < 4 {
			return nil, &models.ValidationError{Msg: "Please enter either distance or duration"}
		}
		km, err := optionalNumber(args[1])
		if err != nil {
			return nil, err
		}
		mins, err := optionalNumber(args[2])
		if err != nil {
			return nil, err
		}
		return &models.Cardio{
			Name:           strings.Join(args[3:], " "),
			TargetDistance: km,
			TargetDuration: mins,
		}, nil
	default:
		return nil, fmt.Errorf("%w %q", models.ErrUnknownExerciseType, args[0])
	}
}

func number(args []string, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i+1)
	}
	v, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", args[i])
	}
	return v, nil
}

func optionalNumber(s string) (*float64, error) {
	if s == "-" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return &v, nil
}

// position parses a 1-based list index into a 0-based one.
func position(args []string, i, n int) (int, error) {
	v, err := number(args, i)
	if err != nil {
		return 0, err
	}
	p := int(v)
	if p < 1 || p > n {
		return 0, fmt.Errorf("no entry %d", p)
	}
	return p - 1, nil
}

// show prints the screen of the current phase.
func (r *repl) show() {
	m := r.m
	switch m.Phase() {
	case session.PhaseTypeSelection:
		printHeader(r.out, "NEW WORKOUT")
		names := make([]string, len(models.AllWorkoutTypes))
		for i, t := range models.AllWorkoutTypes {
			names[i] = string(t)
		}
		fmt.Fprintf(r.out, "  Types: %s\n", strings.Join(names, ", "))
		fmt.Fprintln(r.out, "  new <type> | past <type> | quit")

	case session.PhaseDateSelection:
		fmt.Fprintf(r.out, "  When did the %s workout happen?\n", m.Type())
		fmt.Fprintln(r.out, "  date YYYY-MM-DD")

	case session.PhaseChecklist:
		printHeader(r.out, "CHECKLIST")
		for _, item := range r.checklist() {
			fmt.Fprintf(r.out, "  [ ] %s\n", item)
		}
		fmt.Fprintln(r.out, "  ok | cancel")

	case session.PhasePastWorkoutSelection:
		candidates := m.Candidates()
		if len(candidates) == 0 {
			fmt.Fprintf(r.out, "  No previous %s workouts.\n", m.Type())
		}
		for i, w := range candidates {
			fmt.Fprintf(r.out, "  %2d. %s\n", i+1, workoutLine(w))
		}
		fmt.Fprintln(r.out, "  pick <n> | skip")

	case session.PhasePlanning:
		w, _ := m.Workout()
		title := "PLAN " + strings.ToUpper(string(m.Type()))
		if m.PastMode() {
			title += " · " + m.Date().Format(time.DateOnly)
		}
		printHeader(r.out, title)
		printExercises(r.out, w.Exercises)
		if m.PastMode() {
			printMetric(r.out, "Duration", fmt.Sprintf("%d min", m.Duration()))
		}
		if m.Type().IsStrength() {
			fmt.Fprintln(r.out, "  add eq <kg> <reps> <sets> <name> | add cardio <km|-> <min|-> <name> | edit <n> ... | rm <n>")
		} else {
			fmt.Fprintln(r.out, "  dist <target>")
		}
		if m.PastMode() {
			fmt.Fprintln(r.out, "  duration <min>")
		}
		if m.CanStart() {
			fmt.Fprintln(r.out, "  start")
		}

	case session.PhaseActive:
		w, _ := m.Workout()
		printHeader(r.out, strings.ToUpper(string(w.Type))+" "+formatElapsed(m.Elapsed(r.now())))
		printExercises(r.out, w.Exercises)
		printMetric(r.out, "Completed", fmt.Sprintf("%d/%d", w.CompletedCount(), len(w.Exercises)))
		if s := m.Streak(); s > 1 {
			printMetric(r.out, "Streak", s)
		}
		fmt.Fprintln(r.out, "  done <n> | set <n> <reps> [kg] | dist <n> <d> | time <n> <min> | finish [early]")

	case session.PhaseSummary:
		s, _ := m.Summary()
		printHeader(r.out, "WORKOUT COMPLETE")
		printMetric(r.out, "Type", s.Workout.Type)
		printMetric(r.out, "Duration", s.Duration)
		printMetric(r.out, "Completed", s.Ratio())
		if s.Volume > 0 {
			printMetric(r.out, "Volume", fmt.Sprintf("%g kg", s.Volume))
		}
		for _, ex := range s.Skipped {
			todoColor.Fprintf(r.out, "  skipped: %s\n", ex.ExerciseName())
		}
		fmt.Fprintln(r.out, "  close")
	}
}

func (r *repl) help() {
	fmt.Fprintln(r.out, "  Commands depend on the step; each screen lists them.")
	fmt.Fprintln(r.out, "  cancel abandons the workout, quit leaves it to resume later.")
}
