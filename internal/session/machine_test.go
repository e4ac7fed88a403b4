package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/workoutlog/internal/models"
)

// fakeStore keeps the active slot and history in memory.
type fakeStore struct {
	active    *models.Workout
	history   []models.Workout
	checklist []string
	sets      int
	clears    int
}

func (s *fakeStore) Active() (models.Workout, bool) {
	if s.active == nil {
		return models.Workout{}, false
	}
	return s.active.Clone(), true
}

func (s *fakeStore) SetActive(w models.Workout) {
	s.sets++
	s.active = &w
}

func (s *fakeStore) UpdateActive(fn func(w *models.Workout)) (models.Workout, bool) {
	if s.active == nil {
		return models.Workout{}, false
	}
	fn(s.active)
	return s.active.Clone(), true
}

func (s *fakeStore) ClearActive() {
	s.clears++
	s.active = nil
}

func (s *fakeStore) AppendHistory(w models.Workout) { s.history = append(s.history, w) }

func (s *fakeStore) Checklist() []string { return s.checklist }

func (s *fakeStore) PreviousOfType(t models.WorkoutType) []models.Workout {
	return models.PreviousOfType(s.history, t)
}

var testNow = time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMachine(store Store) (*Machine, *testClock) {
	clock := &testClock{t: testNow}
	n := 0
	m := New(store, Options{
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now: clock.now,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	return m, clock
}

func press(name string, weight float64, sets int) *models.Equipment {
	return &models.Equipment{Name: name, Weight: weight, TargetReps: 8, TargetSets: sets}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

// toPlanning drives a fresh machine to planning with an empty plan.
func toPlanning(t *testing.T, m *Machine, typ models.WorkoutType) {
	t.Helper()
	must(t, m.Begin(false))
	must(t, m.SelectType(typ))
	if m.Phase() == PhaseChecklist {
		must(t, m.ContinueChecklist())
	}
	must(t, m.Skip())
}

// toActive drives a fresh machine to an active Pull workout with the given exercises.
func toActive(t *testing.T, m *Machine, exercises ...models.Exercise) []string {
	t.Helper()
	toPlanning(t, m, models.WorkoutPull)
	ids := make([]string, len(exercises))
	for i, ex := range exercises {
		added, err := m.AddExercise(ex)
		must(t, err)
		ids[i] = added.ExerciseID()
	}
	must(t, m.Start())
	return ids
}

func prevPull() models.Workout {
	start := testNow.AddDate(0, 0, -2)
	end := start.Add(50 * time.Minute)
	w := 62.5
	dist := 2.1
	return models.Workout{
		ID:        "prev",
		Type:      models.WorkoutPull,
		Date:      start,
		StartTime: start,
		EndTime:   &end,
		Completed: true,
		Exercises: models.Exercises{
			&models.Equipment{ID: "p1", Name: "Row", Weight: 60, TargetReps: 10, TargetSets: 3,
				CompletedSets: 3, ActualWeight: &w, ActualReps: []int{10, 10, 9}, Completed: true},
			&models.Cardio{ID: "p2", Name: "Bike", TargetDistance: ptr(2), ActualDistance: &dist, Completed: true},
		},
	}
}

func ptr(v float64) *float64 { return &v }

// TestTransitions verifies every row of the phase table: firing the trigger in
// its source phase lands in exactly the listed target phase.
func TestTransitions(t *testing.T) {
	tests := []struct {
		name      string
		checklist []string
		history   []models.Workout
		steps     []func(m *Machine) error
		want      Phase
	}{
		{
			name:  "type chosen in past mode",
			steps: []func(*Machine) error{beginPast, selectPull},
			want:  PhaseDateSelection,
		},
		{
			name:      "type chosen with checklist",
			checklist: []string{"Towel"},
			steps:     []func(*Machine) error{begin, selectPull},
			want:      PhaseChecklist,
		},
		{
			name:  "type chosen without checklist",
			steps: []func(*Machine) error{begin, selectPull},
			want:  PhasePastWorkoutSelection,
		},
		{
			name:      "past mode ignores checklist",
			checklist: []string{"Towel"},
			steps:     []func(*Machine) error{beginPast, selectPull},
			want:      PhaseDateSelection,
		},
		{
			name: "date confirmed",
			steps: []func(*Machine) error{beginPast, selectPull, func(m *Machine) error {
				return m.ConfirmDate(testNow.AddDate(0, 0, -1))
			}},
			want: PhasePastWorkoutSelection,
		},
		{
			name:      "checklist continued",
			checklist: []string{"Towel"},
			steps:     []func(*Machine) error{begin, selectPull, (*Machine).ContinueChecklist},
			want:      PhasePastWorkoutSelection,
		},
		{
			name:    "previous workout picked",
			history: []models.Workout{prevPull()},
			steps: []func(*Machine) error{begin, selectPull, func(m *Machine) error {
				return m.PickPrevious("prev")
			}},
			want: PhasePlanning,
		},
		{
			name:  "skip",
			steps: []func(*Machine) error{begin, selectPull, (*Machine).Skip},
			want:  PhasePlanning,
		},
		{
			name:  "start",
			steps: []func(*Machine) error{begin, selectPull, (*Machine).Skip, addRow, (*Machine).Start},
			want:  PhaseActive,
		},
		{
			name: "start in past mode",
			steps: []func(*Machine) error{beginPast, selectPull, func(m *Machine) error {
				return m.ConfirmDate(testNow.AddDate(0, 0, -1))
			}, (*Machine).Skip, addRow, (*Machine).Start},
			want: PhaseSummary,
		},
		{
			name: "finish",
			steps: []func(*Machine) error{begin, selectPull, (*Machine).Skip, addRow, (*Machine).Start,
				toggleFirst, (*Machine).Finish},
			want: PhaseSummary,
		},
		{
			name:  "finish early",
			steps: []func(*Machine) error{begin, selectPull, (*Machine).Skip, addRow, (*Machine).Start, (*Machine).FinishEarly},
			want:  PhaseSummary,
		},
		{
			name: "close",
			steps: []func(*Machine) error{begin, selectPull, (*Machine).Skip, addRow, (*Machine).Start,
				(*Machine).FinishEarly, (*Machine).Close},
			want: PhaseTypeSelection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{checklist: tt.checklist, history: tt.history}
			m, _ := newTestMachine(store)
			for i, step := range tt.steps {
				if err := step(m); err != nil {
					t.Fatalf("step %d: %v", i, err)
				}
			}
			if m.Phase() != tt.want {
				t.Errorf("phase = %s, want %s", m.Phase(), tt.want)
			}
		})
	}
}

func begin(m *Machine) error      { return m.Begin(false) }
func beginPast(m *Machine) error  { return m.Begin(true) }
func selectPull(m *Machine) error { return m.SelectType(models.WorkoutPull) }

func addRow(m *Machine) error {
	_, err := m.AddExercise(press("Row", 60, 3))
	return err
}

func toggleFirst(m *Machine) error {
	w, _ := m.Workout()
	return m.ToggleComplete(w.Exercises[0].ExerciseID())
}

// TestCancelFromEveryPhase verifies cancel returns to type selection from any
// phase without writing history, and discards an active workout.
func TestCancelFromEveryPhase(t *testing.T) {
	drives := map[Phase]func(t *testing.T, m *Machine){
		PhaseTypeSelection: func(t *testing.T, m *Machine) {},
		PhaseDateSelection: func(t *testing.T, m *Machine) {
			must(t, m.Begin(true))
			must(t, m.SelectType(models.WorkoutLegs))
		},
		PhaseChecklist: func(t *testing.T, m *Machine) {
			must(t, m.SelectType(models.WorkoutLegs))
		},
		PhasePastWorkoutSelection: func(t *testing.T, m *Machine) {
			must(t, m.SelectType(models.WorkoutLegs))
			must(t, m.ContinueChecklist())
		},
		PhasePlanning: func(t *testing.T, m *Machine) {
			toPlanning(t, m, models.WorkoutLegs)
		},
		PhaseActive: func(t *testing.T, m *Machine) {
			toActive(t, m, press("Squat", 100, 5))
		},
	}
	for phase, drive := range drives {
		t.Run(string(phase), func(t *testing.T) {
			store := &fakeStore{checklist: []string{"Belt"}}
			m, _ := newTestMachine(store)
			drive(t, m)
			if m.Phase() != phase {
				t.Fatalf("setup reached %s, want %s", m.Phase(), phase)
			}

			m.Cancel()

			if m.Phase() != PhaseTypeSelection {
				t.Errorf("phase = %s, want type-selection", m.Phase())
			}
			if store.active != nil {
				t.Error("active workout survived cancel")
			}
			if len(store.history) != 0 {
				t.Errorf("history = %d workouts, want none", len(store.history))
			}
			if _, ok := m.Workout(); ok {
				t.Error("machine still holds a workout")
			}
		})
	}
}

// TestInvalidTransitions verifies triggers fired from the wrong phase are
// rejected and leave the phase unchanged.
func TestInvalidTransitions(t *testing.T) {
	m, _ := newTestMachine(&fakeStore{})
	triggers := map[string]func() error{
		"continue": m.ContinueChecklist,
		"skip":     m.Skip,
		"start":    m.Start,
		"finish":   m.Finish,
		"close":    m.Close,
		"date":     func() error { return m.ConfirmDate(testNow) },
		"pick":     func() error { return m.PickPrevious("x") },
		"toggle":   func() error { return m.ToggleComplete("x") },
		"distance": func() error { return m.SetTargetDistance(5) },
	}
	for name, fire := range triggers {
		if err := fire(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s: error = %v, want ErrInvalidTransition", name, err)
		}
		if m.Phase() != PhaseTypeSelection {
			t.Fatalf("%s moved machine to %s", name, m.Phase())
		}
	}

	if err := m.SelectType("Yoga"); err == nil {
		t.Error("SelectType(Yoga) succeeded")
	}
}

// TestPullScenario walks a Pull workout through the checklist, a blocked start,
// and an early finish with one skipped exercise.
func TestPullScenario(t *testing.T) {
	store := &fakeStore{checklist: []string{"Water bottle", "Towel", "Gym shoes"}}
	m, clock := newTestMachine(store)

	must(t, m.Begin(false))
	must(t, m.SelectType(models.WorkoutPull))
	if m.Phase() != PhaseChecklist {
		t.Fatalf("phase = %s, want checklist", m.Phase())
	}
	must(t, m.ContinueChecklist())
	if m.Phase() != PhasePastWorkoutSelection {
		t.Fatalf("phase = %s, want past-workout-selection", m.Phase())
	}
	must(t, m.Skip())

	w, _ := m.Workout()
	if m.Phase() != PhasePlanning || len(w.Exercises) != 0 {
		t.Fatalf("phase = %s with %d exercises, want empty plan", m.Phase(), len(w.Exercises))
	}
	if m.CanStart() {
		t.Error("CanStart with no exercises = true")
	}
	if err := m.Start(); !errors.Is(err, ErrCannotStart) {
		t.Fatalf("Start error = %v, want ErrCannotStart", err)
	}

	var ids []string
	for _, name := range []string{"Pull-up", "Row", "Curl"} {
		ex, err := m.AddExercise(press(name, 20, 3))
		must(t, err)
		ids = append(ids, ex.ExerciseID())
	}
	must(t, m.Start())
	if m.Phase() != PhaseActive {
		t.Fatalf("phase = %s, want active", m.Phase())
	}
	if store.active == nil || store.active.ID != w.ID {
		t.Fatal("active slot not written on start")
	}

	must(t, m.ToggleComplete(ids[0]))
	must(t, m.ToggleComplete(ids[1]))
	clock.advance(47 * time.Minute)

	if err := m.Finish(); !errors.Is(err, ErrNotAllCompleted) {
		t.Fatalf("Finish error = %v, want ErrNotAllCompleted", err)
	}
	must(t, m.FinishEarly())

	sum, ok := m.Summary()
	if !ok {
		t.Fatalf("no summary in phase %s", m.Phase())
	}
	if got := sum.Ratio(); got != "2/3" {
		t.Errorf("Ratio = %q, want 2/3", got)
	}
	if len(sum.Skipped) != 1 || sum.Skipped[0].ExerciseName() != "Curl" {
		t.Errorf("Skipped = %v, want [Curl]", sum.Skipped)
	}
	if sum.Duration != "47m" {
		t.Errorf("Duration = %q, want 47m", sum.Duration)
	}

	if len(store.history) != 1 {
		t.Fatalf("history = %d workouts, want 1", len(store.history))
	}
	h := store.history[0]
	if !h.Completed || h.EndTime == nil || !h.EndTime.Equal(clock.t) {
		t.Errorf("history entry completed=%v end=%v, want completed at %v", h.Completed, h.EndTime, clock.t)
	}
	if h.CompletedCount() != 2 {
		t.Errorf("history completed count = %d, want 2", h.CompletedCount())
	}
	if store.active == nil {
		t.Fatal("active slot cleared before the summary was closed")
	}

	must(t, m.Close())
	if store.active != nil {
		t.Error("active slot not cleared by Close")
	}
	if m.Phase() != PhaseTypeSelection {
		t.Errorf("phase = %s, want type-selection", m.Phase())
	}
}

// TestSwimScenario verifies a swim plan with a 1000 m target starts right away
// as a single swim exercise.
func TestSwimScenario(t *testing.T) {
	store := &fakeStore{}
	m, _ := newTestMachine(store)
	toPlanning(t, m, models.WorkoutSwim)

	if err := m.SetTargetDistance(0); !errors.Is(err, models.ErrValidation) {
		t.Errorf("SetTargetDistance(0) error = %v, want validation error", err)
	}
	if m.CanStart() {
		t.Error("CanStart without distance = true")
	}
	must(t, m.SetTargetDistance(800))
	w, _ := m.Workout()
	firstID := w.Exercises[0].ExerciseID()
	must(t, m.SetTargetDistance(1000))
	must(t, m.Start())

	if m.Phase() != PhaseActive {
		t.Fatalf("phase = %s, want active", m.Phase())
	}
	w, _ = m.Workout()
	if len(w.Exercises) != 1 {
		t.Fatalf("exercises = %d, want 1", len(w.Exercises))
	}
	swim, ok := w.Exercises[0].(*models.Swim)
	if !ok {
		t.Fatalf("exercise = %T, want *models.Swim", w.Exercises[0])
	}
	if swim.TargetDistance != 1000 {
		t.Errorf("TargetDistance = %v, want 1000", swim.TargetDistance)
	}
	if swim.ID != firstID {
		t.Errorf("id = %s, want %s kept across distance changes", swim.ID, firstID)
	}

	if _, err := m.AddExercise(press("Bench", 50, 3)); !errors.Is(err, models.ErrValidation) {
		t.Errorf("adding equipment to swim error = %v, want validation error", err)
	}
	must(t, m.RecordDistance(swim.ID, 1000))
	must(t, m.ToggleComplete(swim.ID))
	must(t, m.Finish())
}

// TestDistanceWorkoutsHoldOneEntry verifies swims and runs cannot gain a
// second distance exercise next to the planned target.
func TestDistanceWorkoutsHoldOneEntry(t *testing.T) {
	for _, typ := range []models.WorkoutType{models.WorkoutSwim, models.WorkoutRunOutdoor} {
		t.Run(string(typ), func(t *testing.T) {
			m, _ := newTestMachine(&fakeStore{})
			toPlanning(t, m, typ)
			must(t, m.SetTargetDistance(1000))

			var extra models.Exercise = &models.Swim{Name: "Extra", TargetDistance: 500}
			if typ.IsRun() {
				extra = &models.Run{Name: "Extra", TargetDistance: 5}
			}
			if _, err := m.AddExercise(extra); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("AddExercise in planning error = %v, want ErrInvalidTransition", err)
			}
			must(t, m.Start())
			if _, err := m.AddExercise(extra); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("AddExercise while active error = %v, want ErrInvalidTransition", err)
			}
			if w, _ := m.Workout(); len(w.Exercises) != 1 {
				t.Errorf("exercises = %d, want 1", len(w.Exercises))
			}
		})
	}
}

// TestToggledEquipmentAddsNoVolume verifies the completed flag drives the
// summary counts while volume only follows logged sets.
func TestToggledEquipmentAddsNoVolume(t *testing.T) {
	m, _ := newTestMachine(&fakeStore{})
	ids := toActive(t, m, press("Row", 50, 2), press("Curl", 10, 2))

	must(t, m.ToggleComplete(ids[0]))
	must(t, m.LogSet(ids[1], 8, nil))
	must(t, m.LogSet(ids[1], 6, nil))
	must(t, m.Finish())

	s, ok := m.Summary()
	if !ok {
		t.Fatal("no summary after finish")
	}
	if s.Ratio() != "2/2" {
		t.Errorf("ratio = %s, want 2/2", s.Ratio())
	}
	row := s.Workout.Exercises[0].(*models.Equipment)
	if !row.Completed || row.CompletedSets != 0 {
		t.Errorf("row completed=%v sets=%d, want completed with 0 sets", row.Completed, row.CompletedSets)
	}
	if s.Volume != 140 {
		t.Errorf("volume = %v, want 140", s.Volume)
	}
}

// TestPickPreviousResetsProgress verifies the cloned plan has the same targets
// with fresh ids and no progress, and the source workout is untouched.
func TestPickPreviousResetsProgress(t *testing.T) {
	prev := prevPull()
	store := &fakeStore{history: []models.Workout{prev}}
	m, _ := newTestMachine(store)

	must(t, m.Begin(false))
	must(t, m.SelectType(models.WorkoutPull))
	if got := m.Candidates(); len(got) != 1 || got[0].ID != "prev" {
		t.Fatalf("Candidates = %v, want [prev]", got)
	}
	if err := m.PickPrevious("missing"); !errors.Is(err, ErrWorkoutNotFound) {
		t.Errorf("PickPrevious(missing) error = %v, want ErrWorkoutNotFound", err)
	}
	must(t, m.PickPrevious("prev"))

	w, _ := m.Workout()
	if len(w.Exercises) != len(prev.Exercises) {
		t.Fatalf("exercises = %d, want %d", len(w.Exercises), len(prev.Exercises))
	}
	seen := map[string]bool{}
	for i, ex := range w.Exercises {
		id := ex.ExerciseID()
		if id == prev.Exercises[i].ExerciseID() || seen[id] {
			t.Errorf("exercise %d id %q is not fresh", i, id)
		}
		seen[id] = true
		if ex.IsCompleted() {
			t.Errorf("exercise %d still completed", i)
		}
	}

	row := w.Exercises[0].(*models.Equipment)
	if row.CompletedSets != 0 || row.ActualWeight != nil || row.ActualReps != nil {
		t.Errorf("row progress = %d sets, weight %v, reps %v, want none", row.CompletedSets, row.ActualWeight, row.ActualReps)
	}
	if row.Weight != 60 || row.TargetReps != 10 || row.TargetSets != 3 {
		t.Errorf("row targets = %v/%d/%d, want 60/10/3", row.Weight, row.TargetReps, row.TargetSets)
	}
	bike := w.Exercises[1].(*models.Cardio)
	if bike.ActualDistance != nil || bike.TargetDistance == nil || *bike.TargetDistance != 2 {
		t.Errorf("bike = actual %v target %v, want no actual and target 2", bike.ActualDistance, bike.TargetDistance)
	}

	src := store.history[0].Exercises[0].(*models.Equipment)
	if !src.Completed || src.CompletedSets != 3 {
		t.Error("source workout was modified")
	}
}

// TestPastWorkoutAutoFinish verifies a past workout is completed with actuals
// defaulted to targets and an end time derived from the entered duration.
func TestPastWorkoutAutoFinish(t *testing.T) {
	store := &fakeStore{checklist: []string{"Towel"}}
	m, _ := newTestMachine(store)
	day := time.Date(2024, 6, 12, 7, 30, 0, 0, time.UTC)

	must(t, m.Begin(true))
	must(t, m.SelectType(models.WorkoutPush))
	if err := m.ConfirmDate(time.Time{}); !errors.Is(err, ErrDateRequired) {
		t.Errorf("ConfirmDate(zero) error = %v, want ErrDateRequired", err)
	}
	if err := m.ConfirmDate(testNow.AddDate(0, 0, 2)); !errors.Is(err, ErrFutureDate) {
		t.Errorf("ConfirmDate(future) error = %v, want ErrFutureDate", err)
	}
	must(t, m.ConfirmDate(day))
	must(t, m.Skip())
	if m.Duration() != DefaultPastDuration {
		t.Errorf("Duration = %d, want default %d", m.Duration(), DefaultPastDuration)
	}

	_, err := m.AddExercise(press("Bench", 80, 4))
	must(t, err)
	_, err = m.AddExercise(&models.Cardio{Name: "Rower", TargetDistance: ptr(5), ActualDistance: ptr(4)})
	must(t, err)
	_, err = m.AddExercise(&models.Cardio{Name: "Stairs", TargetDuration: ptr(10)})
	must(t, err)
	must(t, m.SetDuration(45))
	must(t, m.Start())

	if m.Phase() != PhaseSummary {
		t.Fatalf("phase = %s, want summary", m.Phase())
	}
	if store.sets != 0 || store.active != nil {
		t.Error("past workout touched the active slot")
	}
	if len(store.history) != 1 {
		t.Fatalf("history = %d workouts, want 1", len(store.history))
	}
	w := store.history[0]
	if !w.Completed || !w.Date.Equal(day) || !w.StartTime.Equal(day) {
		t.Errorf("workout completed=%v date=%v start=%v, want completed on %v", w.Completed, w.Date, w.StartTime, day)
	}
	if got := w.Duration(); got != 45*time.Minute {
		t.Errorf("duration = %v, want 45m", got)
	}
	for _, ex := range w.Exercises {
		if !ex.IsCompleted() {
			t.Errorf("%s not completed", ex.ExerciseName())
		}
	}

	bench := w.Exercises[0].(*models.Equipment)
	if bench.CompletedSets != 4 || bench.ActualWeight == nil || *bench.ActualWeight != 80 || len(bench.ActualReps) != 4 {
		t.Errorf("bench = %d sets, weight %v, reps %v, want targets copied", bench.CompletedSets, bench.ActualWeight, bench.ActualReps)
	}
	rower := w.Exercises[1].(*models.Cardio)
	if *rower.ActualDistance != 4 {
		t.Errorf("rower actual distance = %v, want entered 4 kept", *rower.ActualDistance)
	}
	stairs := w.Exercises[2].(*models.Cardio)
	if stairs.ActualDuration == nil || *stairs.ActualDuration != 10 || stairs.ActualDistance != nil {
		t.Errorf("stairs = distance %v duration %v, want duration 10 only", stairs.ActualDistance, stairs.ActualDuration)
	}

	must(t, m.Close())
	if store.clears != 0 {
		t.Error("closing a past workout cleared the active slot")
	}
}

// TestSetDurationOnlyInPastMode verifies the duration is rejected for live workouts.
func TestSetDurationOnlyInPastMode(t *testing.T) {
	m, _ := newTestMachine(&fakeStore{})
	toPlanning(t, m, models.WorkoutLegs)
	if err := m.SetDuration(30); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("SetDuration error = %v, want ErrInvalidTransition", err)
	}
}

// TestResumeDuringSummary documents that reloading between finish and closing
// the summary resumes into the active phase with an already completed workout,
// because the active slot is only cleared on close.
func TestResumeDuringSummary(t *testing.T) {
	store := &fakeStore{}
	m, _ := newTestMachine(store)
	ids := toActive(t, m, press("Row", 60, 3))
	must(t, m.ToggleComplete(ids[0]))
	must(t, m.Finish())

	reloaded, _ := newTestMachine(store)
	if reloaded.Phase() != PhaseActive {
		t.Fatalf("phase after reload = %s, want active", reloaded.Phase())
	}
	w, ok := reloaded.Workout()
	if !ok || !w.Completed || w.EndTime == nil {
		t.Errorf("resumed workout completed=%v end=%v, want the finished workout", w.Completed, w.EndTime)
	}
	if len(store.history) != 1 {
		t.Errorf("history = %d workouts, want 1", len(store.history))
	}
}

// TestResumeActive verifies an unfinished workout in the store is resumed with
// its elapsed time derived from the start time.
func TestResumeActive(t *testing.T) {
	store := &fakeStore{}
	m, clock := newTestMachine(store)
	ids := toActive(t, m, press("Row", 60, 3), press("Curl", 15, 3))
	must(t, m.ToggleComplete(ids[0]))

	clock.advance(12 * time.Minute)
	reloaded := New(store, Options{Log: slog.New(slog.NewTextHandler(io.Discard, nil)), Now: clock.now})
	if reloaded.Phase() != PhaseActive {
		t.Fatalf("phase = %s, want active", reloaded.Phase())
	}
	if got := reloaded.Elapsed(clock.t); got != 12*time.Minute {
		t.Errorf("Elapsed = %v, want 12m", got)
	}
	must(t, reloaded.ToggleComplete(ids[1]))
	must(t, reloaded.Finish())
}

// TestLogSet verifies sets are recorded, the last target set completes the
// exercise and extra sets are refused.
func TestLogSet(t *testing.T) {
	store := &fakeStore{}
	m, _ := newTestMachine(store)
	ids := toActive(t, m, press("Row", 60, 2), &models.Cardio{Name: "Bike", TargetDuration: ptr(15)})

	must(t, m.LogSet(ids[0], 8, ptr(62.5)))
	w, _ := m.Workout()
	row := w.Exercises[0].(*models.Equipment)
	if row.CompletedSets != 1 || row.Completed {
		t.Errorf("after one set = %d sets, completed %v", row.CompletedSets, row.Completed)
	}
	must(t, m.LogSet(ids[0], 7, nil))
	w, _ = m.Workout()
	row = w.Exercises[0].(*models.Equipment)
	if !row.Completed || row.CompletedSets != 2 {
		t.Errorf("after last set = %d sets, completed %v, want 2 and completed", row.CompletedSets, row.Completed)
	}
	if len(row.ActualReps) != 2 || row.ActualReps[0] != 8 || row.ActualReps[1] != 7 {
		t.Errorf("ActualReps = %v, want [8 7]", row.ActualReps)
	}
	if row.ActualWeight == nil || *row.ActualWeight != 62.5 {
		t.Errorf("ActualWeight = %v, want 62.5", row.ActualWeight)
	}
	if err := m.LogSet(ids[0], 8, nil); !errors.Is(err, ErrAllSetsLogged) {
		t.Errorf("extra set error = %v, want ErrAllSetsLogged", err)
	}
	if err := m.LogSet(ids[1], 8, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("set on cardio error = %v, want ErrInvalidTransition", err)
	}
	must(t, m.RecordDuration(ids[1], 16))

	saved, _ := store.Active()
	if saved.CompletedCount() != 1 {
		t.Errorf("stored completed count = %d, want progress persisted", saved.CompletedCount())
	}
}

// TestStreakNeverDecrements verifies the streak counts increases of the
// completed count and ignores toggling back off.
func TestStreakNeverDecrements(t *testing.T) {
	m, _ := newTestMachine(&fakeStore{})
	ids := toActive(t, m, press("Row", 60, 3), press("Curl", 15, 3))

	must(t, m.ToggleComplete(ids[0]))
	must(t, m.ToggleComplete(ids[0]))
	if m.Streak() != 1 {
		t.Errorf("Streak after on/off = %d, want 1", m.Streak())
	}
	must(t, m.ToggleComplete(ids[0]))
	must(t, m.ToggleComplete(ids[1]))
	if m.Streak() != 3 {
		t.Errorf("Streak = %d, want 3", m.Streak())
	}
}

// TestUpdateExerciseKeepsProgress verifies editing targets during a workout
// keeps the recorded sets and completion.
func TestUpdateExerciseKeepsProgress(t *testing.T) {
	m, _ := newTestMachine(&fakeStore{})
	ids := toActive(t, m, press("Row", 60, 3))
	must(t, m.LogSet(ids[0], 8, nil))
	must(t, m.ToggleComplete(ids[0]))

	edit := press("Cable row", 70, 4)
	edit.ID = ids[0]
	must(t, m.UpdateExercise(edit))

	w, _ := m.Workout()
	row := w.Exercises[0].(*models.Equipment)
	if row.Name != "Cable row" || row.Weight != 70 || row.TargetSets != 4 {
		t.Errorf("targets = %s %v %d, want edited", row.Name, row.Weight, row.TargetSets)
	}
	if row.CompletedSets != 1 || !row.Completed || len(row.ActualReps) != 1 {
		t.Errorf("progress = %d sets, completed %v, reps %v, want kept", row.CompletedSets, row.Completed, row.ActualReps)
	}

	bad := press("", 70, 4)
	bad.ID = ids[0]
	if err := m.UpdateExercise(bad); !errors.Is(err, models.ErrValidation) {
		t.Errorf("blank name error = %v, want validation error", err)
	}
	must(t, m.RemoveExercise(ids[0]))
	if err := m.RemoveExercise(ids[0]); !errors.Is(err, ErrExerciseNotFound) {
		t.Errorf("second remove error = %v, want ErrExerciseNotFound", err)
	}
	if err := m.FinishEarly(); !errors.Is(err, ErrNoExercises) {
		t.Errorf("FinishEarly with no exercises error = %v, want ErrNoExercises", err)
	}
}

// TestAddExerciseValidation verifies invalid forms are not committed.
func TestAddExerciseValidation(t *testing.T) {
	m, _ := newTestMachine(&fakeStore{})
	toPlanning(t, m, models.WorkoutPush)

	tests := []struct {
		ex   models.Exercise
		want string
	}{
		{&models.Equipment{Name: " ", Weight: 1, TargetReps: 1, TargetSets: 1}, "Please enter an exercise name"},
		{&models.Equipment{Name: "Bench", Weight: 0, TargetReps: 1, TargetSets: 1}, "Please fill in all fields"},
		{&models.Cardio{Name: "Bike"}, "Please enter either distance or duration"},
		{&models.Run{Name: "Run", TargetDistance: 5}, "run exercises cannot be added to a Push workout"},
	}
	for _, tt := range tests {
		_, err := m.AddExercise(tt.ex)
		var verr *models.ValidationError
		if !errors.As(err, &verr) || verr.Msg != tt.want {
			t.Errorf("AddExercise(%s) error = %v, want %q", tt.ex.ExerciseName(), err, tt.want)
		}
	}
	if w, _ := m.Workout(); len(w.Exercises) != 0 {
		t.Errorf("plan has %d exercises after rejected adds", len(w.Exercises))
	}
}
