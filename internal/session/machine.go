// Package session drives one workout from choosing its type to the summary
// shown after it is finished.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/workoutlog/internal/models"
	"github.com/google/uuid"
)

// Phase is the step of the workout flow the user is on.
type Phase string

const (
	PhaseTypeSelection        Phase = "type-selection"
	PhaseDateSelection        Phase = "date-selection"
	PhaseChecklist            Phase = "checklist"
	PhasePastWorkoutSelection Phase = "past-workout-selection"
	PhasePlanning             Phase = "planning"
	PhaseActive               Phase = "active"
	PhaseSummary              Phase = "summary"
)

// DefaultPastDuration is the length assumed for a retroactively logged workout.
const DefaultPastDuration = 60

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrCannotStart       = errors.New("workout cannot be started")
	ErrNotAllCompleted   = errors.New("not all exercises are completed")
	ErrNoExercises       = errors.New("workout has no exercises")
	ErrExerciseNotFound  = errors.New("exercise not found")
	ErrWorkoutNotFound   = errors.New("previous workout not found")
	ErrDateRequired      = errors.New("date is required")
	ErrFutureDate        = errors.New("date is in the future")
	ErrAllSetsLogged     = errors.New("all sets already logged")
)

// Store is the persistence the machine needs. *workout.Repository implements it.
type Store interface {
	Active() (models.Workout, bool)
	SetActive(w models.Workout)
	UpdateActive(fn func(w *models.Workout)) (models.Workout, bool)
	ClearActive()
	AppendHistory(w models.Workout)
	Checklist() []string
	PreviousOfType(t models.WorkoutType) []models.Workout
}

// Options configures a Machine. Zero values select the defaults.
type Options struct {
	Log   *slog.Logger
	Now   func() time.Time
	NewID func() string
}

// Machine is the workout flow for one user. It is not safe for concurrent use.
type Machine struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
	newID func() string

	phase       Phase
	pastMode    bool
	workoutType models.WorkoutType
	date        time.Time
	duration    int
	workout     *models.Workout

	streak        int
	lastCompleted int
}

// New returns a machine at type selection, or in the active phase when the
// store still holds an active workout from an earlier run.
func New(store Store, opts Options) *Machine {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	m := &Machine{
		store: store,
		log:   opts.Log,
		now:   opts.Now,
		newID: opts.NewID,
		phase: PhaseTypeSelection,
	}
	m.reset(false)

	if w, ok := store.Active(); ok {
		w = w.Clone()
		m.phase = PhaseActive
		m.workout = &w
		m.workoutType = w.Type
		m.date = w.Date
		m.lastCompleted = w.CompletedCount()
		m.log.Info("resuming active workout", "id", w.ID, "type", w.Type, "completed", w.Completed)
	}
	return m
}

func (m *Machine) reset(pastMode bool) {
	m.phase = PhaseTypeSelection
	m.pastMode = pastMode
	m.workoutType = ""
	m.date = time.Time{}
	m.duration = DefaultPastDuration
	m.workout = nil
	m.streak = 0
	m.lastCompleted = 0
}

func (m *Machine) expect(trigger string, phases ...Phase) error {
	for _, p := range phases {
		if m.phase == p {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in phase %s", ErrInvalidTransition, trigger, m.phase)
}

func (m *Machine) moveTo(p Phase) {
	m.log.Debug("session phase", "from", m.phase, "to", p)
	m.phase = p
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// PastMode reports whether the flow logs a workout that already happened.
func (m *Machine) PastMode() bool { return m.pastMode }

// Type returns the selected workout type, or "" before one is chosen.
func (m *Machine) Type() models.WorkoutType { return m.workoutType }

// Date returns the confirmed date of a past workout.
func (m *Machine) Date() time.Time { return m.date }

// Duration returns the minute count used to close a past workout.
func (m *Machine) Duration() int { return m.duration }

// Workout returns a copy of the workout being planned, tracked or summarised.
func (m *Machine) Workout() (models.Workout, bool) {
	if m.workout == nil {
		return models.Workout{}, false
	}
	return m.workout.Clone(), true
}

// Begin starts a new flow at type selection, logging a past workout when pastMode is set.
func (m *Machine) Begin(pastMode bool) error {
	if err := m.expect("begin", PhaseTypeSelection); err != nil {
		return err
	}
	m.reset(pastMode)
	return nil
}

// SelectType records t and moves to date selection in past mode, to the
// checklist when it has items, or straight to picking a previous workout.
func (m *Machine) SelectType(t models.WorkoutType) error {
	if err := m.expect("select type", PhaseTypeSelection); err != nil {
		return err
	}
	if !t.Valid() {
		return fmt.Errorf("unknown workout type %q", t)
	}
	m.workoutType = t
	switch {
	case m.pastMode:
		m.moveTo(PhaseDateSelection)
	case len(m.store.Checklist()) > 0:
		m.moveTo(PhaseChecklist)
	default:
		m.moveTo(PhasePastWorkoutSelection)
	}
	return nil
}

// ConfirmDate sets the day a past workout took place.
func (m *Machine) ConfirmDate(d time.Time) error {
	if err := m.expect("confirm date", PhaseDateSelection); err != nil {
		return err
	}
	if d.IsZero() {
		return ErrDateRequired
	}
	if d.After(m.now()) {
		return ErrFutureDate
	}
	m.date = d
	m.moveTo(PhasePastWorkoutSelection)
	return nil
}

// ContinueChecklist acknowledges the pre-workout checklist.
func (m *Machine) ContinueChecklist() error {
	if err := m.expect("continue", PhaseChecklist); err != nil {
		return err
	}
	m.moveTo(PhasePastWorkoutSelection)
	return nil
}

// Candidates returns the completed workouts of the selected type that can be
// used as a template, newest first.
func (m *Machine) Candidates() []models.Workout {
	if m.phase != PhasePastWorkoutSelection {
		return nil
	}
	return m.store.PreviousOfType(m.workoutType)
}

// PickPrevious plans a workout with the exercises of the previous workout id.
// The copies get new ids and no progress.
func (m *Machine) PickPrevious(id string) error {
	if err := m.expect("pick previous", PhasePastWorkoutSelection); err != nil {
		return err
	}
	for _, prev := range m.Candidates() {
		if prev.ID != id {
			continue
		}
		w := m.newPlan()
		for _, ex := range prev.Exercises {
			w.Exercises = append(w.Exercises, models.ResetProgress(ex, m.newID()))
		}
		m.workout = &w
		m.moveTo(PhasePlanning)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrWorkoutNotFound, id)
}

// Skip plans a workout from scratch.
func (m *Machine) Skip() error {
	if err := m.expect("skip", PhasePastWorkoutSelection); err != nil {
		return err
	}
	w := m.newPlan()
	m.workout = &w
	m.moveTo(PhasePlanning)
	return nil
}

func (m *Machine) newPlan() models.Workout {
	when := m.now()
	if m.pastMode {
		when = m.date
	}
	return models.Workout{
		ID:        m.newID(),
		Type:      m.workoutType,
		Date:      when,
		StartTime: when,
		Exercises: models.Exercises{},
	}
}

// AddExercise validates ex and appends it to the plan or the active workout.
// An empty id is filled in. Swim and run workouts hold a single distance
// entry, so a second one is rejected; use SetTargetDistance to change it.
func (m *Machine) AddExercise(ex models.Exercise) (models.Exercise, error) {
	if err := m.expect("add exercise", PhasePlanning, PhaseActive); err != nil {
		return nil, err
	}
	if err := m.checkExercise(ex); err != nil {
		return nil, err
	}
	if !m.workoutType.IsStrength() && len(m.workout.Exercises) > 0 {
		return nil, fmt.Errorf("%w: %s workouts hold a single distance entry", ErrInvalidTransition, m.workoutType)
	}
	ex = models.CloneExercise(ex)
	if ex.ExerciseID() == "" {
		ex = withID(ex, m.newID())
	}
	m.workout.Exercises = append(m.workout.Exercises, ex)
	m.persist()
	return models.CloneExercise(ex), nil
}

// UpdateExercise replaces the targets of the exercise with ex's id. Progress
// already recorded on it is kept.
func (m *Machine) UpdateExercise(ex models.Exercise) error {
	if err := m.expect("update exercise", PhasePlanning, PhaseActive); err != nil {
		return err
	}
	i := m.index(ex.ExerciseID())
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrExerciseNotFound, ex.ExerciseID())
	}
	next := models.CloneExercise(ex)
	prev := m.workout.Exercises[i]
	if e, ok := next.(*models.Equipment); ok {
		if p, ok := prev.(*models.Equipment); ok {
			e.CompletedSets = min(p.CompletedSets, e.TargetSets)
			e.ActualReps = p.ActualReps
			e.ActualWeight = p.ActualWeight
		} else {
			e.CompletedSets = 0
		}
	}
	models.SetCompleted(next, prev.IsCompleted())
	if err := m.checkExercise(next); err != nil {
		return err
	}
	m.workout.Exercises[i] = next
	m.persist()
	return nil
}

// RemoveExercise drops the exercise with the given id.
func (m *Machine) RemoveExercise(id string) error {
	if err := m.expect("remove exercise", PhasePlanning, PhaseActive); err != nil {
		return err
	}
	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrExerciseNotFound, id)
	}
	m.workout.Exercises = append(m.workout.Exercises[:i], m.workout.Exercises[i+1:]...)
	m.persist()
	return nil
}

// SetTargetDistance plans a swim (metres) or run (km) as a single distance goal.
func (m *Machine) SetTargetDistance(d float64) error {
	if err := m.expect("set target distance", PhasePlanning); err != nil {
		return err
	}
	var ex models.Exercise
	switch {
	case m.workoutType.IsSwim():
		ex = &models.Swim{Name: string(m.workoutType), TargetDistance: d}
	case m.workoutType.IsRun():
		ex = &models.Run{Name: string(m.workoutType), TargetDistance: d}
	default:
		return fmt.Errorf("%w: %s workouts are planned by exercise", ErrInvalidTransition, m.workoutType)
	}
	if err := models.ValidateExercise(ex); err != nil {
		return err
	}
	id := m.newID()
	if len(m.workout.Exercises) > 0 {
		id = m.workout.Exercises[0].ExerciseID()
	}
	m.workout.Exercises = models.Exercises{withID(ex, id)}
	return nil
}

// SetDuration sets how many minutes a past workout lasted.
func (m *Machine) SetDuration(minutes int) error {
	if err := m.expect("set duration", PhasePlanning); err != nil {
		return err
	}
	if !m.pastMode {
		return fmt.Errorf("%w: duration is only entered for past workouts", ErrInvalidTransition)
	}
	if minutes <= 0 {
		return &models.ValidationError{Msg: "Please enter a duration"}
	}
	m.duration = minutes
	return nil
}

// CanStart reports whether the plan can be started: strength workouts need an
// exercise, swims and runs a positive target distance.
func (m *Machine) CanStart() bool {
	if m.phase != PhasePlanning || m.workout == nil {
		return false
	}
	if m.workoutType.IsStrength() {
		return len(m.workout.Exercises) > 0
	}
	for _, ex := range m.workout.Exercises {
		switch e := ex.(type) {
		case *models.Swim:
			return e.TargetDistance > 0
		case *models.Run:
			return e.TargetDistance > 0
		}
	}
	return false
}

// Start begins tracking the plan. In past mode the workout is recorded as
// completed right away and the summary is shown instead.
func (m *Machine) Start() error {
	if err := m.expect("start", PhasePlanning); err != nil {
		return err
	}
	if !m.CanStart() {
		return ErrCannotStart
	}

	if m.pastMode {
		for _, ex := range m.workout.Exercises {
			models.FillFromTargets(ex)
		}
		end := m.workout.StartTime.Add(time.Duration(m.duration) * time.Minute)
		m.workout.EndTime = &end
		m.workout.Completed = true
		m.store.AppendHistory(m.workout.Clone())
		m.log.Info("past workout logged", "id", m.workout.ID, "type", m.workout.Type, "date", m.date.Format(time.DateOnly))
		m.moveTo(PhaseSummary)
		return nil
	}

	now := m.now()
	m.workout.Date = now
	m.workout.StartTime = now
	m.streak = 0
	m.lastCompleted = m.workout.CompletedCount()
	m.store.SetActive(m.workout.Clone())
	m.log.Info("workout started", "id", m.workout.ID, "type", m.workout.Type, "exercises", len(m.workout.Exercises))
	m.moveTo(PhaseActive)
	return nil
}

// ToggleComplete flips the completed flag of an exercise. The flag is what
// completion counts and the summary go by; for equipment it leaves
// CompletedSets alone, so a toggled exercise without logged sets adds no
// volume.
func (m *Machine) ToggleComplete(id string) error {
	ex, err := m.activeExercise("toggle", id)
	if err != nil {
		return err
	}
	models.SetCompleted(ex, !ex.IsCompleted())
	m.progressed()
	return nil
}

// LogSet records one set of an equipment exercise. weight, when set, becomes
// the actual weight. Logging the last target set completes the exercise.
func (m *Machine) LogSet(id string, reps int, weight *float64) error {
	ex, err := m.activeExercise("log set", id)
	if err != nil {
		return err
	}
	e, ok := ex.(*models.Equipment)
	if !ok {
		return fmt.Errorf("%w: %s exercises have no sets", ErrInvalidTransition, ex.Kind())
	}
	if reps <= 0 {
		return &models.ValidationError{Msg: "Please enter the reps"}
	}
	if e.CompletedSets >= e.TargetSets {
		return ErrAllSetsLogged
	}
	e.ActualReps = append(e.ActualReps, reps)
	if weight != nil {
		w := *weight
		e.ActualWeight = &w
	}
	e.CompletedSets++
	if e.CompletedSets == e.TargetSets {
		e.Completed = true
	}
	m.progressed()
	return nil
}

// RecordDistance stores the distance covered on a cardio, swim or run exercise.
func (m *Machine) RecordDistance(id string, d float64) error {
	ex, err := m.activeExercise("record distance", id)
	if err != nil {
		return err
	}
	if d < 0 {
		return &models.ValidationError{Msg: "Please enter a valid distance"}
	}
	switch e := ex.(type) {
	case *models.Cardio:
		e.ActualDistance = &d
	case *models.Swim:
		e.ActualDistance = &d
	case *models.Run:
		e.ActualDistance = &d
	case *models.Equipment:
		return fmt.Errorf("%w: equipment exercises have no distance", ErrInvalidTransition)
	default:
		panic(fmt.Sprintf("session: unhandled exercise %T", ex))
	}
	m.progressed()
	return nil
}

// RecordDuration stores the minutes spent on a cardio exercise.
func (m *Machine) RecordDuration(id string, minutes float64) error {
	ex, err := m.activeExercise("record duration", id)
	if err != nil {
		return err
	}
	e, ok := ex.(*models.Cardio)
	if !ok {
		return fmt.Errorf("%w: %s exercises have no duration", ErrInvalidTransition, ex.Kind())
	}
	if minutes < 0 {
		return &models.ValidationError{Msg: "Please enter a valid duration"}
	}
	e.ActualDuration = &minutes
	m.progressed()
	return nil
}

// Finish completes a workout whose exercises are all done.
func (m *Machine) Finish() error {
	if err := m.expect("finish", PhaseActive); err != nil {
		return err
	}
	if len(m.workout.Exercises) == 0 || m.workout.CompletedCount() < len(m.workout.Exercises) {
		return ErrNotAllCompleted
	}
	m.finish()
	return nil
}

// FinishEarly completes the workout with whatever progress it has.
func (m *Machine) FinishEarly() error {
	if err := m.expect("finish early", PhaseActive); err != nil {
		return err
	}
	if len(m.workout.Exercises) == 0 {
		return ErrNoExercises
	}
	m.finish()
	return nil
}

// finish records the workout in the history. The active slot keeps the
// completed copy until the summary is closed.
func (m *Machine) finish() {
	end := m.now()
	m.workout.EndTime = &end
	m.workout.Completed = true
	done := m.workout.Clone()
	m.store.AppendHistory(done)
	m.store.UpdateActive(func(w *models.Workout) { *w = done.Clone() })
	m.log.Info("workout finished", "id", done.ID, "type", done.Type,
		"completed", done.CompletedCount(), "total", len(done.Exercises))
	m.moveTo(PhaseSummary)
}

// Close dismisses the summary and frees the active slot.
func (m *Machine) Close() error {
	if err := m.expect("close", PhaseSummary); err != nil {
		return err
	}
	if !m.pastMode {
		m.clearActive()
	}
	m.reset(false)
	return nil
}

// Cancel abandons the flow from any phase. A workout being tracked is
// discarded without being added to the history.
func (m *Machine) Cancel() {
	if !m.pastMode {
		m.clearActive()
	}
	if m.workout != nil {
		m.log.Info("workout cancelled", "id", m.workout.ID, "phase", m.phase)
	}
	m.moveTo(PhaseTypeSelection)
	m.reset(false)
}

func (m *Machine) clearActive() {
	if _, ok := m.store.Active(); ok {
		m.store.ClearActive()
	}
}

// Elapsed returns the time spent on the workout so far, or its final duration
// once finished.
func (m *Machine) Elapsed(now time.Time) time.Duration {
	if m.workout == nil {
		return 0
	}
	switch m.phase {
	case PhaseActive:
		if m.workout.EndTime != nil {
			return m.workout.Duration()
		}
		return now.Sub(m.workout.StartTime)
	case PhaseSummary:
		return m.workout.Duration()
	default:
		return 0
	}
}

// Streak counts how often the completed count went up while tracking. It is
// never decremented.
func (m *Machine) Streak() int { return m.streak }

// Summary describes a finished workout.
type Summary struct {
	Workout   models.Workout
	Completed int
	Total     int
	Skipped   []models.Exercise
	Duration  string
	Volume    float64
}

// Ratio renders the completion as "2/3".
func (s Summary) Ratio() string {
	return fmt.Sprintf("%d/%d", s.Completed, s.Total)
}

// Summary returns the summary of the finished workout.
func (m *Machine) Summary() (Summary, bool) {
	if m.phase != PhaseSummary || m.workout == nil {
		return Summary{}, false
	}
	w := m.workout.Clone()
	s := Summary{
		Workout:   w,
		Completed: w.CompletedCount(),
		Total:     len(w.Exercises),
		Duration:  models.FormatDuration(w.StartTime, w.EndTime),
		Volume:    models.TotalVolume(w),
	}
	for _, ex := range w.Exercises {
		if !ex.IsCompleted() {
			s.Skipped = append(s.Skipped, ex)
		}
	}
	return s, true
}

func (m *Machine) activeExercise(trigger, id string) (models.Exercise, error) {
	if err := m.expect(trigger, PhaseActive); err != nil {
		return nil, err
	}
	ex, ok := m.workout.Exercise(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExerciseNotFound, id)
	}
	return ex, nil
}

// progressed persists a change made while tracking and advances the streak
// when another exercise was completed.
func (m *Machine) progressed() {
	n := m.workout.CompletedCount()
	if n > m.lastCompleted {
		m.streak++
	}
	m.lastCompleted = n
	m.persist()
}

func (m *Machine) persist() {
	if m.phase == PhaseActive && !m.pastMode {
		m.store.SetActive(m.workout.Clone())
	}
}

func (m *Machine) checkExercise(ex models.Exercise) error {
	if err := models.ValidateExercise(ex); err != nil {
		return err
	}
	if !models.AllowedFor(m.workoutType, ex.Kind()) {
		return &models.ValidationError{Msg: fmt.Sprintf("%s exercises cannot be added to a %s workout", ex.Kind(), m.workoutType)}
	}
	return nil
}

func (m *Machine) index(id string) int {
	for i, ex := range m.workout.Exercises {
		if ex.ExerciseID() == id {
			return i
		}
	}
	return -1
}

func withID(ex models.Exercise, id string) models.Exercise {
	switch e := ex.(type) {
	case *models.Equipment:
		e.ID = id
	case *models.Cardio:
		e.ID = id
	case *models.Swim:
		e.ID = id
	case *models.Run:
		e.ID = id
	default:
		panic(fmt.Sprintf("session: unhandled exercise %T", ex))
	}
	return ex
}
