// Package workout stores workout history, the in-progress workout and the
// pre-workout checklist as synced keys.
package workout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/syncstate"
	"go.uber.org/multierr"
)

// Keys of the synced documents.
const (
	KeyWorkouts       = "workouts"
	KeyActiveWorkout  = "active-workout"
	KeyChecklistItems = "checklist-items"
)

// DefaultChecklist is offered to users whose checklist is still empty.
var DefaultChecklist = []string{"Water bottle", "Towel", "Gym shoes", "Phone & earbuds"}

var (
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrEmptyItem       = errors.New("checklist item is empty")
	ErrDuplicateItem   = errors.New("checklist item already exists")
)

// Repository owns the history collection, the single active-workout slot and
// the checklist.
type Repository struct {
	workouts  *syncstate.State[[]models.Workout]
	active    *syncstate.State[*models.Workout]
	checklist *syncstate.State[[]string]
}

// NewRepository opens the three synced keys on hub.
func NewRepository(hub *syncstate.Hub) *Repository {
	return &Repository{
		workouts:  syncstate.Open(hub, KeyWorkouts, []models.Workout{}),
		active:    syncstate.Open[*models.Workout](hub, KeyActiveWorkout, nil),
		checklist: syncstate.Open(hub, KeyChecklistItems, []string{}),
	}
}

// Active returns the in-progress workout, if any.
func (r *Repository) Active() (models.Workout, bool) {
	w := r.active.Value()
	if w == nil {
		return models.Workout{}, false
	}
	return *w, true
}

// SetActive fills the active slot.
func (r *Repository) SetActive(w models.Workout) {
	r.active.Set(&w)
}

// UpdateActive applies fn to the active workout. It reports false when the slot is empty.
func (r *Repository) UpdateActive(fn func(w *models.Workout)) (models.Workout, bool) {
	var out models.Workout
	found := false
	r.active.TryUpdate(func(prev *models.Workout) (*models.Workout, bool) {
		if prev == nil {
			return nil, false
		}
		fn(prev)
		out, found = *prev, true
		return prev, true
	})
	return out, found
}

// ClearActive empties the active slot.
func (r *Repository) ClearActive() {
	r.active.Remove()
}

// History returns every stored workout in insertion order.
func (r *Repository) History() []models.Workout {
	return r.workouts.Value()
}

// AppendHistory adds w to the end of the history.
func (r *Repository) AppendHistory(w models.Workout) {
	r.workouts.Update(func(prev []models.Workout) []models.Workout {
		return append(prev, w)
	})
}

// FindWorkout returns the stored workout with the given id.
func (r *Repository) FindWorkout(id string) (models.Workout, error) {
	for _, w := range r.History() {
		if w.ID == id {
			return w, nil
		}
	}
	return models.Workout{}, fmt.Errorf("%w: %s", ErrWorkoutNotFound, id)
}

// DeleteWorkout removes the workout with the given id from the history.
func (r *Repository) DeleteWorkout(id string) error {
	found := false
	r.workouts.TryUpdate(func(prev []models.Workout) ([]models.Workout, bool) {
		out := make([]models.Workout, 0, len(prev))
		for _, w := range prev {
			if w.ID == id {
				found = true
				continue
			}
			out = append(out, w)
		}
		return out, found
	})
	if !found {
		return fmt.Errorf("%w: %s", ErrWorkoutNotFound, id)
	}
	return nil
}

// PreviousOfType returns completed workouts of type t, newest first.
func (r *Repository) PreviousOfType(t models.WorkoutType) []models.Workout {
	return models.PreviousOfType(r.History(), t)
}

// Checklist returns the checklist items in order.
func (r *Repository) Checklist() []string {
	return r.checklist.Value()
}

// AddChecklistItem appends a trimmed item unless it is empty or already listed.
func (r *Repository) AddChecklistItem(item string) error {
	item = strings.TrimSpace(item)
	if item == "" {
		return ErrEmptyItem
	}
	var err error
	r.checklist.TryUpdate(func(prev []string) ([]string, bool) {
		for _, existing := range prev {
			if existing == item {
				err = fmt.Errorf("%w: %q", ErrDuplicateItem, item)
				return prev, false
			}
		}
		return append(prev, item), true
	})
	return err
}

// RemoveChecklistItem drops item from the checklist. Removing an absent item is a no-op.
func (r *Repository) RemoveChecklistItem(item string) {
	r.checklist.TryUpdate(func(prev []string) ([]string, bool) {
		out := make([]string, 0, len(prev))
		for _, existing := range prev {
			if existing != item {
				out = append(out, existing)
			}
		}
		return out, len(out) != len(prev)
	})
}

// SeedChecklist stores items when the checklist is empty and reports whether it did.
func (r *Repository) SeedChecklist(items []string) bool {
	seeded := false
	r.checklist.TryUpdate(func(prev []string) ([]string, bool) {
		if len(prev) > 0 {
			return prev, false
		}
		seeded = true
		return append([]string(nil), items...), true
	})
	return seeded
}

// Changes returns the change signals of the history, active slot and checklist.
func (r *Repository) Changes() (workouts, active, checklist <-chan struct{}) {
	return r.workouts.Changes(), r.active.Changes(), r.checklist.Changes()
}

// SyncErr joins the last sync failures of the three keys.
func (r *Repository) SyncErr() error {
	return multierr.Combine(r.workouts.SyncErr(), r.active.SyncErr(), r.checklist.SyncErr())
}

// Close detaches the repository's handles.
func (r *Repository) Close() {
	r.workouts.Close()
	r.active.Close()
	r.checklist.Close()
}
