package models

import (
	"fmt"
	"strings"
	"time"
)

// WorkoutType is the kind of session a user trains. It determines which
// exercise variants a plan may hold.
type WorkoutType string

const (
	WorkoutPull       WorkoutType = "Pull"
	WorkoutPush       WorkoutType = "Push"
	WorkoutLegs       WorkoutType = "Legs"
	WorkoutSwim       WorkoutType = "Swim"
	WorkoutRunGym     WorkoutType = "Run (Gym)"
	WorkoutRunOutdoor WorkoutType = "Run (Outdoor)"
)

// AllWorkoutTypes lists every workout type in display order.
var AllWorkoutTypes = []WorkoutType{
	WorkoutPull, WorkoutPush, WorkoutLegs, WorkoutSwim, WorkoutRunGym, WorkoutRunOutdoor,
}

// legacyTypeIDs maps the identifiers used by the first version of the app.
var legacyTypeIDs = map[string]WorkoutType{
	"pull":        WorkoutPull,
	"push":        WorkoutPush,
	"legs":        WorkoutLegs,
	"swim":        WorkoutSwim,
	"run-gym":     WorkoutRunGym,
	"run-outdoor": WorkoutRunOutdoor,
}

// ParseWorkoutType accepts a display label (case-insensitive) or a legacy id.
func ParseWorkoutType(s string) (WorkoutType, error) {
	s = strings.TrimSpace(s)
	for _, t := range AllWorkoutTypes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	if t, ok := legacyTypeIDs[strings.ToLower(s)]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown workout type %q", s)
}

// Valid reports whether t is one of the known workout types.
func (t WorkoutType) Valid() bool {
	for _, known := range AllWorkoutTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsStrength reports whether t is planned as a list of exercises.
func (t WorkoutType) IsStrength() bool {
	return t == WorkoutPull || t == WorkoutPush || t == WorkoutLegs
}

func (t WorkoutType) IsSwim() bool { return t == WorkoutSwim }

func (t WorkoutType) IsRun() bool { return t == WorkoutRunGym || t == WorkoutRunOutdoor }

// Workout is one training session: its schedule and its ordered exercises.
type Workout struct {
	ID        string      `json:"id"`
	Type      WorkoutType `json:"type"`
	Date      time.Time   `json:"date"`
	StartTime time.Time   `json:"startTime"`
	EndTime   *time.Time  `json:"endTime,omitempty"`
	Exercises Exercises   `json:"exercises"`
	Completed bool        `json:"completed"`
}

// Clone returns a deep copy of w.
func (w Workout) Clone() Workout {
	out := w
	if w.EndTime != nil {
		end := *w.EndTime
		out.EndTime = &end
	}
	out.Exercises = make(Exercises, len(w.Exercises))
	for i, ex := range w.Exercises {
		out.Exercises[i] = CloneExercise(ex)
	}
	return out
}

// Exercise returns the exercise with the given id.
func (w *Workout) Exercise(id string) (Exercise, bool) {
	for _, ex := range w.Exercises {
		if ex.ExerciseID() == id {
			return ex, true
		}
	}
	return nil, false
}

// CompletedCount returns how many exercises are marked completed.
func (w *Workout) CompletedCount() int {
	n := 0
	for _, ex := range w.Exercises {
		if ex.IsCompleted() {
			n++
		}
	}
	return n
}

// Duration returns endTime - startTime, or zero while the workout is open.
func (w *Workout) Duration() time.Duration {
	if w.EndTime == nil {
		return 0
	}
	return w.EndTime.Sub(w.StartTime)
}
