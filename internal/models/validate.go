package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError describes a user-entered exercise that cannot be saved.
// Msg is suitable for showing to the user as-is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

const (
	msgNameRequired     = "Please enter an exercise name"
	msgFillAllFields    = "Please fill in all fields"
	msgDistanceOrTime   = "Please enter either distance or duration"
	msgDistanceRequired = "Please enter a target distance"
)

// ValidateExercise checks the fields a user must enter for each variant.
func ValidateExercise(ex Exercise) error {
	if ex == nil {
		return &ValidationError{Msg: msgFillAllFields}
	}
	if strings.TrimSpace(ex.ExerciseName()) == "" {
		return &ValidationError{Msg: msgNameRequired}
	}

	switch e := ex.(type) {
	case *Equipment:
		if e.Weight <= 0 || e.TargetReps <= 0 || e.TargetSets <= 0 {
			return &ValidationError{Msg: msgFillAllFields}
		}
		if e.CompletedSets < 0 || e.CompletedSets > e.TargetSets {
			return &ValidationError{Msg: fmt.Sprintf("completed sets must be between 0 and %d", e.TargetSets)}
		}
	case *Cardio:
		if !positive(e.TargetDistance) && !positive(e.TargetDuration) {
			return &ValidationError{Msg: msgDistanceOrTime}
		}
	case *Swim:
		if e.TargetDistance <= 0 {
			return &ValidationError{Msg: msgDistanceRequired}
		}
	case *Run:
		if e.TargetDistance <= 0 {
			return &ValidationError{Msg: msgDistanceRequired}
		}
	default:
		panic(fmt.Sprintf("models: unhandled exercise %T", ex))
	}
	return nil
}

// AllowedFor reports whether an exercise variant may appear in a workout of type t.
// Strength workouts hold equipment and cardio entries; swim and run workouts
// hold exactly their own variant.
func AllowedFor(t WorkoutType, kind ExerciseKind) bool {
	switch {
	case t.IsSwim():
		return kind == KindSwim
	case t.IsRun():
		return kind == KindRun
	default:
		return kind == KindEquipment || kind == KindCardio
	}
}

func positive(p *float64) bool {
	return p != nil && *p > 0
}
