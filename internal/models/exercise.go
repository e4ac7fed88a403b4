package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownExerciseType is returned when decoding an exercise whose type tag
// is missing or not one of the known variants.
var ErrUnknownExerciseType = errors.New("unknown exercise type")

// ExerciseKind is the JSON discriminator of an exercise.
type ExerciseKind string

const (
	KindEquipment ExerciseKind = "equipment"
	KindCardio    ExerciseKind = "cardio"
	KindSwim      ExerciseKind = "swim"
	KindRun       ExerciseKind = "run"
)

// Exercise is one of *Equipment, *Cardio, *Swim or *Run.
type Exercise interface {
	Kind() ExerciseKind
	ExerciseID() string
	ExerciseName() string
	IsCompleted() bool
	exercise()
}

// Equipment is a strength exercise tracked in sets of reps.
type Equipment struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Weight        float64  `json:"weight"`
	TargetReps    int      `json:"targetReps"`
	TargetSets    int      `json:"targetSets"`
	CompletedSets int      `json:"completedSets"`
	ActualWeight  *float64 `json:"actualWeight,omitempty"`
	ActualReps    []int    `json:"actualReps,omitempty"`
	Completed     bool     `json:"completed"`
}

// Cardio is a machine exercise with a distance (km) and/or duration (minutes) goal.
type Cardio struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	TargetDistance *float64 `json:"targetDistance,omitempty"`
	TargetDuration *float64 `json:"targetDuration,omitempty"`
	ActualDistance *float64 `json:"actualDistance,omitempty"`
	ActualDuration *float64 `json:"actualDuration,omitempty"`
	Completed      bool     `json:"completed"`
}

// Swim is the whole-session target of a swim workout, in metres.
type Swim struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	TargetDistance float64  `json:"targetDistance"`
	ActualDistance *float64 `json:"actualDistance,omitempty"`
	Completed      bool     `json:"completed"`
}

// Run is the whole-session target of a run workout, in kilometres.
type Run struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	TargetDistance float64  `json:"targetDistance"`
	ActualDistance *float64 `json:"actualDistance,omitempty"`
	Completed      bool     `json:"completed"`
}

func (*Equipment) Kind() ExerciseKind { return KindEquipment }
func (*Cardio) Kind() ExerciseKind    { return KindCardio }
func (*Swim) Kind() ExerciseKind      { return KindSwim }
func (*Run) Kind() ExerciseKind       { return KindRun }

func (e *Equipment) ExerciseID() string { return e.ID }
func (e *Cardio) ExerciseID() string    { return e.ID }
func (e *Swim) ExerciseID() string      { return e.ID }
func (e *Run) ExerciseID() string       { return e.ID }

func (e *Equipment) ExerciseName() string { return e.Name }
func (e *Cardio) ExerciseName() string    { return e.Name }
func (e *Swim) ExerciseName() string      { return e.Name }
func (e *Run) ExerciseName() string       { return e.Name }

func (e *Equipment) IsCompleted() bool { return e.Completed }
func (e *Cardio) IsCompleted() bool    { return e.Completed }
func (e *Swim) IsCompleted() bool      { return e.Completed }
func (e *Run) IsCompleted() bool       { return e.Completed }

func (*Equipment) exercise() {}
func (*Cardio) exercise()    {}
func (*Swim) exercise()      {}
func (*Run) exercise()       {}

// The marshalers write the type tag first, then the variant's own fields.

func (e Equipment) MarshalJSON() ([]byte, error) {
	type plain Equipment
	return json.Marshal(struct {
		Type ExerciseKind `json:"type"`
		plain
	}{KindEquipment, plain(e)})
}

func (e Cardio) MarshalJSON() ([]byte, error) {
	type plain Cardio
	return json.Marshal(struct {
		Type ExerciseKind `json:"type"`
		plain
	}{KindCardio, plain(e)})
}

func (e Swim) MarshalJSON() ([]byte, error) {
	type plain Swim
	return json.Marshal(struct {
		Type ExerciseKind `json:"type"`
		plain
	}{KindSwim, plain(e)})
}

func (e Run) MarshalJSON() ([]byte, error) {
	type plain Run
	return json.Marshal(struct {
		Type ExerciseKind `json:"type"`
		plain
	}{KindRun, plain(e)})
}

// DecodeExercise decodes a single tagged exercise object.
func DecodeExercise(data []byte) (Exercise, error) {
	var tag struct {
		Type ExerciseKind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decoding exercise: %w", err)
	}

	var ex Exercise
	switch tag.Type {
	case KindEquipment:
		ex = &Equipment{}
	case KindCardio:
		ex = &Cardio{}
	case KindSwim:
		ex = &Swim{}
	case KindRun:
		ex = &Run{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExerciseType, tag.Type)
	}
	// The variant types only carry a value-receiver MarshalJSON, so plain
	// struct decoding applies here and the "type" member is ignored.
	if err := json.Unmarshal(data, ex); err != nil {
		return nil, fmt.Errorf("decoding %s exercise: %w", tag.Type, err)
	}
	return ex, nil
}

// Exercises is an ordered exercise list that round-trips through JSON.
type Exercises []Exercise

func (l Exercises) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Exercise(l))
}

func (l *Exercises) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding exercises: %w", err)
	}
	out := make(Exercises, 0, len(raw))
	for i, r := range raw {
		ex, err := DecodeExercise(r)
		if err != nil {
			return fmt.Errorf("exercise %d: %w", i, err)
		}
		out = append(out, ex)
	}
	*l = out
	return nil
}

// CloneExercise returns a deep copy of ex.
func CloneExercise(ex Exercise) Exercise {
	switch e := ex.(type) {
	case *Equipment:
		c := *e
		c.ActualWeight = cloneFloat(e.ActualWeight)
		if e.ActualReps != nil {
			c.ActualReps = append([]int(nil), e.ActualReps...)
		}
		return &c
	case *Cardio:
		c := *e
		c.TargetDistance = cloneFloat(e.TargetDistance)
		c.TargetDuration = cloneFloat(e.TargetDuration)
		c.ActualDistance = cloneFloat(e.ActualDistance)
		c.ActualDuration = cloneFloat(e.ActualDuration)
		return &c
	case *Swim:
		c := *e
		c.ActualDistance = cloneFloat(e.ActualDistance)
		return &c
	case *Run:
		c := *e
		c.ActualDistance = cloneFloat(e.ActualDistance)
		return &c
	default:
		panic(fmt.Sprintf("models: unhandled exercise %T", ex))
	}
}

// ResetProgress returns a copy of ex carrying the same targets under a new id,
// with completion and all recorded actuals cleared.
func ResetProgress(ex Exercise, id string) Exercise {
	switch e := CloneExercise(ex).(type) {
	case *Equipment:
		e.ID = id
		e.Completed = false
		e.CompletedSets = 0
		e.ActualWeight = nil
		e.ActualReps = nil
		return e
	case *Cardio:
		e.ID = id
		e.Completed = false
		e.ActualDistance = nil
		e.ActualDuration = nil
		return e
	case *Swim:
		e.ID = id
		e.Completed = false
		e.ActualDistance = nil
		return e
	case *Run:
		e.ID = id
		e.Completed = false
		e.ActualDistance = nil
		return e
	default:
		panic(fmt.Sprintf("models: unhandled exercise %T", ex))
	}
}

// FillFromTargets marks ex completed and defaults every unset actual value to
// its target. Used when a session is logged after the fact.
func FillFromTargets(ex Exercise) {
	switch e := ex.(type) {
	case *Equipment:
		if e.ActualWeight == nil {
			e.ActualWeight = floatPtr(e.Weight)
		}
		if len(e.ActualReps) == 0 && e.TargetSets > 0 {
			e.ActualReps = make([]int, e.TargetSets)
			for i := range e.ActualReps {
				e.ActualReps[i] = e.TargetReps
			}
		}
		e.CompletedSets = e.TargetSets
		e.Completed = true
	case *Cardio:
		if e.ActualDistance == nil {
			e.ActualDistance = cloneFloat(e.TargetDistance)
		}
		if e.ActualDuration == nil {
			e.ActualDuration = cloneFloat(e.TargetDuration)
		}
		e.Completed = true
	case *Swim:
		if e.ActualDistance == nil {
			e.ActualDistance = floatPtr(e.TargetDistance)
		}
		e.Completed = true
	case *Run:
		if e.ActualDistance == nil {
			e.ActualDistance = floatPtr(e.TargetDistance)
		}
		e.Completed = true
	default:
		panic(fmt.Sprintf("models: unhandled exercise %T", ex))
	}
}

// SetCompleted sets the completion flag of any variant.
func SetCompleted(ex Exercise, done bool) {
	switch e := ex.(type) {
	case *Equipment:
		e.Completed = done
	case *Cardio:
		e.Completed = done
	case *Swim:
		e.Completed = done
	case *Run:
		e.Completed = done
	default:
		panic(fmt.Sprintf("models: unhandled exercise %T", ex))
	}
}

func floatPtr(v float64) *float64 { return &v }

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
