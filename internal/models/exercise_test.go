package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// TestDecodeExerciseVariants verifies each type tag decodes into its own variant.
func TestDecodeExerciseVariants(t *testing.T) {
	cases := map[string]ExerciseKind{
		`{"type":"equipment","id":"a","name":"Row","weight":40,"targetReps":10,"targetSets":3,"completedSets":1,"completed":false}`: KindEquipment,
		`{"type":"cardio","id":"b","name":"Bike","targetDuration":20,"completed":false}`:                                          KindCardio,
		`{"type":"swim","id":"c","name":"Swim","targetDistance":1000,"completed":true}`:                                           KindSwim,
		`{"type":"run","id":"d","name":"Run","targetDistance":5,"completed":false}`:                                              KindRun,
	}
	for input, want := range cases {
		ex, err := DecodeExercise([]byte(input))
		if err != nil {
			t.Fatalf("DecodeExercise(%s): %v", input, err)
		}
		if ex.Kind() != want {
			t.Errorf("kind = %q, want %q", ex.Kind(), want)
		}
	}
}

// TestDecodeExerciseUnknownTag verifies that unknown or missing tags are a
// decode error rather than a silently empty exercise.
func TestDecodeExerciseUnknownTag(t *testing.T) {
	for _, input := range []string{
		`{"type":"yoga","id":"x","name":"Flow"}`,
		`{"id":"x","name":"Untagged"}`,
	} {
		_, err := DecodeExercise([]byte(input))
		if !errors.Is(err, ErrUnknownExerciseType) {
			t.Errorf("DecodeExercise(%s) error = %v, want ErrUnknownExerciseType", input, err)
		}
	}
}

// TestWorkoutRejectsUnknownExercise verifies the error surfaces through a full
// Workout document.
func TestWorkoutRejectsUnknownExercise(t *testing.T) {
	doc := `{"id":"w1","type":"Pull","date":"2024-03-01T10:00:00Z","startTime":"2024-03-01T10:00:00Z",
		"exercises":[{"type":"pilates","id":"e1","name":"x"}],"completed":false}`
	var w Workout
	err := json.Unmarshal([]byte(doc), &w)
	if !errors.Is(err, ErrUnknownExerciseType) {
		t.Fatalf("error = %v, want ErrUnknownExerciseType", err)
	}
}

// TestExerciseMarshalWritesTag verifies the discriminator is emitted and the
// document decodes back into an equal exercise.
func TestExerciseMarshalWritesTag(t *testing.T) {
	w := 42.5
	in := Workout{
		ID:        "w1",
		Type:      WorkoutPull,
		Date:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		StartTime: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Exercises: Exercises{&Equipment{ID: "e1", Name: "Row", Weight: 40, TargetReps: 10, TargetSets: 3, ActualWeight: &w, ActualReps: []int{10, 9}}},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"type":"equipment"`) {
		t.Errorf("marshalled exercise lacks type tag: %s", data)
	}

	var out Workout
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	eq, ok := out.Exercises[0].(*Equipment)
	if !ok {
		t.Fatalf("exercise = %T, want *Equipment", out.Exercises[0])
	}
	if eq.ActualWeight == nil || *eq.ActualWeight != 42.5 {
		t.Errorf("actualWeight = %v, want 42.5", eq.ActualWeight)
	}
	if len(eq.ActualReps) != 2 || eq.ActualReps[1] != 9 {
		t.Errorf("actualReps = %v, want [10 9]", eq.ActualReps)
	}
}

// TestEmptyExercisesMarshalAsArray verifies a workout without exercises
// serializes an empty array, not null.
func TestEmptyExercisesMarshalAsArray(t *testing.T) {
	data, err := json.Marshal(Workout{ID: "w", Type: WorkoutLegs})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"exercises":[]`) {
		t.Errorf("got %s, want exercises:[]", data)
	}
}

// TestResetProgress verifies targets survive while progress and actuals are cleared.
func TestResetProgress(t *testing.T) {
	aw := 50.0
	src := &Equipment{ID: "old", Name: "Squat", Weight: 60, TargetReps: 5, TargetSets: 5,
		CompletedSets: 5, ActualWeight: &aw, ActualReps: []int{5, 5, 5, 5, 5}, Completed: true}

	got := ResetProgress(src, "new").(*Equipment)
	if got.ID != "new" {
		t.Errorf("id = %q, want new", got.ID)
	}
	if got.Completed || got.CompletedSets != 0 || got.ActualWeight != nil || got.ActualReps != nil {
		t.Errorf("progress not reset: %+v", got)
	}
	if got.Weight != 60 || got.TargetReps != 5 || got.TargetSets != 5 {
		t.Errorf("targets changed: %+v", got)
	}
	if !src.Completed || src.ID != "old" {
		t.Error("source exercise was mutated")
	}
}

// TestFillFromTargets verifies unset actuals default to targets and set values are kept.
func TestFillFromTargets(t *testing.T) {
	dist := 3.0
	actual := 2.5
	cardio := &Cardio{ID: "c", Name: "Row", TargetDistance: &dist, ActualDistance: &actual}
	eq := &Equipment{ID: "e", Name: "Press", Weight: 30, TargetReps: 8, TargetSets: 3}
	swim := &Swim{ID: "s", Name: "Swim", TargetDistance: 1500}

	for _, ex := range []Exercise{cardio, eq, swim} {
		FillFromTargets(ex)
		if !ex.IsCompleted() {
			t.Errorf("%s not completed", ex.Kind())
		}
	}
	if *cardio.ActualDistance != 2.5 {
		t.Errorf("cardio actualDistance = %v, want 2.5 (kept)", *cardio.ActualDistance)
	}
	if eq.CompletedSets != 3 || *eq.ActualWeight != 30 || len(eq.ActualReps) != 3 || eq.ActualReps[0] != 8 {
		t.Errorf("equipment = %+v, want targets copied", eq)
	}
	if swim.ActualDistance == nil || *swim.ActualDistance != 1500 {
		t.Errorf("swim actualDistance = %v, want 1500", swim.ActualDistance)
	}
}

// TestParseWorkoutType verifies labels and legacy ids both resolve.
func TestParseWorkoutType(t *testing.T) {
	cases := map[string]WorkoutType{
		"Pull":          WorkoutPull,
		"run (outdoor)": WorkoutRunOutdoor,
		"run-gym":       WorkoutRunGym,
		"swim":          WorkoutSwim,
	}
	for in, want := range cases {
		got, err := ParseWorkoutType(in)
		if err != nil {
			t.Fatalf("ParseWorkoutType(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseWorkoutType(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseWorkoutType("crossfit"); err == nil {
		t.Error("expected error for unknown type")
	}
}
