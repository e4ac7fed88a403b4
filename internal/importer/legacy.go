package importer

import (
	"fmt"
	"time"

	"github.com/claude/workoutlog/internal/models"
)

// legacyDocument is the data/workouts.json file written by the first version
// of the app.
type legacyDocument struct {
	WorkoutHistory  []legacyWorkout `json:"workoutHistory"`
	ChecklistConfig []string        `json:"checklistConfig"`
}

// legacyWorkout carries timestamps in Unix milliseconds and the type as a
// lowercase id such as "run-gym".
type legacyWorkout struct {
	Type      string           `json:"type"`
	Date      string           `json:"date"`
	StartTime int64            `json:"startTime"`
	EndTime   int64            `json:"endTime"`
	Duration  int              `json:"duration"`
	Exercises []legacyExercise `json:"exercises"`
}

// legacyExercise is "equipment" or "cardio". Cardio distances are kilometres.
type legacyExercise struct {
	ExerciseType   string   `json:"exerciseType"`
	Name           string   `json:"name"`
	Weight         float64  `json:"weight"`
	TargetReps     int      `json:"targetReps"`
	TargetSets     int      `json:"targetSets"`
	ActualWeight   *float64 `json:"actualWeight"`
	ActualReps     int      `json:"actualReps"`
	ActualSets     int      `json:"actualSets"`
	Distance       *float64 `json:"distance"`
	ActualDistance *float64 `json:"actualDistance"`
	Completed      bool     `json:"completed"`
}

// convertWorkout maps a legacy workout onto the current model. Legacy history
// only held finished workouts, so the result is always completed.
func convertWorkout(lw legacyWorkout, newID func() string) (models.Workout, error) {
	typ, err := models.ParseWorkoutType(lw.Type)
	if err != nil {
		return models.Workout{}, err
	}

	start := time.UnixMilli(lw.StartTime).UTC()
	date := start
	if lw.Date != "" {
		date, err = time.Parse(time.RFC3339, lw.Date)
		if err != nil {
			return models.Workout{}, fmt.Errorf("parsing date %q: %w", lw.Date, err)
		}
	}
	if lw.StartTime == 0 {
		if lw.Date == "" {
			return models.Workout{}, fmt.Errorf("workout has neither startTime nor date")
		}
		start = date
	}

	w := models.Workout{
		ID:        newID(),
		Type:      typ,
		Date:      date,
		StartTime: start,
		Exercises: models.Exercises{},
		Completed: true,
	}
	switch {
	case lw.EndTime > 0:
		end := time.UnixMilli(lw.EndTime).UTC()
		w.EndTime = &end
	case lw.Duration > 0:
		end := start.Add(time.Duration(lw.Duration) * time.Minute)
		w.EndTime = &end
	}

	var distanceEx models.Exercise
	for i, le := range lw.Exercises {
		switch le.ExerciseType {
		case "equipment":
			if !typ.IsStrength() {
				continue
			}
			w.Exercises = append(w.Exercises, convertEquipment(le, newID()))
		case "cardio":
			switch {
			case typ.IsSwim(), typ.IsRun():
				// Swim and run workouts hold a single distance entry.
				if distanceEx == nil {
					distanceEx = newDistanceExercise(typ, le.Name, newID())
					w.Exercises = append(w.Exercises, distanceEx)
				}
				addDistance(distanceEx, le)
			default:
				w.Exercises = append(w.Exercises, &models.Cardio{
					ID:             newID(),
					Name:           le.Name,
					TargetDistance: le.Distance,
					ActualDistance: le.ActualDistance,
					Completed:      le.Completed,
				})
			}
		default:
			return models.Workout{}, fmt.Errorf("exercise %d: %w %q", i, models.ErrUnknownExerciseType, le.ExerciseType)
		}
	}
	return w, nil
}

func convertEquipment(le legacyExercise, id string) *models.Equipment {
	e := &models.Equipment{
		ID:         id,
		Name:       le.Name,
		Weight:     le.Weight,
		TargetReps: le.TargetReps,
		TargetSets: le.TargetSets,
		Completed:  le.Completed,
	}
	if le.ActualWeight != nil && *le.ActualWeight != le.Weight {
		w := *le.ActualWeight
		e.ActualWeight = &w
	}
	if !le.Completed {
		return e
	}

	sets := le.ActualSets
	if sets == 0 {
		sets = le.TargetSets
	}
	e.CompletedSets = min(sets, le.TargetSets)
	if le.ActualReps > 0 {
		e.ActualReps = make([]int, e.CompletedSets)
		for i := range e.ActualReps {
			e.ActualReps[i] = le.ActualReps
		}
	}
	return e
}

func newDistanceExercise(typ models.WorkoutType, name, id string) models.Exercise {
	if name == "" {
		name = string(typ)
	}
	if typ.IsSwim() {
		return &models.Swim{ID: id, Name: name}
	}
	return &models.Run{ID: id, Name: name}
}

// addDistance folds a legacy cardio entry into ex. Swim distances are
// converted from kilometres to metres.
func addDistance(ex models.Exercise, le legacyExercise) {
	scale := 1.0
	if ex.Kind() == models.KindSwim {
		scale = 1000
	}
	target := valueOr(le.Distance, 0) * scale
	var actual *float64
	if le.ActualDistance != nil {
		v := *le.ActualDistance * scale
		actual = &v
	}

	switch e := ex.(type) {
	case *models.Swim:
		e.TargetDistance += target
		e.ActualDistance = sumPtr(e.ActualDistance, actual)
		e.Completed = e.Completed || le.Completed
	case *models.Run:
		e.TargetDistance += target
		e.ActualDistance = sumPtr(e.ActualDistance, actual)
		e.Completed = e.Completed || le.Completed
	}
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func sumPtr(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	v := *a + *b
	return &v
}
