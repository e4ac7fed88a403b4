package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Completed returns the completed workouts sorted by date, newest first.
func Completed(workouts []Workout) []Workout {
	out := make([]Workout, 0, len(workouts))
	for _, w := range workouts {
		if w.Completed {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// LastOfType returns the most recent completed workout of type t.
func LastOfType(workouts []Workout, t WorkoutType) (Workout, bool) {
	for _, w := range Completed(workouts) {
		if w.Type == t {
			return w, true
		}
	}
	return Workout{}, false
}

// PreviousOfType returns the completed workouts of type t, newest first.
func PreviousOfType(workouts []Workout, t WorkoutType) []Workout {
	var out []Workout
	for _, w := range Completed(workouts) {
		if w.Type == t {
			out = append(out, w)
		}
	}
	return out
}

// TotalVolume sums weight × reps over the equipment exercises of w.
// Recorded actuals win over targets; without recorded reps the volume of the
// completed sets at target reps is used.
func TotalVolume(w Workout) float64 {
	var total float64
	for _, ex := range w.Exercises {
		e, ok := ex.(*Equipment)
		if !ok {
			continue
		}
		weight := e.Weight
		if e.ActualWeight != nil {
			weight = *e.ActualWeight
		}
		reps := e.TargetReps * e.CompletedSets
		if e.ActualReps != nil {
			reps = 0
			for _, r := range e.ActualReps {
				reps += r
			}
		}
		total += weight * float64(reps)
	}
	return total
}

// FormatDuration renders the time between start and end as "45m" or "1h 5m".
// An open workout renders as "0m".
func FormatDuration(start time.Time, end *time.Time) string {
	if end == nil {
		return "0m"
	}
	mins := int(math.Floor(end.Sub(start).Minutes()))
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %dm", mins/60, mins%60)
}

// calendarDays counts midnight boundaries between a and b in loc.
func calendarDays(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// DaysSinceLast returns the number of calendar days between the latest
// completed workout and now. ok is false when nothing has been completed.
func DaysSinceLast(workouts []Workout, now time.Time) (days int, ok bool) {
	done := Completed(workouts)
	if len(done) == 0 {
		return 0, false
	}
	return calendarDays(done[0].Date, now, now.Location()), true
}

// DaysSincePreviousOfType returns the whole days between w and the latest
// completed workout of the same type dated before it.
func DaysSincePreviousOfType(workouts []Workout, w Workout) (int, bool) {
	for _, prev := range PreviousOfType(workouts, w.Type) {
		if prev.Date.Before(w.Date) {
			return int(w.Date.Sub(prev.Date).Hours() / 24), true
		}
	}
	return 0, false
}

// Streak counts consecutive training days ending today or yesterday.
func Streak(workouts []Workout, now time.Time) int {
	done := Completed(workouts)
	if len(done) == 0 {
		return 0
	}
	loc := now.Location()
	if calendarDays(done[0].Date, now, loc) > 1 {
		return 0
	}
	streak := 1
	for i := 1; i < len(done); i++ {
		if calendarDays(done[i].Date, done[i-1].Date, loc) > 1 {
			break
		}
		streak++
	}
	return streak
}

// Recent returns the completed workouts of the last days days, newest first.
func Recent(workouts []Workout, now time.Time, days int) []Workout {
	cutoff := now.AddDate(0, 0, -days)
	var out []Workout
	for _, w := range Completed(workouts) {
		if !w.Date.Before(cutoff) {
			out = append(out, w)
		}
	}
	return out
}

// ReminderLevel grades how long it has been since the last workout.
type ReminderLevel string

const (
	ReminderWelcome ReminderLevel = "welcome"
	ReminderGreat   ReminderLevel = "great"
	ReminderOK      ReminderLevel = "ok"
	ReminderGentle  ReminderLevel = "gentle"
	ReminderWarning ReminderLevel = "warning"
	ReminderUrgent  ReminderLevel = "urgent"
)

// Reminder is the nudge shown on the home screen.
type Reminder struct {
	Level      ReminderLevel `json:"level"`
	Show       bool          `json:"show"`
	Message    string        `json:"message"`
	SubMessage string        `json:"subMessage"`
}

// ReminderFor picks the reminder for the given history.
func ReminderFor(workouts []Workout, now time.Time) Reminder {
	days, ok := DaysSinceLast(workouts, now)
	switch {
	case !ok:
		return Reminder{ReminderWelcome, true, "Welcome! Start your fitness journey today!", "Your first workout awaits"}
	case days <= 0:
		return Reminder{ReminderGreat, true, "Great job! You worked out today!", "Keep up the amazing work"}
	case days == 1:
		return Reminder{Level: ReminderOK}
	case days <= 3:
		return Reminder{ReminderGentle, true, fmt.Sprintf("%d days since your last workout", days), "Ready to get back on track?"}
	case days <= 7:
		return Reminder{ReminderWarning, true, fmt.Sprintf("You haven't worked out for %d days", days), "Don't break your momentum!"}
	default:
		return Reminder{ReminderUrgent, true, fmt.Sprintf("It's been %d days since your last workout!", days), "Every journey starts with a single step. Let's go!"}
	}
}

// Range is a statistics window.
type Range string

const (
	RangeWeek    Range = "7"
	RangeMonth   Range = "30"
	RangeQuarter Range = "90"
	RangeYear    Range = "365"
	RangeAll     Range = "all"
)

// ParseRange validates a range name.
func ParseRange(s string) (Range, error) {
	switch r := Range(s); r {
	case RangeWeek, RangeMonth, RangeQuarter, RangeYear, RangeAll:
		return r, nil
	}
	return "", fmt.Errorf("unknown range %q (want 7, 30, 90, 365 or all)", s)
}

// Cutoff returns the earliest workout date included in r.
func (r Range) Cutoff(now time.Time) (time.Time, bool) {
	switch r {
	case RangeWeek:
		return now.AddDate(0, 0, -7), true
	case RangeMonth:
		return now.AddDate(0, 0, -30), true
	case RangeQuarter:
		return now.AddDate(0, 0, -90), true
	case RangeYear:
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// Stats aggregates completed workouts inside a range.
type Stats struct {
	Range          Range               `json:"range"`
	Workouts       int                 `json:"workouts"`
	ByType         map[WorkoutType]int `json:"byType"`
	TotalVolume    float64             `json:"totalVolume"`
	AvgDurationMin int                 `json:"avgDurationMin"`
	Streak         int                 `json:"streak"`
}

// Summarize computes Stats for r. The streak always covers the full history.
func Summarize(workouts []Workout, r Range, now time.Time) Stats {
	done := Completed(workouts)
	st := Stats{
		Range:  r,
		ByType: make(map[WorkoutType]int, len(AllWorkoutTypes)),
		Streak: Streak(done, now),
	}
	for _, t := range AllWorkoutTypes {
		st.ByType[t] = 0
	}

	cutoff, bounded := r.Cutoff(now)
	var totalMin float64
	timed := 0
	for _, w := range done {
		if bounded && w.Date.Before(cutoff) {
			continue
		}
		st.Workouts++
		st.ByType[w.Type]++
		st.TotalVolume += TotalVolume(w)
		if w.EndTime != nil {
			totalMin += w.EndTime.Sub(w.StartTime).Minutes()
			timed++
		}
	}
	if timed > 0 {
		st.AvgDurationMin = int(math.Round(totalMin / float64(timed)))
	}
	return st
}

// CalendarDay holds the completed workouts of one day of a month.
type CalendarDay struct {
	Day      int       `json:"day"`
	Workouts []Workout `json:"workouts"`
}

// Calendar groups completed workouts by day for the given month in loc.
func Calendar(workouts []Workout, year int, month time.Month, loc *time.Location) []CalendarDay {
	daysIn := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	days := make([]CalendarDay, daysIn)
	for i := range days {
		days[i].Day = i + 1
	}
	for _, w := range workouts {
		if !w.Completed {
			continue
		}
		y, m, d := w.Date.In(loc).Date()
		if y == year && m == month {
			days[d-1].Workouts = append(days[d-1].Workouts, w)
		}
	}
	return days
}
