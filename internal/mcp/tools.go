package mcp

import (
	"context"
	"time"

	"github.com/claude/workoutlog/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(now time.Time, startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = now
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

// parseFlexTime accepts RFC 3339 or a bare date.
func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.DateOnly, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List completed workouts, newest first. Each workout has its type, date, start/end time and exercises with targets and recorded actuals."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("type", mcp.Description("Filter by workout type"), mcp.Enum(workoutTypeNames()...)),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts. Defaults to 50.")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one workout by id, with the days since the previous workout of the same type."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout id")),
)

var toolGetWorkoutStats = mcp.NewTool("get_workout_stats",
	mcp.WithDescription("Training statistics over a range: workout count, count per type, total volume (kg lifted), average duration in minutes and the current streak."),
	mcp.WithString("range", mcp.Description("Range in days. Defaults to 30."), mcp.Enum("7", "30", "90", "365", "all")),
)

var toolGetCalendar = mcp.NewTool("get_calendar",
	mcp.WithDescription("Completed workouts grouped by day of month."),
	mcp.WithNumber("year", mcp.Description("Year. Defaults to the current year.")),
	mcp.WithNumber("month", mcp.Description("Month 1-12. Defaults to the current month.")),
)

var toolGetActiveWorkout = mcp.NewTool("get_active_workout",
	mcp.WithDescription("The workout currently in progress, with elapsed minutes and completion count. Returns null when no workout is in progress."),
)

var toolGetChecklist = mcp.NewTool("get_checklist",
	mcp.WithDescription("The pre-workout checklist items."),
)

func workoutTypeNames() []string {
	names := make([]string, len(models.AllWorkoutTypes))
	for i, t := range models.AllWorkoutTypes {
		names[i] = string(t)
	}
	return names
}

// --- Tool handlers ---

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(h.now(), req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	// A bare end date covers the whole day.
	if len(req.GetString("end", "")) == len(time.DateOnly) {
		end = end.AddDate(0, 0, 1)
	}

	var typ models.WorkoutType
	if s := req.GetString("type", ""); s != "" {
		typ, err = models.ParseWorkoutType(s)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	limit := req.GetInt("limit", 50)

	workouts, err := h.ds.Workouts(ctx)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out := []models.Workout{}
	for _, w := range models.Completed(workouts) {
		if w.Date.Before(start) || !w.Date.Before(end) {
			continue
		}
		if typ != "" && w.Type != typ {
			continue
		}
		out = append(out, w)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

type workoutDetail struct {
	models.Workout
	DurationText            string  `json:"durationText"`
	Volume                  float64 `json:"volume"`
	DaysSincePreviousOfType *int    `json:"daysSincePreviousOfType,omitempty"`
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	workouts, err := h.ds.Workouts(ctx)
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	for _, w := range workouts {
		if w.ID != id {
			continue
		}
		d := workoutDetail{
			Workout:      w,
			DurationText: models.FormatDuration(w.StartTime, w.EndTime),
			Volume:       models.TotalVolume(w),
		}
		if days, ok := models.DaysSincePreviousOfType(workouts, w); ok {
			d.DaysSincePreviousOfType = &days
		}
		result, err := mcp.NewToolResultJSON(d)
		if err != nil {
			return mcp.NewToolResultError("serialization failed"), nil
		}
		return result, nil
	}
	return mcp.NewToolResultError("workout not found: " + id), nil
}

func (h *handlers) getWorkoutStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := models.ParseRange(req.GetString("range", string(models.RangeMonth)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	workouts, err := h.ds.Workouts(ctx)
	if err != nil {
		h.log.Error("mcp get_workout_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(models.Summarize(workouts, r, h.now()))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := h.now()
	year := req.GetInt("year", now.Year())
	month := req.GetInt("month", int(now.Month()))
	if month < 1 || month > 12 {
		return mcp.NewToolResultError("month must be between 1 and 12"), nil
	}

	workouts, err := h.ds.Workouts(ctx)
	if err != nil {
		h.log.Error("mcp get_calendar", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	var busy []models.CalendarDay
	for _, d := range models.Calendar(workouts, year, time.Month(month), now.Location()) {
		if len(d.Workouts) > 0 {
			busy = append(busy, d)
		}
	}
	result, err := mcp.NewToolResultJSON(map[string]any{
		"year":  year,
		"month": month,
		"days":  busy,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

type activeView struct {
	Workout        models.Workout `json:"workout"`
	ElapsedMinutes int            `json:"elapsedMinutes"`
	Completed      int            `json:"completedExercises"`
	Total          int            `json:"totalExercises"`
}

func (h *handlers) getActiveWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	active, err := h.ds.ActiveWorkout(ctx)
	if err != nil {
		h.log.Error("mcp get_active_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if active == nil {
		return mcp.NewToolResultText("null"), nil
	}

	end := h.now()
	if active.EndTime != nil {
		end = *active.EndTime
	}
	result, err := mcp.NewToolResultJSON(activeView{
		Workout:        *active,
		ElapsedMinutes: int(end.Sub(active.StartTime).Minutes()),
		Completed:      active.CompletedCount(),
		Total:          len(active.Exercises),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getChecklist(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := h.ds.Checklist(ctx)
	if err != nil {
		h.log.Error("mcp get_checklist", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if items == nil {
		items = []string{}
	}

	result, err := mcp.NewToolResultJSON(items)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
