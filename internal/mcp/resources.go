package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/workoutlog/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// homeView is the data behind the home screen.
type homeView struct {
	Reminder      models.Reminder                       `json:"reminder"`
	Streak        int                                   `json:"streak"`
	DaysSinceLast *int                                  `json:"daysSinceLast,omitempty"`
	LastByType    map[models.WorkoutType]models.Workout `json:"lastByType"`
	Active        *models.Workout                       `json:"active,omitempty"`
}

func (h *handlers) home(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	workouts, err := h.ds.Workouts(ctx)
	if err != nil {
		return nil, err
	}
	active, err := h.ds.ActiveWorkout(ctx)
	if err != nil {
		h.log.Warn("home: active workout read failed", "error", err)
	}

	now := h.now()
	view := homeView{
		Reminder:   models.ReminderFor(workouts, now),
		Streak:     models.Streak(workouts, now),
		LastByType: make(map[models.WorkoutType]models.Workout),
		Active:     active,
	}
	if days, ok := models.DaysSinceLast(workouts, now); ok {
		view.DaysSinceLast = &days
	}
	for _, t := range models.AllWorkoutTypes {
		if w, ok := models.LastOfType(workouts, t); ok {
			view.LastByType[t] = w
		}
	}
	return jsonContents(req.Params.URI, view)
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	workouts, err := h.ds.Workouts(ctx)
	if err != nil {
		return nil, err
	}
	recent := models.Recent(workouts, h.now(), 14)
	if recent == nil {
		recent = []models.Workout{}
	}
	return jsonContents(req.Params.URI, recent)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
