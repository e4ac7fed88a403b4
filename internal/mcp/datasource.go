package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/workoutlog/internal/kvstore"
	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/workout"
)

// DataSource abstracts the data layer for MCP tools.
type DataSource interface {
	Workouts(ctx context.Context) ([]models.Workout, error)
	ActiveWorkout(ctx context.Context) (*models.Workout, error)
	Checklist(ctx context.Context) ([]string, error)
}

// StoreSource reads the synced documents straight from a key-value store:
// a local backend, or the storage API through kvclient.
type StoreSource struct {
	store kvstore.Store
}

// Compile-time check: StoreSource satisfies DataSource.
var _ DataSource = (*StoreSource)(nil)

// NewStoreSource wraps store.
func NewStoreSource(store kvstore.Store) *StoreSource {
	return &StoreSource{store: store}
}

func (s *StoreSource) Workouts(ctx context.Context) ([]models.Workout, error) {
	var out []models.Workout
	if err := s.read(ctx, workout.KeyWorkouts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *StoreSource) ActiveWorkout(ctx context.Context) (*models.Workout, error) {
	var out *models.Workout
	if err := s.read(ctx, workout.KeyActiveWorkout, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *StoreSource) Checklist(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.read(ctx, workout.KeyChecklistItems, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// read decodes key into v, leaving v untouched when the key is absent.
func (s *StoreSource) read(ctx context.Context, key string, v any) error {
	raw, err := s.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}
