package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/claude/workoutlog/internal/kvstore"
	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/workout"
	"github.com/google/uuid"
)

// Stats tracks import progress.
type Stats struct {
	WorkoutsRead       int
	WorkoutsImported   int
	WorkoutsDuplicated int
	WorkoutsErrored    int

	ChecklistAdded int
}

// Importer merges a legacy workouts.json document into a key-value store.
type Importer struct {
	store  kvstore.Store
	log    *slog.Logger
	dryRun bool
	newID  func() string
	stats  Stats
}

// New creates a new Importer. In dry-run mode nothing is written.
func New(store kvstore.Store, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, log: log, dryRun: dryRun, newID: uuid.NewString}
}

// Import reads the legacy document at path (plain or gzip) and merges it.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	data, err := ReadFile(path)
	if err != nil {
		return &imp.stats, err
	}
	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return &imp.stats, fmt.Errorf("parsing %s: %w", path, err)
	}
	return imp.merge(ctx, doc.WorkoutHistory, doc.ChecklistConfig)
}

// merge converts the legacy workouts and checklist and writes them to the
// workouts and checklist-items keys. A workout whose start time and type
// already appear in the stored history is counted as a duplicate.
func (imp *Importer) merge(ctx context.Context, legacy []legacyWorkout, checklist []string) (*Stats, error) {
	var history []models.Workout
	if err := imp.read(ctx, workout.KeyWorkouts, &history); err != nil {
		return &imp.stats, err
	}

	seen := make(map[string]bool, len(history))
	for _, w := range history {
		seen[dedupeKey(w)] = true
	}

	for i, lw := range legacy {
		imp.stats.WorkoutsRead++
		w, err := convertWorkout(lw, imp.newID)
		if err != nil {
			imp.log.Warn("convert failed", "index", i, "type", lw.Type, "error", err)
			imp.stats.WorkoutsErrored++
			continue
		}
		k := dedupeKey(w)
		if seen[k] {
			imp.stats.WorkoutsDuplicated++
			continue
		}
		seen[k] = true
		history = append(history, w)
		imp.stats.WorkoutsImported++
	}

	var items []string
	if err := imp.read(ctx, workout.KeyChecklistItems, &items); err != nil {
		return &imp.stats, err
	}
	have := make(map[string]bool, len(items))
	for _, it := range items {
		have[it] = true
	}
	for _, it := range checklist {
		it = strings.TrimSpace(it)
		if it == "" || have[it] {
			continue
		}
		have[it] = true
		items = append(items, it)
		imp.stats.ChecklistAdded++
	}

	imp.log.Info("legacy document converted",
		"read", imp.stats.WorkoutsRead,
		"imported", imp.stats.WorkoutsImported,
		"duplicated", imp.stats.WorkoutsDuplicated,
		"errored", imp.stats.WorkoutsErrored,
		"checklist_added", imp.stats.ChecklistAdded,
		"dry_run", imp.dryRun)
	if imp.dryRun {
		return &imp.stats, nil
	}

	if imp.stats.WorkoutsImported > 0 {
		if err := imp.write(ctx, workout.KeyWorkouts, history); err != nil {
			return &imp.stats, err
		}
	}
	if imp.stats.ChecklistAdded > 0 {
		if err := imp.write(ctx, workout.KeyChecklistItems, items); err != nil {
			return &imp.stats, err
		}
	}
	return &imp.stats, nil
}

func dedupeKey(w models.Workout) string {
	return fmt.Sprintf("%d|%s", w.StartTime.UnixMilli(), w.Type)
}

func (imp *Importer) read(ctx context.Context, key string, v any) error {
	raw, err := imp.store.Get(ctx, key)
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

func (imp *Importer) write(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := imp.store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
