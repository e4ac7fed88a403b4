package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/workoutlog/internal/config"
	"github.com/claude/workoutlog/internal/importer"
	"github.com/claude/workoutlog/internal/kvstore"
	"github.com/claude/workoutlog/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	path := flag.String("path", "", "path to the legacy workouts.json, optionally gzip-compressed (required)")
	dryRun := flag.Bool("dry-run", false, "report counts without writing to the store")
	flag.Parse()

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: workoutlog-import -config config.yaml -path data/workouts.json [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, logCloser, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if info, err := os.Stat(*path); err != nil || info.IsDir() {
		log.Error("legacy file does not exist or is a directory", "path", *path)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := kvstore.Open(ctx, cfg.Store, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("store opened", "backend", cfg.Store.Backend)

	if *dryRun {
		log.Info("DRY RUN mode: nothing will be written to the store")
	}

	imp := importer.New(store, log, *dryRun)
	stats, err := imp.Import(ctx, *path)
	printStats(log, stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	if stats == nil {
		return
	}
	log.Info("import stats",
		"workouts_read", stats.WorkoutsRead,
		"workouts_imported", stats.WorkoutsImported,
		"workouts_duplicated", stats.WorkoutsDuplicated,
		"workouts_errored", stats.WorkoutsErrored,
		"checklist_added", stats.ChecklistAdded,
	)
}
