package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/claude/workoutlog/internal/config"
	"github.com/claude/workoutlog/internal/kvclient"
	"github.com/claude/workoutlog/internal/localcache"
	"github.com/claude/workoutlog/internal/logging"
	"github.com/claude/workoutlog/internal/syncstate"
	"github.com/claude/workoutlog/internal/workout"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "workoutlog",
	Short:         "Plan, track and review gym, swim and run workouts",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultClientPath(), "path to the client config file")
}

// app is the synced client state shared by the commands.
type app struct {
	cfg    *config.ClientConfig
	log    *slog.Logger
	remote *kvclient.Client
	cache  localCache
	hub    *syncstate.Hub
	repo   *workout.Repository

	logCloser io.Closer
}

// localCache is the client's copy of the synced keys.
type localCache interface {
	syncstate.Cache
	io.Closer
}

// openCache opens the cache kind the client config asks for.
func openCache(cfg *config.ClientConfig) (localCache, error) {
	if cfg.Cache == config.CacheMemory {
		return localcache.NewMemory(cfg.CacheSizeMB), nil
	}
	c, err := localcache.OpenSQLite(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// reachable reports whether the server answers its health check, so a server
// that is down is not mistaken for keys that were never written.
func reachable(ctx context.Context, remote *kvclient.Client, log *slog.Logger) bool {
	h, err := remote.Health(ctx)
	if err != nil {
		log.Warn("server unreachable, using cached values", "error", err)
		return false
	}
	log.Debug("server healthy", "status", h.Status)
	return true
}

// loadClient reads the client config and builds its logger. Logs go to stderr
// so stdout stays free for command output and the MCP stdio transport.
func loadClient() (*config.ClientConfig, *slog.Logger, io.Closer, error) {
	cfg, err := config.LoadClient(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, Stdout: os.Stderr})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, closer, nil
}

// openApp opens the local cache and starts syncing with the server. It waits
// for the first fetch so the commands see the server's values, and falls back
// to the cached values when the server cannot be reached.
func openApp(ctx context.Context) (*app, error) {
	cfg, log, logCloser, err := loadClient()
	if err != nil {
		return nil, err
	}

	cache, err := openCache(cfg)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	remote := kvclient.New(cfg.ServerURL, cfg.Timeout.Duration).WithAPIKey(cfg.APIKey)
	hub := syncstate.NewHub(remote, cache, syncstate.Options{
		Log:     log,
		Timeout: cfg.Timeout.Duration,
		OnSync: func(key, op string, err error) {
			if err != nil {
				log.Debug("sync failed", "key", key, "op", op, "error", err)
			}
		},
	})
	a := &app{cfg: cfg, log: log, remote: remote, cache: cache, hub: hub, logCloser: logCloser}
	a.repo = workout.NewRepository(hub)

	flushCtx, cancel := context.WithTimeout(ctx, cfg.Timeout.Duration)
	defer cancel()
	online := reachable(flushCtx, remote, log.With("server", cfg.ServerURL))
	if err := hub.Flush(flushCtx); err != nil {
		log.Warn("initial sync did not finish", "error", err)
	}
	if err := a.repo.SyncErr(); err != nil && online {
		log.Warn("initial sync failed", "server", cfg.ServerURL, "error", err)
	}
	if a.repo.SeedChecklist(workout.DefaultChecklist) {
		log.Info("checklist seeded with defaults")
	}
	return a, nil
}

// Close pushes pending writes to the server and releases everything openApp opened.
func (a *app) Close() error {
	a.repo.Close()
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Timeout.Duration+5*time.Second)
	defer cancel()
	err := a.hub.Close(ctx)
	if err != nil {
		err = fmt.Errorf("pending changes kept locally: %w", err)
	}
	return multierr.Combine(err, a.cache.Close(), a.remote.Close(), a.logCloser.Close())
}

// withApp runs fn with an open app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(a *app) error) (err error) {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, a.Close()) }()
	return fn(a)
}
