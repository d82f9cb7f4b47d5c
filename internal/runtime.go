package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/mindflow/internal/ai"
	"github.com/starford/mindflow/internal/noteservice"
	"github.com/starford/mindflow/internal/rag"
	"github.com/starford/mindflow/internal/storage"
	"github.com/starford/mindflow/internal/watch"
)

const probeTimeout = 2 * time.Second

// Runtime holds the components every entry point shares.
type Runtime struct {
	Store   *storage.NoteStore
	Prefs   *storage.Preferences
	Service *noteservice.Service

	fs     *storage.FS // nil unless the fs driver is active
	logger *slog.Logger
	close  func() error
}

// Open wires storage, the AI client and the note service from cfg. Extra
// service options (a notifier, for example) are applied last.
func Open(cfg *Config, logger *slog.Logger, opts ...noteservice.Option) (*Runtime, error) {
	rt := &Runtime{logger: logger, close: func() error { return nil }}

	kv, err := rt.openKV(cfg.Storage)
	if err != nil {
		return nil, err
	}
	rt.Store = storage.NewNoteStore(kv, logger)
	rt.Prefs = storage.NewPreferences(kv, logger)

	client, err := newAIClient(cfg.AI, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	svcOpts := append([]noteservice.Option{noteservice.WithLogger(logger)}, opts...)
	rt.Service = noteservice.NewService(rt.Store, rt.Prefs,
		ai.NewGateway(client),
		rag.NewAsker(client, rag.WithLimit(cfg.AI.ContextLimit)),
		svcOpts...,
	)
	return rt, nil
}

func (rt *Runtime) openKV(cfg StorageConfig) (storage.KV, error) {
	switch cfg.Driver {
	case DriverSQLite:
		db, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		rt.close = db.Close
		return db, nil
	default:
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		fsys, err := storage.NewFS(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		rt.fs = fsys
		return fsys, nil
	}
}

func newAIClient(cfg AIConfig, logger *slog.Logger) (*ai.Client, error) {
	var online ai.Connectivity = ai.AssumeOnline{}
	if cfg.Connectivity == ConnectivityProbe {
		probe, err := ai.NewDialProbe(cfg.Endpoint, probeTimeout)
		if err != nil {
			return nil, fmt.Errorf("connectivity probe: %w", err)
		}
		online = probe
	}
	return ai.NewClient(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.Timeout,
		ai.WithConnectivity(online),
		ai.WithRateLimit(cfg.RatePerSecond),
		ai.WithLogger(logger),
	), nil
}

// Watch reports external writes to the note collection until ctx is done.
// It returns immediately when the active driver has no files to watch.
func (rt *Runtime) Watch(ctx context.Context, cb watch.EventCallback) error {
	if rt.fs == nil {
		return nil
	}
	return watch.Watch(ctx, rt.fs, rt.Store, watch.DefaultDebounce, rt.logger, cb)
}

// Close releases the storage backend.
func (rt *Runtime) Close() error {
	return rt.close()
}
