package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/tracker"
)

// Application is the global runtime state container.
// It holds config and the core services that are shared across commands
// (components, tracker, orchestrator, logger). Pass Application into modules
// that need access to the global state rather than using package-level
// variables.
type Application struct {
	Config *Config
	Logger logging.Logger

	Components *Components
	Tracker    tracker.Tracker
	Scanner    *Scanner
	Orch       *Orchestrator

	// internal context for cancellation / lifecycle
	ctx    context.Context
	cancel context.CancelFunc
}

// NewApplication builds every production component from cfg.
func NewApplication(cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		return nil, errors.New("application: nil logger provided")
	}

	comps, err := NewComponents(cfg, logger)
	if err != nil {
		return nil, err
	}

	tr, err := newTracker(cfg, logger)
	if err != nil {
		_ = comps.Close()
		return nil, err
	}

	return assemble(cfg, logger, comps, tr)
}

// NewApplicationWith wires an Application over already-built parts. Tests use
// it with dummy components.
func NewApplicationWith(cfg *Config, logger logging.Logger, comps *Components, tr tracker.Tracker) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		return nil, errors.New("application: nil logger provided")
	}
	return assemble(cfg, logger, comps, tr)
}

func assemble(cfg *Config, logger logging.Logger, comps *Components, tr tracker.Tracker) (*Application, error) {
	scanner, err := NewScanner(cfg, comps, logger)
	if err != nil {
		if tr != nil {
			_ = tr.Close()
		}
		_ = comps.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		Config:     cfg,
		Logger:     logger,
		Components: comps,
		Tracker:    tr,
		Scanner:    scanner,
		Orch:       NewOrchestrator(cfg, scanner, tr, logger),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// newTracker opens the sqlite history, or an in-memory one when the storage
// path is "memory".
func newTracker(cfg *Config, logger logging.Logger) (tracker.Tracker, error) {
	storage := cfg.Storage
	if storage.Path == "memory" {
		return tracker.NewInMemoryTracker(&storage, logger)
	}
	tr, err := tracker.NewSQLiteTracker(logger, &storage)
	if err != nil {
		return nil, fmt.Errorf("new tracker: %w", err)
	}
	return tr, nil
}

// Context is cancelled by Shutdown. Background jobs started on behalf of
// clients should derive from it.
func (a *Application) Context() context.Context {
	return a.ctx
}

// Start logs the effective settings. It does not spawn goroutines; the server
// and CLI drive the work.
func (a *Application) Start() error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application starting",
		logging.Field{Key: "storage", Value: a.Config.Storage.Path},
		logging.Field{Key: "renderer", Value: a.Config.Renderer.Backend})
	return nil
}

// Shutdown cancels running jobs, then closes the tracker and components.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	a.Orch.Close()
	a.cancel()

	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		if a.Tracker != nil {
			if err := a.Tracker.Close(); err != nil {
				firstErr = fmt.Errorf("close tracker: %w", err)
			}
		}
		if err := a.Components.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close components: %w", err)
		}
	}()

	select {
	case <-done:
		return firstErr
	case <-shutdownCtx.Done():
		return shutdownCtx.Err()
	}
}
