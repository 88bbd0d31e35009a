// Package core implements spec §6: the host-facing façade that wires the
// spec registry, name normalizer, ingestion orchestrator, formula-driven
// computed-channel library, and downsampler into the single contract a
// host (CLI, GUI, or test harness) drives. Core holds no UI state of its
// own; it only tracks which logs and computed channels are currently live
// behind open handles.
package core

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ultralog/ultralog/pkg/analysis"
	"github.com/ultralog/ultralog/pkg/ingestion"
	"github.com/ultralog/ultralog/pkg/library"
	"github.com/ultralog/ultralog/pkg/logmodel"
	"github.com/ultralog/ultralog/pkg/normalize"
	"github.com/ultralog/ultralog/pkg/specs"
)

// Core is the process-wide façade described by spec §6. One Core serves
// every handle a host opens; it is safe for concurrent use.
type Core struct {
	registry     *specs.Registry
	orchestrator *ingestion.Orchestrator
	library      *library.Store
	analyzers    *analysis.Registry
	log          *slog.Logger

	mu        sync.RWMutex
	overrides normalize.Overrides
	logs      map[ingestion.Handle]*logmodel.Log
	computed  map[ingestion.Handle]map[string]*library.ComputedChannel
}

// Options configures a new Core.
type Options struct {
	Registry    *specs.Registry
	LibraryPath string
	MaxWorkers  int
	// Logger receives this Core's and its wired components' state-
	// transition logging. Nil selects a discard handler.
	Logger *slog.Logger
}

// New builds a Core. Registry may be nil (channel names then pass through
// the normalizer's built-in table only); LibraryPath selects where the
// computed-channel document is read from and persisted to.
func New(opts Options) *Core {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Core{
		registry:  opts.Registry,
		library:   library.NewStore(opts.LibraryPath, logger),
		analyzers: analysis.NewDefaultRegistry(),
		log:       logger,
		logs:      make(map[ingestion.Handle]*logmodel.Log),
		computed:  make(map[ingestion.Handle]map[string]*library.ComputedChannel),
	}
	c.orchestrator = ingestion.New(registryAdapter{c}, nil, opts.MaxWorkers, logger)
	return c
}

// registryAdapter forwards normalize.Registry calls to whatever *specs.Registry
// Core currently holds, so a later refresh_specs swap is visible to loads
// already in flight without re-creating the orchestrator.
type registryAdapter struct{ c *Core }

func (a registryAdapter) ResolveCanonical(rawName, vendorHint string) (string, bool) {
	a.c.mu.RLock()
	reg := a.c.registry
	a.c.mu.RUnlock()
	if reg == nil {
		return "", false
	}
	return reg.ResolveCanonical(rawName, vendorHint)
}

// SetUserOverrides replaces the raw-name overrides applied to every load
// submitted from this point on, per spec §6's "picked up on next load" —
// logs already open are unaffected.
func (c *Core) SetUserOverrides(overrides map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides = normalize.Overrides(overrides)
	c.orchestrator.SetOverrides(c.overrides)
}

// RefreshSpecs publishes a new vendor-spec bundle, per spec §4.1: on
// failure the registry already held keeps serving, and RefreshSpecs
// returns the *specs.RefreshError for the host to surface.
func (c *Core) RefreshSpecs(bundle specs.Bundle) error {
	c.mu.RLock()
	reg := c.registry
	c.mu.RUnlock()
	if reg == nil {
		built, err := specs.New(bundle, c.log)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.registry = built
		c.mu.Unlock()
		return nil
	}
	return reg.Refresh(bundle)
}

// Open submits path for background parsing and returns its handle
// immediately; the log is not ready until Log reports it complete.
func (c *Core) Open(ctx context.Context, path string) (ingestion.Handle, error) {
	return c.orchestrator.Submit(ctx, path)
}

// Close releases handle: the orchestrator frees its dedup slot, and any
// log and computed channels bound to it are dropped, per spec §5's
// resource-lifetime rule that a closed log's computed-channel
// instantiations "become unusable" before the log is reclaimed.
func (c *Core) Close(handle ingestion.Handle) error {
	err := c.orchestrator.Close(handle)

	c.mu.Lock()
	for _, cc := range c.computed[handle] {
		cc.Invalidate()
	}
	delete(c.logs, handle)
	delete(c.computed, handle)
	c.mu.Unlock()

	return err
}

// Log blocks until handle's load reaches a terminal state and returns its
// LogView, the immutable *logmodel.Log a parser produced. A failed or
// cancelled load returns its stored error.
func (c *Core) Log(ctx context.Context, handle ingestion.Handle) (*logmodel.Log, error) {
	c.mu.RLock()
	if log, ok := c.logs[handle]; ok {
		c.mu.RUnlock()
		return log, nil
	}
	c.mu.RUnlock()

	st, err := c.orchestrator.Await(ctx, handle)
	if err != nil {
		return nil, err
	}
	switch st.Status {
	case ingestion.StatusCompleted:
		c.mu.Lock()
		c.logs[handle] = st.Log
		c.mu.Unlock()
		return st.Log, nil
	default:
		return nil, st.Err
	}
}
