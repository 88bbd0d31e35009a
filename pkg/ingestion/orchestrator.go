// Package ingestion implements spec §4.8: the single-owner load queue
// that fans file-open requests out across background workers, dedups by
// content fingerprint, and propagates cancellation down into the parser.
package ingestion

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ultralog/ultralog/pkg/ingest"
	"github.com/ultralog/ultralog/pkg/logmodel"
	"github.com/ultralog/ultralog/pkg/normalize"
)

// Orchestrator is the process-wide ingestion queue. One Orchestrator
// serves every Submit call; workers run on an errgroup.Group with a fixed
// concurrency limit, per spec §5's "parallel threads with message passing
// between the host and the ingestion orchestrator".
type Orchestrator struct {
	registry  normalize.Registry
	overrides atomic.Pointer[normalize.Overrides]
	log       *slog.Logger

	mu            sync.RWMutex
	states        map[Handle]*entry
	byFingerprint map[string]Handle

	group *errgroup.Group
	sf    singleflight.Group
}

type entry struct {
	mu         sync.Mutex
	state      LoadingState
	cancel     context.CancelFunc
	done       chan struct{} // closed exactly once, when state reaches a terminal status
	doneClosed bool
}

// markDone must be called with e.mu held. It closes done at most once.
func (e *entry) markDone() {
	if !e.doneClosed {
		e.doneClosed = true
		close(e.done)
	}
}

// New returns an Orchestrator that resolves channel names against
// registry and applies overrides to every load it submits. maxWorkers
// bounds how many parses run concurrently; zero selects a sane default.
// logger, if nil, defaults to a discard handler; state transitions are
// logged at Debug/Info against whatever is passed.
func New(registry normalize.Registry, overrides normalize.Overrides, maxWorkers int, logger *slog.Logger) *Orchestrator {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	g := &errgroup.Group{}
	g.SetLimit(maxWorkers)
	o := &Orchestrator{
		registry:      registry,
		log:           logger,
		states:        make(map[Handle]*entry),
		byFingerprint: make(map[string]Handle),
		group:         g,
	}
	o.overrides.Store(&overrides)
	return o
}

// SetOverrides replaces the raw-name override table applied to loads
// submitted after this call returns; loads already running keep using
// whichever table they started with.
func (o *Orchestrator) SetOverrides(overrides normalize.Overrides) {
	o.overrides.Store(&overrides)
}

// Submit enqueues path for background parsing and returns its Handle
// immediately. Concurrent Submit calls for the same path collapse onto
// one fingerprint check and one open (singleflight), ahead of the dedup
// table consult, so racing requests for a file that's already mid-open
// never both pay the open-and-fingerprint cost.
func (o *Orchestrator) Submit(ctx context.Context, path string) (Handle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	v, err, _ := o.sf.Do(abs, func() (interface{}, error) {
		return o.submit(ctx, path)
	})
	if err != nil {
		return "", err
	}
	return v.(Handle), nil
}

func (o *Orchestrator) submit(ctx context.Context, path string) (Handle, error) {
	f, err := openFile(path)
	if err != nil {
		return "", err
	}

	fp, _, err := logmodel.Fingerprint(f.f)
	if err != nil {
		f.Close()
		return "", err
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return "", err
	}

	o.mu.Lock()
	if existing, dup := o.byFingerprint[fp]; dup {
		o.mu.Unlock()
		f.Close()
		return "", &DuplicateLoadError{ExistingHandle: existing}
	}

	handle := Handle(uuid.NewString())
	runCtx, cancel := context.WithCancel(ctx)
	e := &entry{
		state:  LoadingState{Handle: handle, Status: StatusPending, Path: path},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	o.states[handle] = e
	o.byFingerprint[fp] = handle
	o.mu.Unlock()

	o.log.Debug("load submitted", "handle", handle, "path", path)

	o.group.Go(func() error {
		o.run(runCtx, handle, f, e)
		return nil
	})

	return handle, nil
}

func (o *Orchestrator) run(ctx context.Context, handle Handle, f *osFile, e *entry) {
	defer f.Close()

	e.mu.Lock()
	e.state.Status = StatusRunning
	e.mu.Unlock()
	o.log.Debug("load running", "handle", handle)

	head := make([]byte, 4096)
	n, _ := f.Read(head)
	if _, err := f.Seek(0, 0); err != nil {
		o.finish(handle, e, nil, err, false)
		return
	}

	parser, err := ingest.Detect(e.state.Path, head[:n])
	if err != nil {
		o.finish(handle, e, nil, err, false)
		return
	}

	log, err := parser.Parse(ctx, f, ingest.Options{Registry: o.registry, Overrides: *o.overrides.Load(), Logger: o.log})

	select {
	case <-ctx.Done():
		o.finish(handle, e, nil, ctx.Err(), true)
	default:
		o.finish(handle, e, log, err, false)
	}
}

func (o *Orchestrator) finish(handle Handle, e *entry, log *logmodel.Log, err error, cancelled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Status == StatusCancelled {
		return // cancellation already observed; the partial result is discarded
	}
	switch {
	case cancelled:
		e.state.Status = StatusCancelled
		e.state.Err = err
		o.log.Info("load cancelled", "handle", handle)
	case err != nil:
		e.state.Status = StatusFailed
		e.state.Err = err
		o.log.Info("load failed", "handle", handle, "error", err)
	default:
		e.state.Status = StatusCompleted
		e.state.Log = log
		o.log.Info("load completed", "handle", handle, "records", log.RecordCount(), "channels", log.ChannelCount())
	}
	e.markDone()
}

// GetState returns a snapshot of handle's current state.
func (o *Orchestrator) GetState(handle Handle) (LoadingState, error) {
	o.mu.RLock()
	e, ok := o.states[handle]
	o.mu.RUnlock()
	if !ok {
		return LoadingState{}, &UnknownHandleError{Handle: handle}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, nil
}

// Cancel requests that handle's load stop. Observing the cancellation is
// non-blocking: the worker notices ctx.Done() at its next suspension
// point (a parser row boundary, at minimum every 4096 rows) and discards
// any partial result.
func (o *Orchestrator) Cancel(handle Handle) error {
	o.mu.RLock()
	e, ok := o.states[handle]
	o.mu.RUnlock()
	if !ok {
		return &UnknownHandleError{Handle: handle}
	}

	e.mu.Lock()
	if !e.state.Done() {
		e.state.Status = StatusCancelled
		e.markDone()
	}
	e.mu.Unlock()

	e.cancel()
	return nil
}

// Await blocks until handle reaches a terminal status or ctx is done,
// whichever comes first, mirroring spec §5's "the orchestrator's result
// channel suspends on receive with a timeout".
func (o *Orchestrator) Await(ctx context.Context, handle Handle) (LoadingState, error) {
	o.mu.RLock()
	e, ok := o.states[handle]
	o.mu.RUnlock()
	if !ok {
		return LoadingState{}, &UnknownHandleError{Handle: handle}
	}

	select {
	case <-e.done:
	case <-ctx.Done():
		return LoadingState{}, ctx.Err()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, nil
}

// Close releases handle: its dedup slot is freed so a future Submit of
// the same content is accepted again, per spec §5's "a loaded log is
// released when the host closes its handle".
func (o *Orchestrator) Close(handle Handle) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.states[handle]
	if !ok {
		return &UnknownHandleError{Handle: handle}
	}
	delete(o.states, handle)
	for fp, h := range o.byFingerprint {
		if h == handle {
			delete(o.byFingerprint, fp)
			break
		}
	}
	e.cancel()
	return nil
}

// Wait blocks until every outstanding load has reached a terminal state.
// It never returns an error itself: per-load failures live in each
// load's own LoadingState, not in the group's aggregate result.
func (o *Orchestrator) Wait() {
	_ = o.group.Wait()
}
