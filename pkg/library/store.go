package library

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ultralog/ultralog/pkg/formula"
	"github.com/ultralog/ultralog/pkg/library/channelgraph"
	"github.com/ultralog/ultralog/pkg/logmodel"
)

// Store is the process-wide computed-channel library described in §4.6:
// an ordered list of templates, lazily loaded from disk on first access
// and atomically rewritten on every mutation. All mutating operations
// serialize under mu; List takes a read lock and returns a snapshot copy,
// so callers never observe a half-written slice.
type Store struct {
	path string
	log  *slog.Logger

	mu        sync.RWMutex
	loaded    bool
	loadErr   error
	templates []FormulaTemplate
	Warnings  []string // populated by the first load, read-only after that
}

// NewStore returns a Store backed by the document at path. The document
// is not read until the first operation touches it. logger, if nil,
// defaults to a discard handler.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{path: path, log: logger}
}

// ensureLoaded lazily loads the on-disk document the first time any
// operation needs the template set, mirroring the double-checked-lock
// cache shape used elsewhere in this codebase for load-on-first-access
// state: an RLock probe, then a Lock'd load only the first caller pays for.
func (s *Store) ensureLoaded() error {
	s.mu.RLock()
	if s.loaded {
		err := s.loadErr
		s.mu.RUnlock()
		return err
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.loadErr
	}
	templates, warnings, err := loadDocument(s.path)
	s.templates = templates
	s.Warnings = warnings
	s.loadErr = err
	s.loaded = true
	if err != nil {
		s.log.Warn("computed-channel library load failed", "path", s.path, "error", err)
	} else {
		s.log.Debug("computed-channel library loaded", "path", s.path, "templates", len(templates))
	}
	return err
}

// List returns an immutable snapshot of the library's templates, in the
// order they were added.
func (s *Store) List() ([]FormulaTemplate, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FormulaTemplate, len(s.templates))
	copy(out, s.templates)
	return out, nil
}

// Add validates t's formula, assigns it a fresh ID, appends it, persists
// the document, and returns the new ID. A persistence failure leaves the
// in-memory list as it was before the call.
func (s *Store) Add(t FormulaTemplate) (string, error) {
	if err := s.ensureLoaded(); err != nil {
		return "", err
	}
	if _, err := formula.Parse(t.Formula); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.NewString()
	next := append(append([]FormulaTemplate(nil), s.templates...), t)
	if err := saveDocument(s.path, next); err != nil {
		s.log.Warn("computed-channel library save failed", "path", s.path, "error", err)
		return "", err
	}
	s.templates = next
	return t.ID, nil
}

// Update replaces the template with id's fields, keeping its position in
// the ordered list and its ID.
func (s *Store) Update(id string, t FormulaTemplate) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	if _, err := formula.Parse(t.Formula); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return &NotFoundError{ID: id}
	}
	next := append([]FormulaTemplate(nil), s.templates...)
	t.ID = id
	next[idx] = t
	if err := saveDocument(s.path, next); err != nil {
		s.log.Warn("computed-channel library save failed", "path", s.path, "error", err)
		return err
	}
	s.templates = next
	return nil
}

// Remove deletes the template with id from the library.
func (s *Store) Remove(id string) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return &NotFoundError{ID: id}
	}
	next := make([]FormulaTemplate, 0, len(s.templates)-1)
	next = append(next, s.templates[:idx]...)
	next = append(next, s.templates[idx+1:]...)
	if err := saveDocument(s.path, next); err != nil {
		s.log.Warn("computed-channel library save failed", "path", s.path, "error", err)
		return err
	}
	s.templates = next
	return nil
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i, t := range s.templates {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Instantiate binds the template with id to log: it resolves the
// template's own references plus, recursively, the references of any
// other computed channel it names, in dependency order, per §4.5's "may
// reference other computed channels ... in dependency order". A cycle
// anywhere in that dependency chain is reported as a CyclicReferenceError
// naming the offending path.
func (s *Store) Instantiate(id string, log *logmodel.Log) (*ComputedChannel, error) {
	templates, err := s.List()
	if err != nil {
		return nil, err
	}

	var target *FormulaTemplate
	for i := range templates {
		if templates[i].ID == id {
			target = &templates[i]
			break
		}
	}
	if target == nil {
		return nil, &NotFoundError{ID: id}
	}

	graph, byName := buildTemplateGraph(templates)
	if has, path := graph.HasCycle(); has {
		closure := graph.UpstreamClosure(target.Name)
		for _, name := range path {
			if closure[name] {
				return nil, &formula.CyclicReferenceError{Path: path}
			}
		}
	}

	order, err := dependencyOrder(graph, target.Name)
	if err != nil {
		var cyclic *channelgraph.CyclicError
		if errors.As(err, &cyclic) {
			return nil, &formula.CyclicReferenceError{Path: cyclic.Path}
		}
		return nil, err
	}

	augmented := log
	var result *ComputedChannel
	for _, name := range order {
		cc, err := evaluateOne(byName[name], augmented)
		if err != nil {
			return nil, err
		}
		if name == target.Name {
			result = cc
			break
		}
		augmented = appendComputedChannel(augmented, cc)
	}
	return result, nil
}

// ApplyAllCompatible evaluates every template whose references resolve
// against log, silently skipping the rest (including any caught in a
// cross-template cycle, which by construction never gains a resolvable
// dependency and so never leaves the pending set). Resolution proceeds in
// passes so that a computed channel becomes available to templates that
// reference it as soon as it resolves, regardless of library order.
func (s *Store) ApplyAllCompatible(log *logmodel.Log) []*ComputedChannel {
	templates, err := s.List()
	if err != nil {
		return nil
	}

	pending := templates
	augmented := log
	var results []*ComputedChannel

	for len(pending) > 0 {
		var stillPending []FormulaTemplate
		progressed := false

		for _, t := range pending {
			v := formula.Validate(t.Formula, t.Name, augmented)
			if v.Verdict != formula.VerdictOK {
				stillPending = append(stillPending, t)
				continue
			}
			cc, err := evaluateOne(t, augmented)
			if err != nil {
				stillPending = append(stillPending, t)
				continue
			}
			results = append(results, cc)
			augmented = appendComputedChannel(augmented, cc)
			progressed = true
		}

		if !progressed {
			break
		}
		pending = stillPending
	}
	return results
}

func evaluateOne(t FormulaTemplate, log *logmodel.Log) (*ComputedChannel, error) {
	v := formula.Validate(t.Formula, t.Name, log)
	if v.Verdict != formula.VerdictOK {
		return nil, v.Err
	}
	expr, err := formula.Parse(t.Formula)
	if err != nil {
		return nil, err
	}
	return &ComputedChannel{
		TemplateID: t.ID,
		Name:       t.Name,
		Unit:       t.Unit,
		Values:     formula.EvaluateColumn(expr, log),
	}, nil
}

// buildTemplateGraph registers every template as a node and an edge from
// B to A whenever A's formula references B by name. A template whose
// formula fails to parse simply contributes no edges; it will fail at
// evaluation time on its own.
func buildTemplateGraph(templates []FormulaTemplate) (*channelgraph.Graph, map[string]FormulaTemplate) {
	g := channelgraph.New()
	byName := make(map[string]FormulaTemplate, len(templates))
	for _, t := range templates {
		g.AddNode(t.Name)
		if _, exists := byName[t.Name]; !exists {
			byName[t.Name] = t
		}
	}
	for _, t := range templates {
		expr, err := formula.Parse(t.Formula)
		if err != nil {
			continue
		}
		for _, ref := range formula.ExtractRefs(expr) {
			if _, isTemplate := byName[ref]; isTemplate {
				g.AddEdge(ref, t.Name)
			}
		}
	}
	return g, byName
}

// dependencyOrder returns name's transitive template dependencies
// followed by name itself, in an order safe to evaluate left to right.
// It sorts only the subgraph reachable from name, so a cycle elsewhere in
// the library (among templates name never references) cannot block an
// otherwise-resolvable instantiation. A cycle inside that subgraph is
// returned as a *channelgraph.CyclicError.
func dependencyOrder(g *channelgraph.Graph, name string) ([]string, error) {
	closure := g.UpstreamClosure(name)
	sub := channelgraph.New()
	for n := range closure {
		sub.AddNode(n)
	}
	for n := range closure {
		for _, parent := range g.Parents(n) {
			if closure[parent] {
				sub.AddEdge(parent, n)
			}
		}
	}
	return sub.TopologicalSort()
}

// appendComputedChannel returns a new Log with cc appended as an extra
// channel, so later templates in the same dependency chain can reference
// it by name just like a raw log channel.
func appendComputedChannel(log *logmodel.Log, cc *ComputedChannel) *logmodel.Log {
	next := &logmodel.Log{
		Time:          log.Time,
		Channels:      append(append([]logmodel.Channel(nil), log.Channels...), logmodel.Channel{RawName: cc.Name, CanonicalName: cc.Name, Kind: logmodel.KindNumeric}),
		Values:        append(append([][]logmodel.Cell(nil), log.Values...), cc.Values),
		Metadata:      append(append([]logmodel.Metadata(nil), log.Metadata...), logmodel.Metadata{SourceUnit: cc.Unit}),
		Fingerprint:   log.Fingerprint,
		SourceFormat:  log.SourceFormat,
		ParseWarnings: log.ParseWarnings,
	}
	return next
}
