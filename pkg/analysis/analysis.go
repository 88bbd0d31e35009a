// Package analysis implements a pluggable signal-analysis framework over a
// loaded log: each Analyzer inspects one or more channels and produces a
// derived value series plus human-readable metadata, in the same shape a
// computed-channel formula produces, so a result can be promoted into
// pkg/library as a named channel. Analyzers are grouped into categories
// (Filters, Statistics, AFR, Derived) and discovered by a Registry based on
// which channels a given log actually has.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ultralog/ultralog/pkg/logmodel"
)

// nan marks a value series entry that had no sample to read, mirroring how
// pkg/formula treats an absent or out-of-bounds operand.
var nan = math.NaN()

// MissingChannelError is returned when an analyzer's required channel is
// absent from the log it was asked to run against.
type MissingChannelError struct {
	Channel string
}

func (e *MissingChannelError) Error() string {
	return "analysis: missing required channel " + e.Channel
}

// InsufficientDataError is returned when a channel has fewer samples than
// an analyzer needs to produce a meaningful result.
type InsufficientDataError struct {
	Needed, Got int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("analysis: insufficient data: need %d points, got %d", e.Needed, e.Got)
}

// InvalidParameterError is returned when an analyzer's configuration holds
// a value it cannot run with (e.g. a non-positive stoichiometric ratio).
type InvalidParameterError struct {
	Msg string
}

func (e *InvalidParameterError) Error() string { return "analysis: invalid parameter: " + e.Msg }

// ComputationError wraps a failure discovered while running the analysis
// itself, as opposed to a problem with its inputs or configuration.
type ComputationError struct {
	Msg string
}

func (e *ComputationError) Error() string { return "analysis: " + e.Msg }

// NotFoundError is returned by Registry.Run when asked for an analyzer ID
// it does not hold.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return "analysis: no analyzer with id " + e.ID }

// Parameter is one key/value pair surfaced in a Result's metadata, in the
// order the analyzer produced it.
type Parameter struct {
	Key   string
	Value string
}

// Metadata describes how a Result was produced, for a host to display
// alongside the values themselves.
type Metadata struct {
	Algorithm       string
	Parameters      []Parameter
	Warnings        []string
	ComputationTime time.Duration
}

// Result is the output of running one Analyzer against a log: a named,
// unit-tagged value series, one entry per record, plus metadata describing
// how it was computed.
type Result struct {
	Name   string
	Unit   string
	Values []float64
	Meta   Metadata
}

// HasWarnings reports whether the analysis flagged anything worth a host's
// attention.
func (r Result) HasWarnings() bool { return len(r.Meta.Warnings) > 0 }

// Analyzer is implemented by every concrete analysis algorithm. An
// Analyzer carries its own configuration (e.g. which channel to read, or a
// threshold), so a Registry holds configured instances rather than bare
// functions.
type Analyzer interface {
	// ID is a stable machine-readable identifier, used to look the
	// analyzer up again and to persist which one a host last selected.
	ID() string
	// Name is the human-readable algorithm name.
	Name() string
	// Description explains what the analyzer computes and why, for a
	// host to show as a tooltip or help text.
	Description() string
	// Category groups related analyzers for display ("Filters",
	// "Statistics", "AFR", "Derived").
	Category() string
	// RequiredChannels lists the channel names this analyzer cannot run
	// without.
	RequiredChannels() []string
	// OptionalChannels lists channel names that improve the analysis if
	// present, but are not required.
	OptionalChannels() []string
	// Analyze runs the analyzer against log and returns its result.
	Analyze(log *logmodel.Log) (Result, error)
	// Config returns the analyzer's current parameters as string values,
	// suitable for display or round-tripping through SetConfig.
	Config() map[string]string
	// SetConfig applies whichever of params' keys the analyzer
	// recognizes. Unknown keys and unparseable values are ignored rather
	// than rejected, so a host can apply a partial or stale config
	// without losing the rest of it.
	SetConfig(params map[string]string)
}

// timedAnalyze runs f and reports how long it took, so every Analyzer can
// report ComputationTime without duplicating the timing logic.
func timedAnalyze[T any](f func() T) (T, time.Duration) {
	start := time.Now()
	v := f()
	return v, time.Since(start)
}

// channelValues looks up name against log case-insensitively, preferring a
// match on the canonical name (the name every other part of this codebase
// addresses a channel by) and falling back to the raw name a vendor file
// actually used. Absent cells become NaN and categorical cells convert to
// their enum index, so the returned slice always has one entry per record.
func channelValues(log *logmodel.Log, name string) ([]float64, bool) {
	idx := channelIndex(log, name)
	if idx < 0 {
		return nil, false
	}
	col := log.Values[idx]
	out := make([]float64, len(col))
	for i, cell := range col {
		switch cell.Tag {
		case logmodel.Number:
			out[i] = cell.Num
		case logmodel.Categorical:
			out[i] = float64(cell.Enum)
		default:
			out[i] = nan
		}
	}
	return out, true
}

func channelIndex(log *logmodel.Log, name string) int {
	if log == nil {
		return -1
	}
	for i, ch := range log.Channels {
		if strings.EqualFold(ch.CanonicalName, name) {
			return i
		}
	}
	for i, ch := range log.Channels {
		if strings.EqualFold(ch.RawName, name) {
			return i
		}
	}
	return -1
}

// hasChannel reports whether log has a channel matching name, by the same
// rule channelValues uses to find one.
func hasChannel(log *logmodel.Log, name string) bool {
	return channelIndex(log, name) >= 0
}

// requireChannel fetches name's full-length value series or reports which
// channel is missing.
func requireChannel(log *logmodel.Log, name string) ([]float64, error) {
	values, ok := channelValues(log, name)
	if !ok {
		return nil, &MissingChannelError{Channel: name}
	}
	return values, nil
}

// requireMinLength rejects a series too short for the analyzer that asked
// for it to produce a meaningful result.
func requireMinLength(data []float64, min int) error {
	if len(data) < min {
		return &InsufficientDataError{Needed: min, Got: len(data)}
	}
	return nil
}

// Info is the static description of an Analyzer, returned by a Registry
// without running anything, for a host to render a catalog or menu.
type Info struct {
	ID               string
	Name             string
	Description      string
	Category         string
	RequiredChannels []string
	OptionalChannels []string
}

func infoOf(a Analyzer) Info {
	return Info{
		ID:               a.ID(),
		Name:             a.Name(),
		Description:      a.Description(),
		Category:         a.Category(),
		RequiredChannels: a.RequiredChannels(),
		OptionalChannels: a.OptionalChannels(),
	}
}

// Registry holds a set of configured analyzers and answers which of them a
// given log can actually run.
type Registry struct {
	analyzers []Analyzer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry returns a registry pre-populated with every built-in
// analyzer, each at its default configuration, grouped Filters, Statistics,
// AFR, then Derived.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewMovingAverageAnalyzer())
	r.Register(NewExponentialMovingAverageAnalyzer())
	r.Register(NewMedianFilterAnalyzer())

	r.Register(NewDescriptiveStatsAnalyzer())
	r.Register(NewCorrelationAnalyzer())
	r.Register(NewRateOfChangeAnalyzer())

	r.Register(NewFuelTrimDriftAnalyzer())
	r.Register(NewRichLeanZoneAnalyzer())
	r.Register(NewAfrDeviationAnalyzer())

	r.Register(NewVolumetricEfficiencyAnalyzer())
	r.Register(NewInjectorDutyCycleAnalyzer())
	r.Register(NewLambdaCalculator())
	return r
}

// Register adds a to the registry. A later Register with the same ID
// shadows an earlier one in FindByID, but both remain in All.
func (r *Registry) Register(a Analyzer) {
	r.analyzers = append(r.analyzers, a)
}

// All returns the static Info for every registered analyzer, in
// registration order.
func (r *Registry) All() []Info {
	out := make([]Info, 0, len(r.analyzers))
	for _, a := range r.analyzers {
		out = append(out, infoOf(a))
	}
	return out
}

// AvailableFor returns the Info for every analyzer whose required channels
// all resolve against log.
func (r *Registry) AvailableFor(log *logmodel.Log) []Info {
	var out []Info
	for _, a := range r.analyzers {
		if allPresent(log, a.RequiredChannels()) {
			out = append(out, infoOf(a))
		}
	}
	return out
}

func allPresent(log *logmodel.Log, names []string) bool {
	for _, name := range names {
		if !hasChannel(log, name) {
			return false
		}
	}
	return true
}

// ByCategory groups every registered analyzer's Info under its category,
// in registration order within each category. The returned map has no
// order of its own; Categories gives the category names sorted.
func (r *Registry) ByCategory() map[string][]Info {
	out := make(map[string][]Info)
	for _, a := range r.analyzers {
		out[a.Category()] = append(out[a.Category()], infoOf(a))
	}
	return out
}

// Categories returns the sorted set of category names currently
// registered.
func (r *Registry) Categories() []string {
	seen := map[string]bool{}
	for _, a := range r.analyzers {
		seen[a.Category()] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// FindByID returns the analyzer registered under id, searching in reverse
// registration order so a later Register shadows an earlier one.
func (r *Registry) FindByID(id string) (Analyzer, bool) {
	for i := len(r.analyzers) - 1; i >= 0; i-- {
		if r.analyzers[i].ID() == id {
			return r.analyzers[i], true
		}
	}
	return nil, false
}

// Run finds the analyzer registered under id and runs it against log.
func (r *Registry) Run(id string, log *logmodel.Log) (Result, error) {
	a, ok := r.FindByID(id)
	if !ok {
		return Result{}, &NotFoundError{ID: id}
	}
	return a.Analyze(log)
}
